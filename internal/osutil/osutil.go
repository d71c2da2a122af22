package osutil

const Windows = "windows"
