package config

import "github.com/ayoisaiah/respite/internal/apperr"

var (
	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing config file failed",
	}

	errWatchConfig = &apperr.Error{
		Message: "watching config file failed",
	}

	errOutOfRange = &apperr.Error{
		Message: "%s must be between %v and %v, got %v",
	}

	errInvalidValue = &apperr.Error{
		Message: "invalid value for %s: %q",
	}

	errInvalidResetTime = &apperr.Error{
		Message: "%s must be a time of day such as 04:30, got %q",
	}
)
