// Package snapshot saves timer state to a text file and restores it on the
// next start.
//
// The file starts with a tag and version line followed by the save time in
// unix seconds. Every further line holds one timer: its id and the fields
// written by the timer itself.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/ayoisaiah/respite/internal/pathutil"
)

const (
	Tag     = "WorkRaveState"
	Version = 3
)

var (
	ErrCorrupted           = errors.New("state file is corrupted")
	ErrIncompatibleVersion = errors.New("state file version is incompatible")
)

// Entry is a timer that can be saved and restored.
type Entry interface {
	ID() string
	SerializeState() string
	DeserializeState(fields []string, version int, saved, now time.Time) error
}

// Line is one timer line of a parsed file.
type Line struct {
	ID     string
	Fields []string
}

// File is the parsed content of a state file.
type File struct {
	Version int
	Saved   time.Time
	Lines   []Line
}

// Write writes the header and one line per entry.
func Write(w io.Writer, now time.Time, entries []Entry) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s %d\n%d\n", Tag, Version, now.Unix())

	for _, e := range entries {
		fmt.Fprintln(bw, e.SerializeState())
	}

	return bw.Flush()
}

// Save writes the snapshot to a temporary file next to path and renames it
// into place, so a crash never leaves a partial file behind.
func Save(path string, now time.Time, entries []Entry) error {
	err := pathutil.WriteFileAtomic(path, func(w io.Writer) error {
		return Write(w, now, entries)
	})
	if err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}

	return nil
}

// Parse reads a state file without applying it. Blank lines are ignored.
func Parse(r io.Reader) (*File, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return nil, multierr.Append(ErrCorrupted, sc.Err())
	}

	tag, ver, ok := strings.Cut(strings.TrimSpace(sc.Text()), " ")
	if !ok || tag != Tag {
		return nil, fmt.Errorf("%w: missing %s header", ErrCorrupted, Tag)
	}

	version, err := strconv.Atoi(strings.TrimSpace(ver))
	if err != nil {
		return nil, fmt.Errorf("%w: version %q", ErrCorrupted, ver)
	}

	if version < 1 || version > Version {
		return nil, fmt.Errorf("%w: got %d, want 1 to %d", ErrIncompatibleVersion, version, Version)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("%w: missing save time", ErrCorrupted)
	}

	saved, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: save time: %v", ErrCorrupted, err)
	}

	f := &File{
		Version: version,
		Saved:   time.Unix(saved, 0),
	}

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		f.Lines = append(f.Lines, Line{ID: fields[0], Fields: fields[1:]})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	return f, nil
}

// Read opens and parses the state file at path.
func Read(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	return Parse(f)
}

// Restore hands every line to the entry with the same id. Lines for unknown
// ids are skipped. Lines an entry rejects are reported in the returned error
// while the remaining lines still apply. The ids that were restored are
// returned.
func (f *File) Restore(now time.Time, entries []Entry) ([]string, error) {
	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID()] = e
	}

	var (
		restored []string
		errs     error
	)

	for _, l := range f.Lines {
		e, ok := byID[l.ID]
		if !ok {
			continue
		}

		if err := e.DeserializeState(l.Fields, f.Version, f.Saved, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", l.ID, err))
			continue
		}

		restored = append(restored, l.ID)
	}

	return restored, errs
}

// Load reads the state file at path and restores entries from it.
func Load(path string, now time.Time, entries []Entry) ([]string, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}

	return f.Restore(now, entries)
}
