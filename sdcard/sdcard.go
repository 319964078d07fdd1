/*
Package sdcard implements the removable storage side of the camera: a
directory of sequentially numbered capture files.

Files are written to a temporary name in the same directory and renamed into
place once complete, so an interrupted write never leaves a truncated
capture behind.
*/
package sdcard

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPattern matches the filenames used by the original firmware
const DefaultPattern = "frame%d.bmp"

const (
	tempPrefix = ".capture-"
	fileMode   = 0644
)

var errBadPattern = errors.New("sdcard: pattern must contain exactly one %d")

// Store is a directory of numbered capture files.
type Store struct {
	dir     string
	pattern string
}

// New returns a Store writing files named after pattern into dir, creating
// the directory if necessary.
func New(dir, pattern string) (*Store, error) {
	if strings.Count(pattern, "%") != 1 || strings.Count(pattern, "%d") != 1 || strings.ContainsRune(pattern, os.PathSeparator) {
		return nil, errBadPattern
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		dir:     dir,
		pattern: pattern,
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Filename returns the base filename for sequence number seq.
func (s *Store) Filename(seq int) string {
	return fmt.Sprintf(s.pattern, seq)
}

// Path returns the full path for sequence number seq.
func (s *Store) Path(seq int) string {
	return filepath.Join(s.dir, s.Filename(seq))
}

// Next returns one past the highest sequence number already present in the
// directory, or zero if there are none.
func (s *Store) Next() (int, error) {
	files, err := ioutil.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	next := 0
	for _, info := range files {
		if !info.Mode().IsRegular() {
			continue
		}
		var seq int
		if _, err := fmt.Sscanf(info.Name(), s.pattern, &seq); err != nil {
			continue
		}
		// Sscanf ignores trailing input so make sure it's an exact match
		if s.Filename(seq) != info.Name() || seq < next {
			continue
		}
		next = seq + 1
	}

	return next, nil
}

// WriteFile atomically writes b to name within the store.
func (s *Store) WriteFile(name string, b []byte) (err error) {
	f, err := ioutil.TempFile(s.dir, tempPrefix)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(b); err != nil {
		return err
	}
	// TempFile creates the file owner-only
	if err = f.Chmod(fileMode); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), filepath.Join(s.dir, name))
}
