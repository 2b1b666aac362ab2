// Package atomicfile implements write-then-rename publication of files, the
// primitive every durable-state component (reservations, mailbox, registry)
// is built on. Rename is atomic on the same filesystem on POSIX and on
// Windows (MoveFileEx replace semantics via os.Rename), so a reader never
// observes a torn write: either the previous contents (or NotFound) or the
// complete new contents.
package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Read when the target file does not exist,
// distinct from other I/O errors so callers can treat "absent" and
// "unreadable" differently.
var ErrNotFound = errors.New("atomicfile: not found")

// Publish writes payload to a uniquely-named temporary file under dir, then
// renames it over name. The temporary file is always cleaned up if Publish
// returns before the rename completes, even on a write or close failure.
func Publish(dir, name string, payload []byte) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("atomicfile: create dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()

	published := false
	defer func() {
		if !published {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("atomicfile: write %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomicfile: close %q: %w", tmpPath, err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("atomicfile: rename %q to %q: %w", tmpPath, finalPath, err)
	}
	published = true
	return nil
}

// Read opens, reads, and closes path, returning ErrNotFound distinctly from
// other I/O errors.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("atomicfile: read %q: %w", path, err)
	}
	return data, nil
}

// RandomSuffix returns a short random hex token suitable for disambiguating
// filenames published concurrently by different writers (e.g. two mailbox
// messages landing in the same microsecond). Built from a UUIDv4 rather than
// crypto/rand directly — the teacher's agent/job identifiers are already
// UUIDs, and reusing the same source keeps every "give me a unique token"
// need in this codebase going through one library.
func RandomSuffix(hexChars int) string {
	id := uuid.New()
	raw := id.String()
	buf := make([]byte, 0, len(raw))
	for _, r := range raw {
		if r != '-' {
			buf = append(buf, byte(r))
		}
	}
	if hexChars > len(buf) {
		hexChars = len(buf)
	}
	return string(buf[:hexChars])
}
