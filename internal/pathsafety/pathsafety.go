// Package pathsafety normalizes workspace-relative paths and confines them
// to a workspace root. No function in this package touches the filesystem
// beyond the confinement check itself (no reads or writes; filepath.Abs
// consults the working directory only when ws is relative) —
// callers that need a path to exist do that check themselves.
package pathsafety

import (
	"crypto/sha1" //nolint:gosec // used only for a stable short identifier, not for security
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path, once normalized, resolves outside
// the workspace root.
var ErrPathEscape = errors.New("pathsafety: path outside workspace")

// ShortIDLen is the number of hex characters kept from the SHA-1 digest of a
// normalized path when computing its stable short identifier.
const ShortIDLen = 12

// Normalize converts input (which may be absolute, relative, or already
// workspace-relative) into a workspace-relative path using forward slashes,
// and verifies that it does not escape ws.
//
// The check resolves both ws and the candidate to their absolute, cleaned
// forms and requires the candidate to begin with the workspace root. This
// catches "../" traversal, absolute paths outside ws, and symlink-free
// lexical escapes; it does not resolve symlinks (spec.md does not require
// it, and doing so would require filesystem access this package avoids).
func Normalize(ws, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("pathsafety: empty path: %w", ErrPathEscape)
	}

	absWS, err := filepath.Abs(filepath.Clean(ws))
	if err != nil {
		return "", fmt.Errorf("pathsafety: resolve workspace root: %w", err)
	}

	var candidate string
	if filepath.IsAbs(input) {
		candidate = filepath.Clean(input)
	} else {
		candidate = filepath.Join(absWS, input)
	}

	rel, err := filepath.Rel(absWS, candidate)
	if err != nil {
		return "", fmt.Errorf("pathsafety: %w: %v", ErrPathEscape, err)
	}

	// filepath.Rel can produce a path starting with ".." when candidate is
	// outside absWS; it can also legitimately produce "." for the root
	// itself, which is not a valid reservable/mailbox-relative path.
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == "." {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, input)
	}

	return filepath.ToSlash(path.Clean(filepath.ToSlash(rel))), nil
}

// ShortID returns the first ShortIDLen hex digits of the SHA-1 digest of the
// normalized path. Used to derive the on-disk filename for a reservation
// record: <short-id>.json.
func ShortID(normalizedPath string) string {
	sum := sha1.Sum([]byte(normalizedPath)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:ShortIDLen]
}
