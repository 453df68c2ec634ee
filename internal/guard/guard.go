// Package guard enforces the file contract around the CSS engine: byte
// ceilings checked before any parse work, optional base-directory
// confinement for every path touched, and read/write wrappers that carry the
// failing path.
package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultMaxBytes is the input ceiling applied when callers pass 0.
const DefaultMaxBytes = 10 << 20

// TooLargeError reports an input exceeding the configured byte ceiling. It
// fires before the file content is read.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("guard: %s is %d bytes, above the %d byte limit", e.Path, e.Size, e.Limit)
}

// TraversalError reports a path resolving outside its required base
// directory.
type TraversalError struct {
	Path string
	Base string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("guard: %s escapes base directory %s", e.Path, e.Base)
}

// CheckPath verifies that path resolves under base, after following any
// symlinks in either, so a link under the base cannot smuggle a path outside
// it. An empty base disables the check.
func CheckPath(path, base string) error {
	if base == "" {
		return nil
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return errors.Wrapf(err, "resolving base %q", base)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolving path %q", path)
	}
	rel, err := filepath.Rel(resolveSymlinks(absBase), resolveSymlinks(absPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &TraversalError{Path: path, Base: base}
	}
	return nil
}

// resolveSymlinks evaluates symlinks in the longest existing prefix of p.
// The tail may not exist yet (output files), which EvalSymlinks alone would
// reject.
func resolveSymlinks(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(resolveSymlinks(parent), filepath.Base(p))
}

// ReadFile reads a file after checking its size against limit (0 means
// DefaultMaxBytes).
func ReadFile(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	if fi.Size() > limit {
		return nil, &TooLargeError{Path: path, Size: fi.Size(), Limit: limit}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return b, nil
}

// CheckSize applies the ceiling to in-memory input that did not come from a
// file.
func CheckSize(label string, size int, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if int64(size) > limit {
		return &TooLargeError{Path: label, Size: int64(size), Limit: limit}
	}
	return nil
}

// WriteFile writes a file, wrapping failures with the path.
func WriteFile(path string, b []byte) error {
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", path)
	}
	return nil
}
