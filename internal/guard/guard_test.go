package guard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daaku/ensure"
	"github.com/pkg/errors"
)

func TestCheckPath(t *testing.T) {
	dir := t.TempDir()
	ensure.Nil(t, CheckPath(filepath.Join(dir, "a.css"), dir))
	ensure.Nil(t, CheckPath(filepath.Join(dir, "sub", "a.css"), dir))
	ensure.Nil(t, CheckPath("anything", ""))

	err := CheckPath(filepath.Join(dir, "..", "a.css"), dir)
	var traversal *TraversalError
	ensure.True(t, errors.As(err, &traversal))

	err = CheckPath("/etc/passwd", dir)
	ensure.True(t, errors.As(err, &traversal))
}

func TestCheckPathSymlink(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base")
	outside := filepath.Join(dir, "outside")
	ensure.Nil(t, os.Mkdir(base, 0o755))
	ensure.Nil(t, os.Mkdir(outside, 0o755))

	// a link under the base pointing outside it must not pass
	link := filepath.Join(base, "link")
	ensure.Nil(t, os.Symlink(outside, link))
	err := CheckPath(filepath.Join(link, "a.css"), base)
	var traversal *TraversalError
	ensure.True(t, errors.As(err, &traversal))

	// a link staying under the base is fine, even for a target that does
	// not exist yet
	inside := filepath.Join(base, "sub")
	ensure.Nil(t, os.Mkdir(inside, 0o755))
	goodLink := filepath.Join(base, "good")
	ensure.Nil(t, os.Symlink(inside, goodLink))
	ensure.Nil(t, CheckPath(filepath.Join(goodLink, "out.css"), base))
}

func TestReadFileLimit(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.css")
	ensure.Nil(t, os.WriteFile(p, []byte(strings.Repeat("a", 100)), 0o644))

	_, err := ReadFile(p, 10)
	var tooLarge *TooLargeError
	ensure.True(t, errors.As(err, &tooLarge))
	ensure.DeepEqual(t, tooLarge.Size, int64(100))
	ensure.DeepEqual(t, tooLarge.Limit, int64(10))

	b, err := ReadFile(p, 1000)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(b), 100)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.css"), 0)
	ensure.NotNil(t, err)
	ensure.True(t, strings.Contains(err.Error(), "nope.css"))
}

func TestCheckSize(t *testing.T) {
	ensure.Nil(t, CheckSize("mem", 10, 100))
	err := CheckSize("mem", 200, 100)
	var tooLarge *TooLargeError
	ensure.True(t, errors.As(err, &tooLarge))
	// 0 means the 10MB default
	ensure.Nil(t, CheckSize("mem", 1<<20, 0))
}

func TestWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.css")
	ensure.Nil(t, WriteFile(p, []byte(".a{}")))
	b, err := os.ReadFile(p)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, string(b), ".a{}")

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.css"), nil)
	ensure.NotNil(t, err)
}
