package csspurge

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daaku/cssweld/internal/csstree"
	"github.com/daaku/cssweld/internal/guard"
	"github.com/pkg/errors"

	"github.com/daaku/ensure"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	ensure.Nil(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunnerFile(t *testing.T) {
	dir := t.TempDir()
	htmlPath := write(t, dir, "page.html", `<div class="card">X</div>`)
	cssPath := write(t, dir, "page.css", `.card{color:red}.missing{color:blue}`)
	outPath := filepath.Join(dir, "out.css")

	r := Runner{BaseDir: dir}
	res, err := r.File(htmlPath, cssPath, outPath)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, res.OutputPath, outPath)
	ensure.DeepEqual(t, res.Stats.KeptRules, 1)
	ensure.DeepEqual(t, res.Stats.RemovedRules, 1)

	out, err := os.ReadFile(outPath)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, res.OutputBytes, len(out))
	ensure.True(t, bytes.Contains(out, []byte(".card")))
	ensure.False(t, bytes.Contains(out, []byte(".missing")))
}

func TestRunnerSizeCeiling(t *testing.T) {
	dir := t.TempDir()
	htmlPath := write(t, dir, "page.html", `<p>x</p>`)
	cssPath := write(t, dir, "big.css", strings.Repeat("a", 100))
	r := Runner{MaxBytes: 10}
	_, err := r.File(htmlPath, cssPath, filepath.Join(dir, "out.css"))
	var tooLarge *guard.TooLargeError
	ensure.True(t, errors.As(err, &tooLarge))
	ensure.True(t, Hint(err) != "")
}

func TestRunnerTraversal(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base")
	ensure.Nil(t, os.Mkdir(base, 0o755))
	htmlPath := write(t, base, "page.html", `<p>x</p>`)
	cssPath := write(t, base, "page.css", `p{margin:0}`)
	outside := filepath.Join(dir, "out.css")

	r := Runner{BaseDir: base}
	_, err := r.File(htmlPath, cssPath, outside)
	var traversal *guard.TraversalError
	ensure.True(t, errors.As(err, &traversal))
	ensure.True(t, Hint(err) != "")
}

func TestRunnerMissingInput(t *testing.T) {
	dir := t.TempDir()
	r := Runner{}
	_, err := r.File(filepath.Join(dir, "nope.html"), filepath.Join(dir, "nope.css"), filepath.Join(dir, "out.css"))
	ensure.NotNil(t, err)
	ensure.DeepEqual(t, Hint(err), "")
}

func TestHintParseError(t *testing.T) {
	err := errors.Wrap(&csstree.ParseError{}, "context")
	ensure.True(t, strings.Contains(Hint(err), "lenient"))
}
