package csspurge

import (
	"fmt"
	"log"
	"regexp"

	"github.com/daaku/cssweld/internal/csstree"
	"github.com/daaku/cssweld/internal/guard"
	"github.com/daaku/cssweld/internal/htmlusage"
	"github.com/pkg/errors"
)

// Runner is the file-level purge entry point. The zero value works; BaseDir
// confines every path touched when set, MaxBytes defaults to the 10MB
// ceiling.
type Runner struct {
	BaseDir  string
	MaxBytes int64
	Log      *log.Logger
	Keep     []*regexp.Regexp
}

// Result describes a successful file purge.
type Result struct {
	OutputPath  string
	OutputBytes int
	Stats       Stats
}

// File reads the HTML document and stylesheet, purges, and writes the
// filtered text to outPath. Input ceilings apply before parsing.
func (r *Runner) File(htmlPath, cssPath, outPath string) (*Result, error) {
	for _, p := range []string{htmlPath, cssPath, outPath} {
		if err := guard.CheckPath(p, r.BaseDir); err != nil {
			return nil, err
		}
	}
	htmlText, err := guard.ReadFile(htmlPath, r.MaxBytes)
	if err != nil {
		return nil, err
	}
	cssText, err := guard.ReadFile(cssPath, r.MaxBytes)
	if err != nil {
		return nil, err
	}
	l := r.Log
	if l == nil {
		l = discard
	}
	out, stats, err := Purge(htmlusage.Extract(htmlText), l, cssText, &Options{Keep: r.Keep})
	if err != nil {
		return nil, errors.Wrapf(err, "purging %q", cssPath)
	}
	if err := guard.WriteFile(outPath, out); err != nil {
		return nil, err
	}
	return &Result{
		OutputPath:  outPath,
		OutputBytes: len(out),
		Stats:       stats,
	}, nil
}

// Hint returns a one-line remediation suggestion for a purge failure, or ""
// when there is nothing actionable to say.
func Hint(err error) string {
	var tooLarge *guard.TooLargeError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("split the input or raise the limit above %d bytes", tooLarge.Limit)
	}
	var traversal *guard.TraversalError
	if errors.As(err, &traversal) {
		return fmt.Sprintf("keep all paths under %s", traversal.Base)
	}
	var parseErr *csstree.ParseError
	if errors.As(err, &parseErr) {
		return "the stylesheet is unparseable even in lenient mode; check that the input is CSS"
	}
	return ""
}
