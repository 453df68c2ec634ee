// Command cssweld filters unused CSS against an HTML document and merges
// stylesheets into one deduplicated sheet.
package main

import (
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/daaku/cssweld/internal/cssmerge"
	"github.com/daaku/cssweld/internal/csspurge"
	"github.com/jpillora/opts"
	"github.com/pkg/errors"
)

type filterCmd struct {
	HTML     string   `opts:"name=html,short=h,help=Path to the HTML document"`
	CSS      string   `opts:"name=css,short=c,help=Path to the stylesheet"`
	Out      string   `opts:"short=o,help=Path for the filtered stylesheet"`
	Base     string   `opts:"help=Confine all paths to this directory"`
	MaxBytes int64    `opts:"help=Input size ceiling in bytes"`
	Keep     []string `opts:"short=k,help=Selector regexes to always keep"`

	log *log.Logger
}

func (c *filterCmd) Run() error {
	keep := make([]*regexp.Regexp, 0, len(c.Keep))
	for _, k := range c.Keep {
		re, err := regexp.Compile(k)
		if err != nil {
			return errors.Wrapf(err, "invalid keep pattern %q", k)
		}
		keep = append(keep, re)
	}
	r := csspurge.Runner{
		BaseDir:  c.Base,
		MaxBytes: c.MaxBytes,
		Log:      c.log,
		Keep:     keep,
	}
	res, err := r.File(c.HTML, c.CSS, c.Out)
	if err != nil {
		if hint := csspurge.Hint(err); hint != "" {
			return errors.WithMessage(err, hint)
		}
		return err
	}
	c.log.Printf("Wrote %s (%d bytes): kept %d of %d rules, removed %d, %d at-rules, %d media queries\n",
		res.OutputPath, res.OutputBytes,
		res.Stats.KeptRules, res.Stats.TotalRules, res.Stats.RemovedRules,
		res.Stats.AtRules, res.Stats.MediaQueries)
	return nil
}

type mergeCmd struct {
	CSS          []string `opts:"name=css,short=c,help=Globs targeting CSS files in precedence order"`
	Out          string   `opts:"short=o,help=Path for the merged stylesheet"`
	KeepMediaPos bool     `opts:"help=Keep @media blocks at their source position instead of combining them"`
	MaxBytes     int64    `opts:"help=Per-input size ceiling in bytes"`

	log *log.Logger
}

func (c *mergeCmd) Run() error {
	var paths []string
	for _, glob := range c.CSS {
		matches, err := filepath.Glob(glob)
		if err != nil {
			return errors.WithStack(err)
		}
		paths = append(paths, matches...)
	}
	res, err := cssmerge.Files(paths, c.Out, &cssmerge.Options{
		CombineMedia: !c.KeepMediaPos,
		MaxBytes:     c.MaxBytes,
		Log:          c.log,
	})
	if err != nil {
		return err
	}
	if res.Warnings != nil {
		c.log.Printf("Warnings: %s\n", res.Warnings)
	}
	s := res.Stats
	c.log.Printf("Wrote %s (%d bytes): %d of %d rules, %d duplicates, %d font faces, %d keyframes, %d media queries combined, %.1f%% smaller in %s\n",
		res.OutputPath, res.OutputBytes,
		s.OutputRules, s.InputRules, s.DuplicateRulesRemoved,
		s.FontFacesDeduped, s.KeyframesDeduped, s.MediaQueriesCombined,
		s.ReductionPercent, s.Duration)
	return nil
}

type root struct{}

func main() {
	l := log.New(os.Stderr, ">> ", 0)
	opts.New(&root{}).
		Name("cssweld").
		AddCommand(opts.New(&filterCmd{log: l}).Name("filter")).
		AddCommand(opts.New(&mergeCmd{log: l}).Name("merge")).
		Parse().
		RunFatal()
}
