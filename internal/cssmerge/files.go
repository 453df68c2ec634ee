package cssmerge

import (
	"github.com/daaku/cssweld/internal/guard"
	"github.com/facebookgo/errgroup"
)

// FileResult is a successful file-level merge.
type FileResult struct {
	OutputPath  string
	OutputBytes int
	Stats       Stats
	Warnings    error
}

// Files merges the named stylesheets, in order, into outPath. Unreadable
// files are skipped with a warning; the merge fails only when no input could
// be read at all.
func Files(paths []string, outPath string, o *Options) (*FileResult, error) {
	if o == nil {
		o = &Options{}
	}
	l := o.Log
	if l == nil {
		l = discard
	}
	var warnings []error
	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		b, err := guard.ReadFile(p, o.MaxBytes)
		if err != nil {
			l.Printf("Skipping %s: %s\n", p, err)
			warnings = append(warnings, err)
			continue
		}
		inputs = append(inputs, Input{Name: p, Text: b})
	}
	res, err := Merge(inputs, o)
	if err != nil {
		if len(warnings) > 0 {
			return nil, errgroup.NewMultiError(append(warnings, err)...)
		}
		return nil, err
	}
	if err := guard.WriteFile(outPath, res.CSS); err != nil {
		return nil, err
	}
	if res.Warnings != nil {
		warnings = append(warnings, res.Warnings)
	}
	return &FileResult{
		OutputPath:  outPath,
		OutputBytes: len(res.CSS),
		Stats:       res.Stats,
		Warnings:    errgroup.NewMultiError(warnings...),
	}, nil
}
