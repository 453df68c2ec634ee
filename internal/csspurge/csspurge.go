// Package csspurge purges unused CSS: rules whose selectors cannot match
// anything in a given HTML document are removed. The pass is deletion only,
// it never reorders what it keeps.
package csspurge

import (
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/daaku/cssweld/internal/csssafe"
	"github.com/daaku/cssweld/internal/cssselector"
	"github.com/daaku/cssweld/internal/csstree"
	"github.com/daaku/cssweld/internal/htmlusage"
)

var discard = log.New(io.Discard, "", 0)

// alwaysKeep selectors bypass matching unconditionally. Removing any of
// these risks page-wide breakage for no meaningful size win.
var alwaysKeep = map[string]struct{}{
	"html":  {},
	"body":  {},
	"*":     {},
	":root": {},
}

// Stats describes one purge pass over a stylesheet.
type Stats struct {
	TotalRules   int
	KeptRules    int
	RemovedRules int
	AtRules      int
	MediaQueries int
}

// Options adjust a purge pass.
type Options struct {
	// Keep holds extra selector patterns that are retained without
	// matching, the same way the built-in always-keep set is.
	Keep []*regexp.Regexp
}

// Purge parses the stylesheet, drops top-level rules whose selector list
// cannot match the document described by info, and returns the generated,
// sanitized text. At-rules are never dropped: font faces, keyframes,
// imports, charsets and namespaces survive verbatim, and @media blocks pass
// through without recursive filtering of their inner rules.
//
// Parsing is attempted strictly first and retried leniently; only CSS that
// fails both ways is an error.
func Purge(info *htmlusage.Info, l *log.Logger, cssText []byte, o *Options) ([]byte, Stats, error) {
	if l == nil {
		l = discard
	}
	var stats Stats
	sheet, err := csstree.Parse(cssText, csstree.Strict)
	if err != nil {
		sheet, err = csstree.Parse(cssText, csstree.Lenient)
		if err != nil {
			return nil, stats, err
		}
	}

	out := &csstree.Sheet{Nodes: make([]csstree.Node, 0, len(sheet.Nodes))}
	for _, n := range sheet.Nodes {
		switch n := n.(type) {
		case *csstree.Rule:
			stats.TotalRules++
			if keepRule(info, n, o) {
				stats.KeptRules++
				out.Nodes = append(out.Nodes, n)
			} else {
				stats.RemovedRules++
				l.Printf("Excluding rule: %s\n", strings.Join(n.Selectors, ","))
			}
		case *csstree.AtRule:
			stats.AtRules++
			if n.Kind == csstree.AtMedia {
				stats.MediaQueries++
			}
			out.Nodes = append(out.Nodes, n)
		default:
			out.Nodes = append(out.Nodes, n)
		}
	}

	return csssafe.Clean(out.Text()), stats, nil
}

// keepRule decides whether any member of the rule's selector list may match.
func keepRule(info *htmlusage.Info, r *csstree.Rule, o *Options) bool {
	for _, sel := range r.Selectors {
		if matchAlwaysKeep(sel) || matchKeepPatterns(sel, o) {
			return true
		}
		chain, err := cssselector.Parse(strings.NewReader(sel))
		if err != nil {
			// unparseable selector: statically unverifiable, keep it
			return true
		}
		if info.Includes(chain) {
			return true
		}
	}
	return false
}

func matchAlwaysKeep(sel string) bool {
	_, found := alwaysKeep[strings.ToLower(strings.TrimSpace(sel))]
	return found
}

func matchKeepPatterns(sel string, o *Options) bool {
	if o == nil {
		return false
	}
	for _, re := range o.Keep {
		if re.MatchString(sel) {
			return true
		}
	}
	return false
}
