// Package cssmerge combines multiple stylesheets into one deduplicated
// sheet. Inputs are ordered: the first occurrence of a duplicate wins and
// later ones are dropped. Merge is not a cascade resolver; inputs are
// assumed non-conflicting, typically because they were purged per page
// first.
package cssmerge

import (
	"io"
	"log"
	"time"

	"github.com/daaku/cssweld/internal/csssafe"
	"github.com/daaku/cssweld/internal/csstree"
	"github.com/daaku/cssweld/internal/guard"
	"github.com/facebookgo/errgroup"
	"github.com/pkg/errors"
)

var discard = log.New(io.Discard, "", 0)

// Stats describes one merge.
type Stats struct {
	InputRules            int
	OutputRules           int
	DuplicateRulesRemoved int
	FontFacesDeduped      int
	KeyframesDeduped      int
	MediaQueriesCombined  int
	ReductionPercent      float64
	Duration              time.Duration
}

// Options adjust a merge.
type Options struct {
	// CombineMedia buckets @media blocks by their condition text across all
	// inputs, deduplicates inner rules within a bucket, and emits the
	// combined blocks at the very end of the sheet. When false every block
	// stays verbatim at its encounter position.
	CombineMedia bool
	// MaxBytes is the per-input ceiling; inputs above it are skipped with a
	// warning. 0 means the 10MB default.
	MaxBytes int64
	Log      *log.Logger
}

// Input is one stylesheet to merge, with a label for warnings.
type Input struct {
	Name string
	Text []byte
}

// Result is a successful merge. Warnings aggregates per-input problems that
// were skipped over; it is nil when every input was merged cleanly.
type Result struct {
	CSS      []byte
	Stats    Stats
	Warnings error
}

// merger accumulates classified nodes across inputs.
type merger struct {
	opt *Options
	log *log.Logger

	charset *csstree.AtRule
	imports []csstree.Node
	body    []csstree.Node

	seenRules     map[string]struct{}
	seenFontFaces map[string]struct{}
	seenKeyframes map[string]struct{}

	mediaOrder   []string
	mediaBuckets map[string]*mediaBucket

	stats Stats
}

type mediaBucket struct {
	at   *csstree.AtRule
	seen map[string]struct{}
}

// Merge combines the inputs in order. Unparseable inputs are skipped with a
// warning; the merge fails only when zero inputs are usable.
func Merge(inputs []Input, o *Options) (*Result, error) {
	start := time.Now()
	if o == nil {
		o = &Options{}
	}
	l := o.Log
	if l == nil {
		l = discard
	}

	m := &merger{
		opt:           o,
		log:           l,
		seenRules:     make(map[string]struct{}),
		seenFontFaces: make(map[string]struct{}),
		seenKeyframes: make(map[string]struct{}),
		mediaBuckets:  make(map[string]*mediaBucket),
	}

	var warnings []error
	merged := 0
	inputBytes := 0
	for _, in := range inputs {
		if err := guard.CheckSize(in.Name, len(in.Text), o.MaxBytes); err != nil {
			l.Printf("Skipping %s: %s\n", in.Name, err)
			warnings = append(warnings, err)
			continue
		}
		sheet, err := csstree.Parse(in.Text, csstree.Lenient)
		if err != nil {
			l.Printf("Skipping %s: %s\n", in.Name, err)
			warnings = append(warnings, errors.Wrapf(err, "parsing %q", in.Name))
			continue
		}
		inputBytes += len(in.Text)
		m.add(sheet)
		merged++
	}
	if merged == 0 {
		if len(warnings) == 0 {
			return nil, errors.New("cssmerge: no inputs")
		}
		return nil, errors.Wrapf(
			errgroup.NewMultiError(warnings...),
			"cssmerge: no usable inputs among %d", len(inputs))
	}

	out := m.assemble()
	text := csssafe.Clean(out.Text())

	m.stats.OutputRules = countRules(out)
	if inputBytes > 0 {
		m.stats.ReductionPercent = float64(inputBytes-len(text)) * 100 / float64(inputBytes)
	}
	m.stats.Duration = time.Since(start)

	return &Result{
		CSS:      text,
		Stats:    m.stats,
		Warnings: errgroup.NewMultiError(warnings...),
	}, nil
}

// add classifies every top-level node of one parsed input.
func (m *merger) add(sheet *csstree.Sheet) {
	m.stats.InputRules += countRules(sheet)
	for _, n := range sheet.Nodes {
		switch n := n.(type) {
		case *csstree.Rule:
			m.addRule(n)
		case *csstree.AtRule:
			m.addAtRule(n)
		default:
			m.body = append(m.body, n)
		}
	}
}

func (m *merger) addRule(r *csstree.Rule) {
	key := r.Text()
	if _, dup := m.seenRules[key]; dup {
		m.stats.DuplicateRulesRemoved++
		return
	}
	m.seenRules[key] = struct{}{}
	m.body = append(m.body, r)
}

func (m *merger) addAtRule(a *csstree.AtRule) {
	switch a.Kind {
	case csstree.AtCharset:
		// only the first charset across all inputs survives
		if m.charset == nil {
			m.charset = a
		}
	case csstree.AtImport:
		m.imports = append(m.imports, a)
	case csstree.AtFontFace:
		m.addFontFace(a)
	case csstree.AtKeyframes:
		m.addKeyframes(a)
	case csstree.AtMedia:
		m.addMedia(a)
	case csstree.AtNamespace, csstree.AtOther:
		// @supports, @page and friends are kept verbatim, never deduped
		m.body = append(m.body, a)
	}
}

// addFontFace dedups on the (font-family, src) pair only. Other
// declarations, font-weight included, are irrelevant to the identity of a
// face.
func (m *merger) addFontFace(a *csstree.AtRule) {
	family := unquote(a.Decl("font-family"))
	src := a.Decl("src")
	key := family + "\x00" + src
	if _, dup := m.seenFontFaces[key]; dup {
		m.stats.FontFacesDeduped++
		m.log.Printf("Dropping duplicate @font-face: %s\n", family)
		return
	}
	m.seenFontFaces[key] = struct{}{}
	m.body = append(m.body, a)
}

// addKeyframes dedups on the animation name, case sensitively, with
// vendor-prefixed at-rule variants kept distinct.
func (m *merger) addKeyframes(a *csstree.AtRule) {
	key := a.Name + " " + a.Prelude
	if _, dup := m.seenKeyframes[key]; dup {
		m.stats.KeyframesDeduped++
		m.log.Printf("Dropping duplicate %s\n", key)
		return
	}
	m.seenKeyframes[key] = struct{}{}
	m.body = append(m.body, a)
}

func (m *merger) addMedia(a *csstree.AtRule) {
	if !m.opt.CombineMedia {
		m.body = append(m.body, a)
		return
	}
	bucket, found := m.mediaBuckets[a.Prelude]
	if !found {
		bucket = &mediaBucket{
			at:   &csstree.AtRule{Name: a.Name, Prelude: a.Prelude, Kind: a.Kind},
			seen: make(map[string]struct{}),
		}
		m.mediaBuckets[a.Prelude] = bucket
		m.mediaOrder = append(m.mediaOrder, a.Prelude)
	} else {
		m.stats.MediaQueriesCombined++
	}
	for _, inner := range a.Body {
		if r, ok := inner.(*csstree.Rule); ok {
			key := r.Text()
			if _, dup := bucket.seen[key]; dup {
				m.stats.DuplicateRulesRemoved++
				continue
			}
			bucket.seen[key] = struct{}{}
		}
		bucket.at.Body = append(bucket.at.Body, inner)
	}
}

// assemble emits the fixed output order: charset, imports, everything else
// in encounter order, and combined media blocks at the very end. The
// relocation of combined media blocks is a deliberate, documented ordering
// deviation; do not "fix" it back to source order.
func (m *merger) assemble() *csstree.Sheet {
	out := &csstree.Sheet{}
	if m.charset != nil {
		out.Nodes = append(out.Nodes, m.charset)
	}
	out.Nodes = append(out.Nodes, m.imports...)
	out.Nodes = append(out.Nodes, m.body...)
	for _, cond := range m.mediaOrder {
		out.Nodes = append(out.Nodes, m.mediaBuckets[cond].at)
	}
	return out
}

func countRules(s *csstree.Sheet) int {
	n := 0
	s.Walk(func(node csstree.Node) bool {
		if _, ok := node.(*csstree.Rule); ok {
			n++
		}
		return true
	})
	return n
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
