package cssmerge

import (
	"strings"
	"testing"

	"github.com/daaku/ensure"
)

func inputs(texts ...string) []Input {
	in := make([]Input, len(texts))
	for i, t := range texts {
		in[i] = Input{Name: "in" + string(rune('0'+i)) + ".css", Text: []byte(t)}
	}
	return in
}

func merge(t *testing.T, o *Options, texts ...string) *Result {
	t.Helper()
	res, err := Merge(inputs(texts...), o)
	ensure.Nil(t, err)
	return res
}

func TestExactDedup(t *testing.T) {
	res := merge(t, nil, `.a{color:red}`, `.a{color:red}`)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), ".a{"), 1)
	ensure.DeepEqual(t, res.Stats.DuplicateRulesRemoved, 1)
	ensure.DeepEqual(t, res.Stats.InputRules, 2)
	ensure.DeepEqual(t, res.Stats.OutputRules, 1)
}

func TestNonDedup(t *testing.T) {
	// different declarations are not duplicates; merge is not a cascade
	// resolver
	res := merge(t, nil, `.a{color:red}`, `.a{color:blue}`)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), ".a{"), 2)
	ensure.DeepEqual(t, res.Stats.DuplicateRulesRemoved, 0)
}

func TestFirstOccurrenceWins(t *testing.T) {
	res := merge(t, nil, `.a{color:red}.b{x:y}`, `.b{x:y}.a{color:red}`)
	css := string(res.CSS)
	ensure.True(t, strings.Index(css, ".a{") < strings.Index(css, ".b{"))
	ensure.DeepEqual(t, res.Stats.DuplicateRulesRemoved, 2)
}

func TestFontFaceIdentityKey(t *testing.T) {
	// same family+src but different font-weight still dedups to one
	res := merge(t, nil,
		`@font-face{font-family:'X';src:url(x.woff);font-weight:400}`,
		`@font-face{font-family:'X';src:url(x.woff);font-weight:700}`,
	)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), "@font-face"), 1)
	ensure.DeepEqual(t, res.Stats.FontFacesDeduped, 1)
	ensure.True(t, strings.Contains(string(res.CSS), "font-weight:400"))
}

func TestFontFaceDifferentSrcKept(t *testing.T) {
	res := merge(t, nil,
		`@font-face{font-family:'X';src:url(x.woff)}`,
		`@font-face{font-family:'X';src:url(x2.woff)}`,
	)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), "@font-face"), 2)
	ensure.DeepEqual(t, res.Stats.FontFacesDeduped, 0)
}

func TestKeyframesDedupByName(t *testing.T) {
	res := merge(t, nil,
		`@keyframes spin{from{opacity:0}}`,
		`@keyframes spin{to{opacity:1}}`,
	)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), "@keyframes"), 1)
	ensure.DeepEqual(t, res.Stats.KeyframesDeduped, 1)
	// first wins
	ensure.True(t, strings.Contains(string(res.CSS), "opacity:0"))
	ensure.False(t, strings.Contains(string(res.CSS), "opacity:1"))
}

func TestKeyframesCaseAndVendorDistinct(t *testing.T) {
	res := merge(t, nil,
		`@keyframes spin{from{opacity:0}}`,
		`@keyframes Spin{from{opacity:0}}`,
		`@-webkit-keyframes spin{from{opacity:0}}`,
	)
	ensure.DeepEqual(t, res.Stats.KeyframesDeduped, 0)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), "keyframes"), 3)
}

func TestCharsetFirstOnly(t *testing.T) {
	res := merge(t, nil,
		`@charset "utf-8";.a{x:y}`,
		`@charset "iso-8859-1";.b{x:y}`,
	)
	css := string(res.CSS)
	ensure.DeepEqual(t, strings.Count(css, "@charset"), 1)
	ensure.True(t, strings.HasPrefix(css, `@charset "utf-8";`))
}

func TestImportsHoisted(t *testing.T) {
	res := merge(t, nil,
		`.a{x:y}@import url(a.css);`,
		`@charset "utf-8";@import url(b.css);.b{x:y}`,
	)
	css := string(res.CSS)
	// charset first, then every import, then everything else
	ensure.True(t, strings.HasPrefix(css, `@charset "utf-8";@import url(a.css);@import url(b.css);`))
}

func TestMediaCombination(t *testing.T) {
	res := merge(t, &Options{CombineMedia: true},
		`@media (min-width:768px){.a{color:red}}.x{x:y}`,
		`@media (min-width:768px){.b{color:blue}}`,
	)
	css := string(res.CSS)
	ensure.DeepEqual(t, res.Stats.MediaQueriesCombined, 1)
	ensure.DeepEqual(t, strings.Count(css, "@media"), 1)
	ensure.True(t, strings.Contains(css, ".a{color:red}"))
	ensure.True(t, strings.Contains(css, ".b{color:blue}"))
	// combined blocks land at the very end of the sheet
	ensure.True(t, strings.Index(css, ".x{") < strings.Index(css, "@media"))
}

func TestMediaCombinationInnerDedup(t *testing.T) {
	res := merge(t, &Options{CombineMedia: true},
		`@media (min-width:768px){.a{color:red}}`,
		`@media (min-width:768px){.a{color:red}.b{x:y}}`,
	)
	css := string(res.CSS)
	ensure.DeepEqual(t, strings.Count(css, ".a{color:red}"), 1)
	ensure.True(t, strings.Contains(css, ".b{x:y}"))
	ensure.DeepEqual(t, res.Stats.DuplicateRulesRemoved, 1)
}

func TestMediaVerbatimWhenDisabled(t *testing.T) {
	res := merge(t, nil,
		`@media s{.a{x:y}}.later{x:y}`,
		`@media s{.b{x:y}}`,
	)
	css := string(res.CSS)
	ensure.DeepEqual(t, res.Stats.MediaQueriesCombined, 0)
	ensure.DeepEqual(t, strings.Count(css, "@media"), 2)
	// blocks stay at their encounter positions
	ensure.True(t, strings.Index(css, "@media") < strings.Index(css, ".later{"))
}

func TestOtherAtRulesNeverDeduped(t *testing.T) {
	res := merge(t, nil,
		`@supports (display:grid){.g{display:grid}}`,
		`@supports (display:grid){.g{display:grid}}`,
	)
	ensure.DeepEqual(t, strings.Count(string(res.CSS), "@supports"), 2)
}

func TestUnparseableInputSkipped(t *testing.T) {
	res, err := Merge(inputs("}}}{{{", `.a{color:red}`), nil)
	ensure.Nil(t, err)
	ensure.NotNil(t, res.Warnings)
	ensure.True(t, strings.Contains(string(res.CSS), ".a{color:red}"))
}

func TestAllInputsUnusableFails(t *testing.T) {
	_, err := Merge(inputs("}}}{{{"), nil)
	ensure.NotNil(t, err)
}

func TestNoInputsFails(t *testing.T) {
	_, err := Merge(nil, nil)
	ensure.NotNil(t, err)
}

func TestOversizeInputSkipped(t *testing.T) {
	big := Input{Name: "big.css", Text: []byte(strings.Repeat("a", 100))}
	ok := Input{Name: "ok.css", Text: []byte(`.a{color:red}`)}
	res, err := Merge([]Input{big, ok}, &Options{MaxBytes: 50})
	ensure.Nil(t, err)
	ensure.NotNil(t, res.Warnings)
	ensure.True(t, strings.Contains(string(res.CSS), ".a{color:red}"))
}

func TestSanitized(t *testing.T) {
	res := merge(t, nil, `.a{width:expression(alert(1))}`)
	ensure.False(t, strings.Contains(strings.ToLower(string(res.CSS)), "expression("))
}

func TestStatsAccounting(t *testing.T) {
	res := merge(t, &Options{CombineMedia: true},
		`.a{x:y}.a{x:y}@media s{.m{x:y}}`,
		`@media s{.m{x:y}}`,
	)
	s := res.Stats
	ensure.DeepEqual(t, s.InputRules, 4)
	ensure.DeepEqual(t, s.OutputRules, 2)
	ensure.DeepEqual(t, s.DuplicateRulesRemoved, 2)
	ensure.DeepEqual(t, s.MediaQueriesCombined, 1)
	ensure.True(t, s.ReductionPercent > 0)
	ensure.True(t, s.Duration >= 0)
}
