// Package csssafe neutralizes active-content injection vectors in CSS text.
// Source stylesheets may be attacker influenced, so generated output must
// never carry constructs that legacy or current engines would execute.
package csssafe

import "regexp"

const marker = "/* removed */"

var active = []*regexp.Regexp{
	regexp.MustCompile(`(?i)expression\s*\(`),
	regexp.MustCompile(`(?i)-moz-binding\s*:`),
	regexp.MustCompile(`(?i)behavior\s*:`),
	regexp.MustCompile(`(?i)url\(\s*["']?\s*javascript:`),
	regexp.MustCompile(`(?i)url\(\s*["']?\s*data:\s*text/html`),
	regexp.MustCompile(`(?i)@import\s+["']\s*javascript:`),
}

// Clean replaces every known active-content pattern with an inert comment
// marker. The result may no longer be the same declaration, but it is inert,
// which is the point.
func Clean(b []byte) []byte {
	for _, re := range active {
		b = re.ReplaceAll(b, []byte(marker))
	}
	return b
}
