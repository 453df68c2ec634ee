// Package htmlusage extracts coarse structural facts from HTML documents:
// the tag names, ids, classes and attribute names that occur anywhere in the
// document. The facts deliberately over-approximate: a fact being present
// means a selector referencing it may match, never that it must. Extraction
// is lexical and never fails, even on badly malformed HTML.
package htmlusage

import (
	"bytes"

	"github.com/daaku/cssweld/internal/cssselector"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"
)

var (
	idB    = []byte("id")
	classB = []byte("class")
)

// commonAttrs are attribute names that are included whenever their literal
// text appears anywhere in the document. This is a document-wide presence
// test, not a per-element one: cheap, and it only ever errs towards keeping
// more CSS.
var commonAttrs = []string{
	"href", "src", "type", "name", "value", "disabled", "checked",
	"selected", "readonly", "required", "placeholder", "role",
	"aria-hidden", "aria-label", "aria-expanded", "target", "rel",
}

// Info holds the facts extracted from one or more HTML documents.
type Info struct {
	Tags    map[string]struct{}
	IDs     map[string]struct{}
	Classes map[string]struct{}
	Attrs   map[string]struct{}
}

// New returns an empty Info.
func New() *Info {
	return &Info{
		Tags:    make(map[string]struct{}),
		IDs:     make(map[string]struct{}),
		Classes: make(map[string]struct{}),
		Attrs:   make(map[string]struct{}),
	}
}

// Merge folds the facts of another document into this one.
func (i *Info) Merge(other *Info) {
	for k := range other.Tags {
		i.Tags[k] = struct{}{}
	}
	for k := range other.IDs {
		i.IDs[k] = struct{}{}
	}
	for k := range other.Classes {
		i.Classes[k] = struct{}{}
	}
	for k := range other.Attrs {
		i.Attrs[k] = struct{}{}
	}
}

// Extract scans an HTML document and returns its facts. It always returns a
// usable Info: lexer trouble ends the scan with whatever was collected so
// far rather than failing.
func Extract(doc []byte) *Info {
	info := New()
	l := html.NewLexer(parse.NewInputBytes(doc))
docloop:
	for {
		tt, _ := l.Next()
		switch tt {
		case html.ErrorToken:
			// EOF or a lexing error: either way we keep what we have.
			break docloop
		case html.StartTagToken:
			info.Tags[string(bytes.ToLower(l.Text()))] = struct{}{}
		tagloop:
			for {
				ttAttr, _ := l.Next()
				switch ttAttr {
				case html.AttributeToken:
					name := bytes.ToLower(l.Text())
					val := bytes.Trim(l.AttrVal(), `"'`)
					if bytes.Equal(name, idB) {
						if id := bytes.TrimSpace(val); len(id) > 0 {
							info.IDs[string(bytes.ToLower(id))] = struct{}{}
						}
					} else if bytes.Equal(name, classB) {
						for _, c := range bytes.Fields(val) {
							info.Classes[string(bytes.ToLower(c))] = struct{}{}
						}
					} else {
						info.Attrs[string(name)] = struct{}{}
					}
				case html.StartTagCloseToken, html.StartTagVoidToken:
					break tagloop
				default:
					// Anything else means the tag was cut short; move on.
					break tagloop
				}
			}
		}
	}
	for _, attr := range commonAttrs {
		if bytes.Contains(doc, []byte(attr)) {
			info.Attrs[attr] = struct{}{}
		}
	}
	return info
}

func (i *Info) hasTag(tag string) bool {
	if tag == "" || tag == "*" {
		return true
	}
	_, found := i.Tags[tag]
	return found
}

func (i *Info) hasID(id string) bool {
	if id == "" {
		return true
	}
	_, found := i.IDs[id]
	return found
}

func (i *Info) hasClasses(classes map[string]struct{}) bool {
	for c := range classes {
		if _, found := i.Classes[c]; !found {
			return false
		}
	}
	return true
}

// Includes reports whether a selector chain may match something in the
// document. Every checkable component of every compound must be present in
// the facts; attribute selectors and pseudos are never checkable and always
// pass, as does a chain with no checkable components at all. Combinator
// scoping is not enforced: this over-approximates on purpose, and must not
// be tightened without revisiting the never-false-negative guarantee.
func (i *Info) Includes(chain cssselector.Chain) bool {
	for _, s := range chain {
		if !s.Checkable() {
			continue
		}
		if !i.hasTag(s.Tag) || !i.hasID(s.ID) || !i.hasClasses(s.Class) {
			return false
		}
	}
	return true
}
