// Package csstree parses CSS text into a tree of typed top-level nodes and
// generates text back from it. The generated text is deterministic for a
// given tree, which makes it usable as a deduplication key. Comments and
// insignificant whitespace are not preserved.
package csstree

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// AtKind discriminates the at-rules that get special treatment. Everything
// else is AtOther.
type AtKind int

const (
	AtOther AtKind = iota
	AtCharset
	AtImport
	AtNamespace
	AtFontFace
	AtKeyframes
	AtMedia
)

// Kind classifies an at-rule name, including vendor-prefixed keyframes
// variants like @-webkit-keyframes.
func Kind(name string) AtKind {
	switch n := strings.ToLower(name); {
	case n == "@charset":
		return AtCharset
	case n == "@import":
		return AtImport
	case n == "@namespace":
		return AtNamespace
	case n == "@font-face":
		return AtFontFace
	case n == "@keyframes":
		return AtKeyframes
	case strings.HasPrefix(n, "@-") && strings.HasSuffix(n, "-keyframes"):
		return AtKeyframes
	case n == "@media":
		return AtMedia
	}
	return AtOther
}

// Node is a piece of a stylesheet: *Rule, *AtRule or *Decl.
type Node interface {
	appendText(buf *bytes.Buffer)
}

// Decl is a single declaration, including custom properties.
type Decl struct {
	Prop  string
	Value string
}

func (d *Decl) appendText(buf *bytes.Buffer) {
	buf.WriteString(d.Prop)
	buf.WriteByte(':')
	buf.WriteString(d.Value)
	buf.WriteByte(';')
}

// Rule is a qualified rule: a selector list and its declaration block.
type Rule struct {
	Selectors []string
	Decls     []*Decl
}

func (r *Rule) appendText(buf *bytes.Buffer) {
	for i, s := range r.Selectors {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s)
	}
	buf.WriteByte('{')
	for _, d := range r.Decls {
		d.appendText(buf)
	}
	buf.WriteByte('}')
}

// Text generates the rule's canonical text, usable as a dedup key.
func (r *Rule) Text() string {
	var buf bytes.Buffer
	r.appendText(&buf)
	return buf.String()
}

// AtRule is an at-rule. Stmt marks block-less rules such as @import and
// @charset. Block rules carry their content in Body, in source order, as a
// mix of *Decl (@font-face), *Rule (@media, @keyframes) and nested *AtRule.
type AtRule struct {
	Name    string // includes the leading @, original case
	Prelude string
	Kind    AtKind
	Stmt    bool
	Body    []Node
}

func (a *AtRule) appendText(buf *bytes.Buffer) {
	buf.WriteString(a.Name)
	if a.Prelude != "" {
		buf.WriteByte(' ')
		buf.WriteString(a.Prelude)
	}
	if a.Stmt {
		buf.WriteByte(';')
		return
	}
	buf.WriteByte('{')
	for _, n := range a.Body {
		n.appendText(buf)
	}
	buf.WriteByte('}')
}

// Text generates the at-rule's canonical text.
func (a *AtRule) Text() string {
	var buf bytes.Buffer
	a.appendText(&buf)
	return buf.String()
}

// Decl returns the value of the named declaration in the at-rule's body, or
// "" if absent. Property names compare case-insensitively.
func (a *AtRule) Decl(prop string) string {
	for _, n := range a.Body {
		if d, ok := n.(*Decl); ok && strings.EqualFold(d.Prop, prop) {
			return d.Value
		}
	}
	return ""
}

// Sheet is a parsed stylesheet.
type Sheet struct {
	Nodes []Node
}

// Text generates the stylesheet text.
func (s *Sheet) Text() []byte {
	var buf bytes.Buffer
	for _, n := range s.Nodes {
		n.appendText(&buf)
	}
	return buf.Bytes()
}

// Walk visits every node in the sheet, depth first, recursing into at-rule
// bodies. The visit stops when fn returns false.
func (s *Sheet) Walk(fn func(Node) bool) {
	walk(s.Nodes, fn)
}

func walk(nodes []Node, fn func(Node) bool) bool {
	for _, n := range nodes {
		if !fn(n) {
			return false
		}
		if a, ok := n.(*AtRule); ok {
			if !walk(a.Body, fn) {
				return false
			}
		}
	}
	return true
}

// Mode selects the parse failure policy.
type Mode int

const (
	// Strict fails on the first parser error.
	Strict Mode = iota
	// Lenient keeps everything parsed before the first unrecoverable error,
	// and fails only when nothing at all could be recovered from non-blank
	// input.
	Lenient
)

// ParseError reports CSS that could not be parsed under the requested mode.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "csstree: unparseable stylesheet"
	}
	return "csstree: parse failed: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses CSS text into a Sheet.
func Parse(b []byte, mode Mode) (*Sheet, error) {
	p := css.NewParser(parse.NewInputBytes(b), false)
	sheet := &Sheet{}
	var pending []string
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			err := p.Err()
			if err != nil && err != io.EOF {
				if mode == Strict {
					return nil, &ParseError{Err: errors.WithStack(err)}
				}
				if len(sheet.Nodes) == 0 && len(bytes.TrimSpace(b)) > 0 {
					return nil, &ParseError{Err: errors.WithStack(err)}
				}
			}
			return sheet, nil
		case css.QualifiedRuleGrammar:
			pending = append(pending, tokenText(data, p.Values()))
		case css.BeginRulesetGrammar:
			pending = append(pending, tokenText(data, p.Values()))
			rule := &Rule{Selectors: pending}
			pending = nil
			parseDecls(p, rule)
			sheet.Nodes = append(sheet.Nodes, rule)
		case css.AtRuleGrammar:
			sheet.Nodes = append(sheet.Nodes, &AtRule{
				Name:    string(data),
				Prelude: tokenText(nil, p.Values()),
				Kind:    Kind(string(data)),
				Stmt:    true,
			})
		case css.BeginAtRuleGrammar:
			at := &AtRule{
				Name:    string(data),
				Prelude: tokenText(nil, p.Values()),
				Kind:    Kind(string(data)),
			}
			at.Body = parseBlock(p)
			sheet.Nodes = append(sheet.Nodes, at)
		case css.CommentGrammar, css.TokenGrammar:
			// dropped
		}
	}
}

// parseDecls consumes declarations until the ruleset closes.
func parseDecls(p *css.Parser, rule *Rule) {
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			rule.Decls = append(rule.Decls, &Decl{
				Prop:  string(data),
				Value: tokenText(nil, p.Values()),
			})
		}
	}
}

// parseBlock consumes the body of a block at-rule until it closes, keeping
// declarations, nested rulesets and nested at-rules in source order.
func parseBlock(p *css.Parser) []Node {
	var body []Node
	var pending []string
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return body
		case css.QualifiedRuleGrammar:
			pending = append(pending, tokenText(data, p.Values()))
		case css.BeginRulesetGrammar:
			pending = append(pending, tokenText(data, p.Values()))
			rule := &Rule{Selectors: pending}
			pending = nil
			parseDecls(p, rule)
			body = append(body, rule)
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			body = append(body, &Decl{
				Prop:  string(data),
				Value: tokenText(nil, p.Values()),
			})
		case css.AtRuleGrammar:
			body = append(body, &AtRule{
				Name:    string(data),
				Prelude: tokenText(nil, p.Values()),
				Kind:    Kind(string(data)),
				Stmt:    true,
			})
		case css.BeginAtRuleGrammar:
			at := &AtRule{
				Name:    string(data),
				Prelude: tokenText(nil, p.Values()),
				Kind:    Kind(string(data)),
			}
			at.Body = parseBlock(p)
			body = append(body, at)
		}
	}
}

// tokenText renders token data as text with whitespace runs collapsed to a
// single space.
func tokenText(data []byte, values []css.Token) string {
	var buf bytes.Buffer
	buf.Write(data)
	space := false
	for _, v := range values {
		if v.TokenType == css.WhitespaceToken {
			space = buf.Len() > 0
			continue
		}
		if space {
			buf.WriteByte(' ')
			space = false
		}
		buf.Write(v.Data)
	}
	return strings.TrimSpace(buf.String())
}
