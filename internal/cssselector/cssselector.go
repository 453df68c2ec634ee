// Package cssselector parses selectors for the purpose of deciding whether
// they may match anything in a document. It discards various bits of
// information not used by that decision, and isn't generically useful.
package cssselector

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Selector is a single compound selector, a number of which form a chain
// together.
type Selector struct {
	Tag           string
	ID            string
	Class         map[string]struct{}
	Attr          map[string]struct{}
	PseudoClass   []string
	PseudoElement []string
}

// IsZero returns true if this selector is a zero value. This is also true for
// '*', the universal selector.
func (s *Selector) IsZero() bool {
	return s == nil ||
		(s.Tag == "" &&
			s.ID == "" &&
			len(s.Class) == 0 &&
			len(s.Attr) == 0 &&
			len(s.PseudoClass) == 0 &&
			len(s.PseudoElement) == 0)
}

// Checkable returns true if the selector carries at least one component that
// can be verified against document facts (a tag, an id or a class).
// Attribute selectors and pseudos are statically unverifiable.
func (s *Selector) Checkable() bool {
	return s != nil && (s.Tag != "" && s.Tag != "*" || s.ID != "" || len(s.Class) != 0)
}

// Chain is a compound selector sequence, left to right. Combinators between
// compounds are dropped on purpose: matching is containment based and does
// not enforce descendant scoping.
type Chain []Selector

// Parse parses a single selector (one member of a selector list, no commas)
// into a Chain.
func Parse(selector io.Reader) (Chain, error) {
	in := parse.NewInput(selector)
	l := css.NewLexer(in)
	s := Selector{}
	chain := make(Chain, 0, 1)
outer:
	for {
		tt, data := l.Next()
		switch tt {
		default:
			return nil, errors.Errorf(
				"cssselector: unexpected token %s with data %q at offset %d",
				tt, data, in.Offset())
		case css.ErrorToken:
			err := l.Err()
			if err == io.EOF {
				if !s.IsZero() {
					chain = append(chain, s)
				}
				break outer
			}
			return nil, errors.WithStack(err)
		case css.HashToken:
			s.ID = string(bytes.ToLower(data[1:])) // drop leading #
		case css.ColonToken:
			tt, data := l.Next()
			switch tt {
			default:
				return nil, errors.Errorf(
					"cssselector: unexpected token %s with data %q at offset %d after colon",
					tt, data, in.Offset())
			case css.ColonToken:
				tt, data := l.Next()
				switch tt {
				default:
					return nil, errors.Errorf(
						"cssselector: unexpected token %s with data %q at offset %d after double colon",
						tt, data, in.Offset())
				case css.FunctionToken:
					if err := skipFunction(l, in); err != nil {
						return nil, err
					}
					s.PseudoElement = append(s.PseudoElement, fnName(data))
				case css.IdentToken:
					s.PseudoElement = append(s.PseudoElement, string(bytes.ToLower(data)))
				}
			case css.FunctionToken:
				// functional pseudo-class, e.g. :not(...) or :nth-child(...)
				if err := skipFunction(l, in); err != nil {
					return nil, err
				}
				s.PseudoClass = append(s.PseudoClass, fnName(data))
			case css.IdentToken:
				s.PseudoClass = append(s.PseudoClass, string(bytes.ToLower(data)))
			}
		case css.LeftBracketToken:
			tt, next := l.Next()
			for tt == css.WhitespaceToken {
				tt, next = l.Next()
			}
			if tt != css.IdentToken {
				return nil, errors.Errorf(
					"cssselector: unexpected token %s with %q followed by %q at offset %d while parsing attribute name",
					tt, data, next, in.Offset())
			}
			if s.Attr == nil {
				s.Attr = make(map[string]struct{})
			}
			s.Attr[string(bytes.ToLower(next))] = struct{}{}
			for tt, _ := l.Next(); tt != css.RightBracketToken; tt, _ = l.Next() {
				if tt == css.ErrorToken {
					return nil, errors.Errorf(
						"cssselector: unterminated attribute selector at offset %d", in.Offset())
				}
			}
		case css.DelimToken:
			if len(data) != 1 {
				return nil, errors.Errorf(
					"cssselector: unexpected token %s with data %q at offset %d while parsing delimiter",
					tt, data, in.Offset())
			}
			switch data[0] {
			default:
				return nil, errors.Errorf(
					"cssselector: unexpected token %s with data %q at offset %d while parsing delimiter",
					tt, data, in.Offset())
			case '*':
				continue
			case '.':
				tt, next := l.Next()
				if tt != css.IdentToken {
					return nil, errors.Errorf(
						"cssselector: unexpected token %s with %q followed by %q at offset %d while parsing class selector",
						tt, data, next, in.Offset())
				}
				if s.Class == nil {
					s.Class = make(map[string]struct{})
				}
				s.Class[string(bytes.ToLower(next))] = struct{}{}
			case '>', '+', '~':
				if !s.IsZero() {
					chain = append(chain, s)
					s = Selector{}
				}
			}
		case css.IdentToken:
			s.Tag = string(bytes.ToLower(data))
		case css.WhitespaceToken:
			if !s.IsZero() {
				chain = append(chain, s)
				s = Selector{}
			}
		}
	}
	// if nothing remained, we must have had a lone '*'
	// include the empty selector to indicate the universal selector.
	if len(chain) == 0 {
		chain = append(chain, s)
	}
	return chain, nil
}

// fnName returns the lowercased name of a function token, without the
// trailing open paren.
func fnName(data []byte) string {
	return string(bytes.ToLower(bytes.TrimSuffix(data, []byte("("))))
}

// skipFunction consumes tokens until the paren opened by a function token is
// balanced again.
func skipFunction(l *css.Lexer, in *parse.Input) error {
	depth := 1
	for depth > 0 {
		tt, _ := l.Next()
		switch tt {
		case css.ErrorToken:
			return errors.Errorf("cssselector: unterminated function at offset %d", in.Offset())
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		}
	}
	return nil
}
