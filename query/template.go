package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Rule order is priority: an escaped colon beats a cast, a cast beats a
// placeholder, and anything unmatched falls through one character at a time.
var templateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Escape", Pattern: `\\:\w+`},
	{Name: "Cast", Pattern: `::`},
	{Name: "Param", Pattern: `:[A-Za-z_]\w*`},
	{Name: "Text", Pattern: `[^:\\]+`},
	{Name: "Char", Pattern: `[\s\S]`},
})

var (
	escapeToken = templateLexer.Symbols()["Escape"]
	paramToken  = templateLexer.Symbols()["Param"]
)

// Segment is a run of literal text or a single placeholder.
type Segment struct {
	// Text is the literal text, or the placeholder as written (":name").
	Text string
	// Param is the placeholder name. Empty for literal text.
	Param string
}

// IsParam reports whether s is a placeholder.
func (s Segment) IsParam() bool { return s.Param != "" }

// Template is a parsed SQL template.
type Template []Segment

// Parse splits tmpl into literal text and ":name" placeholders. "\:name"
// yields the literal ":name" and "::" is left alone. Quotes and comments are
// not special: a placeholder inside a string literal is still a placeholder.
func Parse(tmpl string) (Template, error) {
	lex, err := templateLexer.LexString("", tmpl)
	if err != nil {
		return nil, fmt.Errorf("query: lex template: %w", err)
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("query: lex template: %w", err)
	}

	var (
		out  Template
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			out = append(out, Segment{Text: text.String()})
			text.Reset()
		}
	}
	for _, tok := range tokens {
		switch {
		case tok.EOF():
		case tok.Type == paramToken:
			flush()
			out = append(out, Segment{Text: tok.Value, Param: tok.Value[1:]})
		case tok.Type == escapeToken:
			text.WriteString(tok.Value[1:])
		default:
			text.WriteString(tok.Value)
		}
	}
	flush()
	return out, nil
}

// Params returns the placeholder names in first-appearance order, each once.
func (t Template) Params() []string {
	seen := map[string]bool{}
	var names []string
	for _, seg := range t {
		if seg.IsParam() && !seen[seg.Param] {
			seen[seg.Param] = true
			names = append(names, seg.Param)
		}
	}
	return names
}
