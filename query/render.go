package query

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/bcomnes/sqly/dialect"
)

// MissingValueError is returned when a placeholder has no value.
type MissingValueError struct {
	Name string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("query: no value for placeholder :%s", e.Name)
}

// Arg is one rendered argument. Name is the placeholder it came from.
type Arg struct {
	Name  string
	Value Value
}

// Result is a rendered query. The Nth placeholder slot in SQL corresponds to
// the Nth entry of Args.
type Result struct {
	SQL   string
	Args  []Arg
	Style dialect.Style
}

// Values returns the argument values in order.
func (r Result) Values() []Value {
	out := make([]Value, len(r.Args))
	for i, a := range r.Args {
		out[i] = a.Value
	}
	return out
}

// DriverArgs returns the arguments in the shape database/sql expects for the
// style: sql.NamedArg for keyed styles, plain values otherwise.
func (r Result) DriverArgs() []any {
	out := make([]any, len(r.Args))
	for i, a := range r.Args {
		if r.Style.Keyed() {
			out[i] = sql.Named(a.Name, a.Value.Any())
		} else {
			out[i] = a.Value.Any()
		}
	}
	return out
}

// Map returns the arguments keyed by name.
func (r Result) Map() map[string]any {
	out := make(map[string]any, len(r.Args))
	for _, a := range r.Args {
		out[a.Name] = a.Value.Any()
	}
	return out
}

// Render renders tmpl for d. Values not referenced by the template are
// ignored.
func Render(tmpl string, values *Values, d dialect.Dialect) (Result, error) {
	return RenderStyle(tmpl, values, d.Style)
}

// RenderStyle renders tmpl with the given placeholder style.
func RenderStyle(tmpl string, values *Values, style dialect.Style) (Result, error) {
	t, err := Parse(tmpl)
	if err != nil {
		return Result{}, err
	}
	return t.Render(values, style)
}

// Render substitutes placeholders in t using style.
func (t Template) Render(values *Values, style dialect.Style) (Result, error) {
	res := Result{Style: style}
	slots := map[string]int{}

	var b strings.Builder
	for _, seg := range t {
		if !seg.IsParam() {
			b.WriteString(seg.Text)
			continue
		}
		v, ok := values.Get(seg.Param)
		if !ok {
			return Result{}, &MissingValueError{Name: seg.Param}
		}

		n, seen := slots[seg.Param]
		if !seen || style.PerOccurrence() {
			res.Args = append(res.Args, Arg{Name: seg.Param, Value: v})
			n = len(res.Args)
			slots[seg.Param] = n
		}
		b.WriteString(style.Placeholder(n, seg.Param))
	}
	res.SQL = b.String()
	return res, nil
}
