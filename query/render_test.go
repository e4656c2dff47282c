package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/sqly/dialect"
)

func values(t *testing.T, m map[string]any) *Values {
	t.Helper()
	vs, err := FromMap(m)
	require.NoError(t, err)
	return vs
}

// TestRenderDialects checks the SQL and argument list produced for each
// dialect from one template.
func TestRenderDialects(t *testing.T) {
	tmpl := "SELECT * FROM t WHERE a = :a AND b = :b OR a > :a"
	vs := values(t, map[string]any{"a": 1, "b": "x", "unused": true})

	tests := []struct {
		dialect string
		sql     string
		args    []string
	}{
		{"postgres", "SELECT * FROM t WHERE a = $1 AND b = $2 OR a > $1", []string{"a", "b"}},
		{"sqlite", "SELECT * FROM t WHERE a = ? AND b = ? OR a > ?", []string{"a", "b", "a"}},
		{"mysql", "SELECT * FROM t WHERE a = %(a)s AND b = %(b)s OR a > %(a)s", []string{"a", "b"}},
		{"sqlalchemy", tmpl, []string{"a", "b"}},
		{"embedded", tmpl, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			res, err := Render(tmpl, vs, dialect.MustResolve(tt.dialect))
			require.NoError(t, err)
			assert.Equal(t, tt.sql, res.SQL)

			var names []string
			for _, a := range res.Args {
				names = append(names, a.Name)
			}
			assert.Equal(t, tt.args, names)
		})
	}
}

// TestRenderRepeatedName verifies that a repeated name reuses its postgres slot.
func TestRenderRepeatedName(t *testing.T) {
	res, err := Render(":name = :name", values(t, map[string]any{"name": "x"}), dialect.MustResolve("postgres"))
	require.NoError(t, err)
	assert.Equal(t, "$1 = $1", res.SQL)
	require.Len(t, res.Args, 1)
	assert.Equal(t, Text("x"), res.Args[0].Value)
}

// TestRenderNoPlaceholders verifies that foreign sigils pass through untouched.
func TestRenderNoPlaceholders(t *testing.T) {
	for _, tmpl := range []string{"?", "SELECT $1, ?", "SELECT 1", ""} {
		res, err := Render(tmpl, nil, dialect.MustResolve("sqlite"))
		require.NoError(t, err)
		assert.Equal(t, tmpl, res.SQL)
		assert.Empty(t, res.Args)
	}
}

// TestRenderLiterals covers text that looks like a placeholder but is not one.
func TestRenderLiterals(t *testing.T) {
	pg := dialect.MustResolve("postgres")
	vs := values(t, map[string]any{"id": 3})

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"cast", "SELECT :id::text", "SELECT $1::text"},
		{"escape", `SELECT '{}'::jsonb, \:id, :id`, "SELECT '{}'::jsonb, :id, $1"},
		{"quoted", "SELECT ':id', 'it''s :id', :id", "SELECT '$1', 'it''s $1', $1"},
		{"escaped in quotes", `SELECT '\:id', :id`, "SELECT ':id', $1"},
		{"digits", "SELECT '12:30', 12:30, :id", "SELECT '12:30', 12:30, $1"},
		{"lone colon", "a : b :id", "a : b $1"},
		{"unterminated quote", "it's :id", "it's $1"},
		{"backslash", `a \ b :id`, `a \ b $1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Render(tt.tmpl, vs, pg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SQL)
		})
	}
}

// TestRenderApostrophes verifies that apostrophes in comments and quoted
// identifiers do not hide the placeholders that follow them.
func TestRenderApostrophes(t *testing.T) {
	pg := dialect.MustResolve("postgres")
	vs := values(t, map[string]any{"a": 1, "b": 2})

	tests := []struct {
		name string
		tmpl string
		want string
		args int
	}{
		{"line comment", "SELECT 1 -- don't touch\nWHERE a = :a AND b = 'x'", "SELECT 1 -- don't touch\nWHERE a = $1 AND b = 'x'", 1},
		{"block comment", "SELECT 1 /* it's */ WHERE a = :a AND b = :b", "SELECT 1 /* it's */ WHERE a = $1 AND b = $2", 2},
		{"identifier", `SELECT "it's" FROM t WHERE a = :a AND c = 'y'`, `SELECT "it's" FROM t WHERE a = $1 AND c = 'y'`, 1},
		{"dollar body", "DO $$ BEGIN RAISE NOTICE 'x'; END $$; SELECT :a, :b", "DO $$ BEGIN RAISE NOTICE 'x'; END $$; SELECT $1, $2", 2},
		{"literal", "SELECT ':a'", "SELECT '$1'", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Render(tt.tmpl, vs, pg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SQL)
			assert.Len(t, res.Args, tt.args)
		})
	}

	_, err := Render("SELECT 1 -- don't\nWHERE a = :a AND c = :c", vs, pg)
	var mve *MissingValueError
	require.True(t, errors.As(err, &mve))
	assert.Equal(t, "c", mve.Name)
}

// TestRenderEscapeStyles verifies that an escaped colon renders as a bare
// ":word" whatever the placeholder style.
func TestRenderEscapeStyles(t *testing.T) {
	vs := values(t, map[string]any{"id": 3})
	want := map[string]string{
		"postgres":   "SELECT :id, $1",
		"sqlite":     "SELECT :id, ?",
		"mysql":      "SELECT :id, %(id)s",
		"sqlalchemy": "SELECT :id, :id",
		"embedded":   "SELECT :id, :id",
	}
	for _, d := range dialect.All() {
		res, err := Render(`SELECT \:id, :id`, vs, d)
		require.NoError(t, err)
		assert.Equal(t, want[d.String()], res.SQL, "%s", d)
		assert.Len(t, res.Args, 1)
	}
}

// TestRenderMissingValue verifies MissingValueError for an absent name.
func TestRenderMissingValue(t *testing.T) {
	_, err := Render("SELECT :a, :b", values(t, map[string]any{"a": 1}), dialect.Default)
	require.Error(t, err)

	var mve *MissingValueError
	require.True(t, errors.As(err, &mve))
	assert.Equal(t, "b", mve.Name)
}

// TestRenderTokenCount checks that every dialect emits exactly as many
// placeholder slots as arguments, and that repeated calls agree.
func TestRenderTokenCount(t *testing.T) {
	tmpls := []string{
		"",
		":a",
		":a :a :a",
		"INSERT INTO t (a, b, c) VALUES (:a, :b, :c)",
		"UPDATE t SET a = :a WHERE b = :b AND c IN (:c, :a, :b)",
	}
	vs := values(t, map[string]any{"a": 1, "b": 2.5, "c": nil})
	for _, d := range dialect.All() {
		for _, tmpl := range tmpls {
			first, err := Render(tmpl, vs, d)
			require.NoError(t, err)
			second, err := Render(tmpl, vs, d)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			parsed, err := Parse(tmpl)
			require.NoError(t, err)

			var occurrences int
			for _, seg := range parsed {
				if seg.IsParam() {
					occurrences++
				}
			}
			switch d.Style {
			case dialect.QMark:
				assert.Equal(t, strings.Count(first.SQL, "?"), len(first.Args))
				assert.Equal(t, occurrences, len(first.Args))
			default:
				assert.Equal(t, len(parsed.Params()), len(first.Args), "%s %q", d, tmpl)
			}
		}
	}
}

// TestDriverArgs verifies the argument shape handed to database/sql.
func TestDriverArgs(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	vs := NewValues().Set("n", Int(1)).Set("at", Time(ts))

	res, err := Render(":n :at", vs, dialect.MustResolve("postgres"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), ts}, res.DriverArgs())

	res, err = RenderStyle(":n :at", vs, dialect.Named)
	require.NoError(t, err)
	args := res.DriverArgs()
	require.Len(t, args, 2)
	assert.Equal(t, map[string]any{"n": int64(1), "at": ts}, res.Map())
}

// TestParseSegments verifies segment boundaries and merged literal runs.
func TestParseSegments(t *testing.T) {
	tmpl, err := Parse("a = :a, 'x' \\:y")
	require.NoError(t, err)
	assert.Equal(t, Template{
		{Text: "a = "},
		{Text: ":a", Param: "a"},
		{Text: ", 'x' :y"},
	}, tmpl)
	assert.Equal(t, []string{"a"}, tmpl.Params())
}
