package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Name identifies a dialect.
type Name string

const (
	Postgres   Name = "postgres"
	SQLite     Name = "sqlite"
	MySQL      Name = "mysql"
	SQLAlchemy Name = "sqlalchemy"
	Embedded   Name = "embedded"
)

// Style is a placeholder rendering rule.
type Style int

const (
	// Named renders ":name".
	Named Style = iota
	// Numbered renders "$N", reusing N for repeated names.
	Numbered
	// QMark renders "?" for every occurrence.
	QMark
	// PyFormat renders "%(name)s".
	PyFormat
)

// Placeholder returns the token for the given 1-based slot ordinal and name.
func (s Style) Placeholder(ordinal int, name string) string {
	switch s {
	case Numbered:
		return "$" + strconv.Itoa(ordinal)
	case QMark:
		return "?"
	case PyFormat:
		return "%(" + name + ")s"
	default:
		return ":" + name
	}
}

// Keyed reports whether arguments are bound by name.
func (s Style) Keyed() bool {
	return s == Named || s == PyFormat
}

// PerOccurrence reports whether every placeholder occurrence takes its own
// argument, even when a name repeats.
func (s Style) PerOccurrence() bool {
	return s == QMark
}

func (s Style) String() string {
	switch s {
	case Numbered:
		return "numbered"
	case QMark:
		return "qmark"
	case PyFormat:
		return "pyformat"
	default:
		return "named"
	}
}

// Adaptor describes how a dialect is reached through database/sql.
type Adaptor struct {
	// Driver is the database/sql driver name the dialect opens.
	Driver string

	// Bind is the placeholder style the driver accepts. It can differ from the
	// dialect's own Style (mysql renders %(name)s but the Go driver binds ?).
	Bind Style
}

// Dialect is an immutable registry entry.
type Dialect struct {
	Name    Name
	Style   Style
	Adaptor Adaptor
}

func (d Dialect) String() string {
	return string(d.Name)
}

// SupportsReturning reports whether INSERT/UPDATE/DELETE ... RETURNING is
// available.
func (d Dialect) SupportsReturning() bool {
	return d.Name == Postgres
}

// UnknownDialectError is returned by Resolve for names not in the registry.
type UnknownDialectError struct {
	Name string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown dialect %q (want one of %s)", e.Name, strings.Join(names(), ", "))
}

var registry = []Dialect{
	{Name: Postgres, Style: Numbered, Adaptor: Adaptor{Driver: "pgx", Bind: Numbered}},
	{Name: SQLite, Style: QMark, Adaptor: Adaptor{Driver: "sqlite3", Bind: QMark}},
	{Name: MySQL, Style: PyFormat, Adaptor: Adaptor{Driver: "mysql", Bind: QMark}},
	{Name: SQLAlchemy, Style: Named, Adaptor: Adaptor{Driver: "sqlite3", Bind: Named}},
	{Name: Embedded, Style: Named, Adaptor: Adaptor{Driver: "sqlite", Bind: Named}},
}

var aliases = map[string]Name{
	"pg":         Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"sqlite3":    SQLite,
}

// Default is the dialect used when none is configured.
var Default = MustResolve(string(Embedded))

// Resolve looks up a dialect by name or alias, ignoring case and surrounding
// space.
func Resolve(name string) (Dialect, error) {
	n := Name(strings.ToLower(strings.TrimSpace(name)))
	if alias, ok := aliases[string(n)]; ok {
		n = alias
	}
	for _, d := range registry {
		if d.Name == n {
			return d, nil
		}
	}
	return Dialect{}, &UnknownDialectError{Name: name}
}

// MustResolve is like Resolve but panics on unknown names.
func MustResolve(name string) Dialect {
	d, err := Resolve(name)
	if err != nil {
		panic(err)
	}
	return d
}

// All returns every registered dialect in registry order.
func All() []Dialect {
	out := make([]Dialect, len(registry))
	copy(out, registry)
	return out
}

func names() []string {
	out := make([]string, 0, len(registry))
	for _, d := range registry {
		out = append(out, string(d.Name))
	}
	return out
}
