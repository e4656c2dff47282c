package query

import (
	"strconv"
	"strings"

	"github.com/bcomnes/sqly/dialect"
)

// The builders below only compose text. Table names, column names and filters
// are inserted as given; only values bound through placeholders are
// parameterized.

// Fields renders "a, b, c".
func Fields(keys ...string) string {
	return strings.Join(keys, ", ")
}

// Qualify prefixes each key with "prefix.".
func Qualify(prefix string, keys ...string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + "." + k
	}
	return out
}

// Params renders ":a, :b, :c".
func Params(keys ...string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = ":" + k
	}
	return strings.Join(out, ", ")
}

// Assigns renders "a = :a, b = :b".
func Assigns(keys ...string) string {
	return strings.Join(Filters(keys...), ", ")
}

// Filter renders "key = :key".
func Filter(key string) string {
	return FilterOp(key, "=")
}

// FilterOp renders "key <op> :key".
func FilterOp(key, op string) string {
	return key + " " + op + " :" + key
}

// Filters renders one Filter per key.
func Filters(keys ...string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Filter(k)
	}
	return out
}

// Only keeps the keys listed in incl, preserving the order of keys.
func Only(keys []string, incl ...string) []string {
	return pick(keys, incl, true)
}

// Except drops the keys listed in excl, preserving the order of keys.
func Except(keys []string, excl ...string) []string {
	return pick(keys, excl, false)
}

func pick(keys, set []string, keep bool) []string {
	in := make(map[string]bool, len(set))
	for _, k := range set {
		in[k] = true
	}
	var out []string
	for _, k := range keys {
		if in[k] == keep {
			out = append(out, k)
		}
	}
	return out
}

// Where renders "WHERE f1 AND f2", or "" without filters.
func Where(filters ...string) string {
	if len(filters) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(filters, " AND ")
}

// OrderBy renders "ORDER BY a, b", or "".
func OrderBy(columns ...string) string {
	if len(columns) == 0 {
		return ""
	}
	return "ORDER BY " + Fields(columns...)
}

// Limit renders "LIMIT n", or "" when n <= 0.
func Limit(n int) string {
	if n <= 0 {
		return ""
	}
	return "LIMIT " + strconv.Itoa(n)
}

// Offset renders "OFFSET n", or "" when n <= 0.
func Offset(n int) string {
	if n <= 0 {
		return ""
	}
	return "OFFSET " + strconv.Itoa(n)
}

// Returning renders "RETURNING a, b", or "".
func Returning(columns ...string) string {
	if len(columns) == 0 {
		return ""
	}
	return "RETURNING " + Fields(columns...)
}

// Compose joins the non-blank parts with single spaces.
func Compose(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Select renders SELECT <columns or *> FROM table [WHERE ...].
func Select(table string, columns []string, filters ...string) string {
	cols := "*"
	if len(columns) > 0 {
		cols = Fields(columns...)
	}
	return Compose("SELECT "+cols, "FROM "+table, Where(filters...))
}

// Insert renders INSERT INTO table (keys) VALUES (:keys).
func Insert(table string, keys ...string) string {
	if len(keys) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}
	return Compose("INSERT INTO "+table, "("+Fields(keys...)+")", "VALUES ("+Params(keys...)+")")
}

// InsertValues renders Insert for the keys of vs.
func InsertValues(table string, vs *Values) string {
	return Insert(table, vs.Keys()...)
}

// Update renders UPDATE table SET col = :col, ... [WHERE ...].
func Update(table string, columns []string, filters ...string) string {
	return Compose("UPDATE "+table, "SET "+Assigns(columns...), Where(filters...))
}

// Delete renders DELETE FROM table [WHERE ...].
func Delete(table string, filters ...string) string {
	return Compose("DELETE FROM "+table, Where(filters...))
}

// Upsert renders an Insert that updates the non-conflict keys when a row with
// the same conflict keys exists.
func Upsert(d dialect.Dialect, table string, keys []string, conflict []string) string {
	update := Except(keys, conflict...)
	if d.Name == dialect.MySQL {
		if len(update) == 0 && len(conflict) > 0 {
			update = conflict[:1]
		}
		if len(update) == 0 {
			return Insert(table, keys...)
		}
		sets := make([]string, len(update))
		for i, k := range update {
			sets[i] = k + " = VALUES(" + k + ")"
		}
		return Compose(Insert(table, keys...), "ON DUPLICATE KEY UPDATE", strings.Join(sets, ", "))
	}

	target := "ON CONFLICT"
	if len(conflict) > 0 {
		target += " (" + Fields(conflict...) + ")"
	}
	if len(update) == 0 {
		return Compose(Insert(table, keys...), target, "DO NOTHING")
	}
	sets := make([]string, len(update))
	for i, k := range update {
		sets[i] = k + " = EXCLUDED." + k
	}
	return Compose(Insert(table, keys...), target, "DO UPDATE SET", strings.Join(sets, ", "))
}
