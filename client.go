package sqly

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bcomnes/sqly/dialect"
	"github.com/bcomnes/sqly/migration"
	"github.com/bcomnes/sqly/query"
)

// ErrNoDatabase is returned by operations that need a database when the
// instance was created without one.
var ErrNoDatabase = errors.New("sqly: no database configured")

// Client holds the dialect specific SQL for the ledger table. It implements
// migration.Ledger.
type Client interface {
	Dialect() dialect.Dialect
	QuotedTable() string
	CreateLedgerSql() string
	DropLedgerSql() string
	HasLedger(ctx context.Context) (bool, error)
	Applied(ctx context.Context) ([]migration.Unit, error)
	Insert(u migration.Unit) (string, []any, error)
	Delete(u migration.Unit) (string, []any, error)
	ErrorAttrs(err error) []any
	Locker() Locker
}

// NewClient returns the Client for the configured dialect. db may be nil for
// clients that only render SQL.
func NewClient(cfg Config, db *sql.DB) (Client, error) {
	d, err := dialect.Resolve(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	switch d.Name {
	case dialect.Postgres:
		return NewPostgresClient(cfg, d, db), nil
	case dialect.MySQL:
		return NewMySQLClient(cfg, d, db), nil
	default:
		return NewSqliteClient(cfg, d, db), nil
	}
}

// ledgerColumns is the column order used for reads and inserts.
var ledgerColumns = []string{"app", "ts", "name", "depends", "applied", "doc", "up", "dn"}

// baseClient carries the shared ledger logic. Concrete clients set the
// function pointers for the parts that differ.
type baseClient struct {
	cfg     Config
	db      *sql.DB
	dialect dialect.Dialect
	locker  Locker

	quotedTableFn     func() string
	createLedgerSqlFn func() string
	hasLedgerSqlFn    func() (string, *query.Values)
	errorAttrsFn      func(error) []any
}

func (c *baseClient) Dialect() dialect.Dialect { return c.dialect }

func (c *baseClient) QuotedTable() string { return c.quotedTableFn() }

func (c *baseClient) CreateLedgerSql() string { return c.createLedgerSqlFn() }

func (c *baseClient) DropLedgerSql() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", c.QuotedTable())
}

func (c *baseClient) Locker() Locker { return c.locker }

// ErrorAttrs returns log attributes extracted from driver errors.
func (c *baseClient) ErrorAttrs(err error) []any {
	if c.errorAttrsFn == nil {
		return nil
	}
	return c.errorAttrsFn(err)
}

// render renders tmpl in the style the adaptor's driver binds.
func (c *baseClient) render(tmpl string, vs *query.Values) (string, []any, error) {
	res, err := query.RenderStyle(tmpl, vs, c.dialect.Adaptor.Bind)
	if err != nil {
		return "", nil, err
	}
	return res.SQL, res.DriverArgs(), nil
}

// HasLedger reports whether the ledger table exists.
func (c *baseClient) HasLedger(ctx context.Context) (bool, error) {
	if c.db == nil {
		return false, ErrNoDatabase
	}
	tmpl, vs := c.hasLedgerSqlFn()
	sqlStr, args, err := c.render(tmpl, vs)
	if err != nil {
		return false, err
	}
	var n int
	if err := c.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check ledger table: %w", err)
	}
	return n > 0, nil
}

// Insert renders the statement recording u as applied.
func (c *baseClient) Insert(u migration.Unit) (string, []any, error) {
	depends, err := jsonList(u.Depends)
	if err != nil {
		return "", nil, err
	}
	up, err := jsonList(u.Up)
	if err != nil {
		return "", nil, err
	}
	dn, err := jsonList(u.Dn)
	if err != nil {
		return "", nil, err
	}
	doc := query.Null()
	if u.Doc != "" {
		doc = query.Text(u.Doc)
	}

	vs := query.NewValues().
		Set("app", query.Text(u.App)).
		Set("ts", query.Int(u.TS)).
		Set("name", query.Text(u.Name)).
		Set("depends", query.Text(depends)).
		Set("doc", doc).
		Set("up", query.Text(up)).
		Set("dn", query.Text(dn))
	return c.render(query.InsertValues(c.QuotedTable(), vs), vs)
}

// Delete renders the statement forgetting u.
func (c *baseClient) Delete(u migration.Unit) (string, []any, error) {
	vs := query.NewValues().
		Set("app", query.Text(u.App)).
		Set("ts", query.Int(u.TS)).
		Set("name", query.Text(u.Name))
	return c.render(query.Delete(c.QuotedTable(), query.Filters(vs.Keys()...)...), vs)
}

// Applied reads every ledger row. A missing ledger table means nothing is
// applied.
func (c *baseClient) Applied(ctx context.Context) ([]migration.Unit, error) {
	ok, err := c.HasLedger(ctx)
	if err != nil || !ok {
		return nil, err
	}

	q := query.Compose(query.Select(c.QuotedTable(), ledgerColumns), query.OrderBy("ts", "name", "app"))
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	defer rows.Close()

	var units []migration.Unit
	for rows.Next() {
		var (
			u                    migration.Unit
			applied              any
			depends, doc, up, dn sql.NullString
		)
		if err := rows.Scan(&u.App, &u.TS, &u.Name, &depends, &applied, &doc, &up, &dn); err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if u.Depends, err = parseList(depends); err != nil {
			return nil, fmt.Errorf("ledger row %s: depends: %w", u.Key(), err)
		}
		var stmts []string
		if stmts, err = parseList(up); err != nil {
			return nil, fmt.Errorf("ledger row %s: up: %w", u.Key(), err)
		}
		u.Up = migration.Statements(stmts)
		if stmts, err = parseList(dn); err != nil {
			return nil, fmt.Errorf("ledger row %s: dn: %w", u.Key(), err)
		}
		u.Dn = migration.Statements(stmts)
		u.Doc = doc.String
		u.Applied = parseTime(applied)
		units = append(units, u)
	}
	return units, rows.Err()
}

func jsonList[T ~[]string](list T) (string, error) {
	if list == nil {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseList(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s.String), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTime accepts what the supported drivers return for a timestamp
// column. Unparseable values yield the zero time.
func parseTime(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
