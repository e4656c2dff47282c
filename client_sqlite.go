package sqly

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bcomnes/sqly/dialect"
	"github.com/bcomnes/sqly/query"
	"modernc.org/sqlite"
)

// SqliteClient implements Client for the sqlite, sqlalchemy and embedded
// dialects.
type SqliteClient struct {
	baseClient
}

// NewSqliteClient creates a new SqliteClient.
func NewSqliteClient(cfg Config, d dialect.Dialect, db *sql.DB) *SqliteClient {
	c := &SqliteClient{
		baseClient: baseClient{
			cfg:     cfg,
			db:      db,
			dialect: d,
			locker:  NewSQLiteLock(),
		},
	}
	c.quotedTableFn = c.quotedTable
	c.createLedgerSqlFn = c.createLedgerSql
	c.hasLedgerSqlFn = c.hasLedgerSql
	c.errorAttrsFn = sqliteErrorAttrs
	return c
}

func (c *SqliteClient) quotedTable() string {
	return `"` + strings.ReplaceAll(c.cfg.LedgerTable, `"`, `""`) + `"`
}

func (c *SqliteClient) createLedgerSql() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  app TEXT NOT NULL,
  ts INTEGER NOT NULL,
  name TEXT NOT NULL,
  depends TEXT NOT NULL DEFAULT '[]',
  applied TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
  doc TEXT,
  up TEXT NOT NULL DEFAULT '[]',
  dn TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (app, ts, name)
)`, c.quotedTable())
}

func (c *SqliteClient) hasLedgerSql() (string, *query.Values) {
	vs := query.NewValues().Set("table", query.Text(c.cfg.LedgerTable))
	return "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = :table", vs
}

// sqliteErrorAttrs reports the result code of the pure Go driver.
func sqliteErrorAttrs(err error) []any {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return []any{"sqlite_code", liteErr.Code()}
	}
	return nil
}
