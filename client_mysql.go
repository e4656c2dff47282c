package sqly

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bcomnes/sqly/dialect"
	"github.com/bcomnes/sqly/query"
	"github.com/go-sql-driver/mysql"
)

// MySQLClient implements Client for MySQL.
type MySQLClient struct {
	baseClient
}

// NewMySQLClient creates a new MySQLClient.
func NewMySQLClient(cfg Config, d dialect.Dialect, db *sql.DB) *MySQLClient {
	c := &MySQLClient{
		baseClient: baseClient{
			cfg:     cfg,
			db:      db,
			dialect: d,
			locker:  NewMySQLLock(db),
		},
	}
	c.quotedTableFn = c.quotedTable
	c.createLedgerSqlFn = c.createLedgerSql
	c.hasLedgerSqlFn = c.hasLedgerSql
	c.errorAttrsFn = mysqlErrorAttrs
	return c
}

func (c *MySQLClient) quotedTable() string {
	parts := strings.Split(c.cfg.LedgerTable, ".")
	for i, part := range parts {
		parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

func (c *MySQLClient) createLedgerSql() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  app VARCHAR(255) NOT NULL,
  ts BIGINT NOT NULL,
  name VARCHAR(255) NOT NULL,
  depends TEXT NOT NULL,
  applied DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  doc TEXT,
  up LONGTEXT NOT NULL,
  dn LONGTEXT NOT NULL,
  PRIMARY KEY (app, ts, name)
)`, c.quotedTable())
}

func (c *MySQLClient) hasLedgerSql() (string, *query.Values) {
	vs := query.NewValues()
	schemaFilter := "table_schema = DATABASE()"
	table := c.cfg.LedgerTable
	if schema, t, ok := strings.Cut(table, "."); ok {
		vs.Set("schema", query.Text(schema))
		schemaFilter = query.Filter("table_schema")
		table = t
	}
	vs.Set("table", query.Text(table))
	return query.Compose(
		"SELECT count(*) FROM information_schema.tables",
		query.Where(schemaFilter, "table_name = :table"),
	), vs
}

func mysqlErrorAttrs(err error) []any {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return nil
	}
	attrs := []any{"mysql_errno", myErr.Number}
	if myErr.SQLState != [5]byte{} {
		attrs = append(attrs, "sqlstate", string(myErr.SQLState[:]))
	}
	return attrs
}

// CheckMySQLDSN validates a go-sql-driver DSN before it is opened.
func CheckMySQLDSN(dsn string) error {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return fmt.Errorf("invalid mysql dsn: %w", err)
	}
	return nil
}
