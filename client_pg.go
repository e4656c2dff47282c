package sqly

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bcomnes/sqly/dialect"
	"github.com/bcomnes/sqly/query"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgresClient implements Client for PostgreSQL.
type PostgresClient struct {
	baseClient
}

// NewPostgresClient creates a new PostgresClient.
func NewPostgresClient(cfg Config, d dialect.Dialect, db *sql.DB) *PostgresClient {
	c := &PostgresClient{
		baseClient: baseClient{
			cfg:     cfg,
			db:      db,
			dialect: d,
			locker:  NewPostgresLock(db),
		},
	}
	c.quotedTableFn = c.quotedTable
	c.createLedgerSqlFn = c.createLedgerSql
	c.hasLedgerSqlFn = c.hasLedgerSql
	c.errorAttrsFn = postgresErrorAttrs
	return c
}

// schemaTable splits the ledger table into schema and table. An empty schema
// means the connection's current schema.
func (c *PostgresClient) schemaTable() (string, string) {
	if schema, table, ok := strings.Cut(c.cfg.LedgerTable, "."); ok {
		return schema, table
	}
	return "", c.cfg.LedgerTable
}

// quotedTable quotes each dotted part of the ledger table.
func (c *PostgresClient) quotedTable() string {
	parts := strings.Split(c.cfg.LedgerTable, ".")
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, ".")
}

func (c *PostgresClient) createLedgerSql() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  app TEXT NOT NULL,
  ts BIGINT NOT NULL,
  name TEXT NOT NULL,
  depends TEXT NOT NULL DEFAULT '[]',
  applied TIMESTAMPTZ NOT NULL DEFAULT now(),
  doc TEXT,
  up TEXT NOT NULL DEFAULT '[]',
  dn TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (app, ts, name)
)`, c.quotedTable())
}

func (c *PostgresClient) hasLedgerSql() (string, *query.Values) {
	schema, table := c.schemaTable()
	vs := query.NewValues().Set("table", query.Text(table))
	schemaFilter := "table_schema = current_schema()"
	if schema != "" {
		vs.Set("schema", query.Text(schema))
		schemaFilter = query.Filter("table_schema")
	}
	return query.Compose(
		"SELECT count(*) FROM information_schema.tables",
		query.Where(schemaFilter, "table_name = :table"),
	), vs
}

func postgresErrorAttrs(err error) []any {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	attrs := []any{"sqlstate", pgErr.Code}
	if pgErr.Detail != "" {
		attrs = append(attrs, "detail", pgErr.Detail)
	}
	if pgErr.Position != 0 {
		attrs = append(attrs, "position", pgErr.Position)
	}
	return attrs
}
