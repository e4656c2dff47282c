package sqly

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bcomnes/sqly/migration"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func newTestClient(t *testing.T, dialectName, table string) Client {
	t.Helper()
	c, err := NewClient(Config{Dialect: dialectName, LedgerTable: table}, nil)
	if err != nil {
		t.Fatalf("NewClient(%s): %v", dialectName, err)
	}
	return c
}

// TestQuotedTable checks identifier quoting per dialect.
func TestQuotedTable(t *testing.T) {
	tests := []struct {
		dialect, table, want string
	}{
		{"postgres", "sqly_migrations", `"sqly_migrations"`},
		{"pg", "app.ledger", `"app"."ledger"`},
		{"sqlite", `odd"name`, `"odd""name"`},
		{"embedded", "ledger", `"ledger"`},
		{"mysql", "db.ledger", "`db`.`ledger`"},
	}
	for _, tt := range tests {
		c := newTestClient(t, tt.dialect, tt.table)
		if got := c.QuotedTable(); got != tt.want {
			t.Errorf("%s QuotedTable(%q) = %s, want %s", tt.dialect, tt.table, got, tt.want)
		}
		if got := c.DropLedgerSql(); got != "DROP TABLE IF EXISTS "+tt.want {
			t.Errorf("%s DropLedgerSql = %s", tt.dialect, got)
		}
		if !strings.Contains(c.CreateLedgerSql(), "PRIMARY KEY (app, ts, name)") {
			t.Errorf("%s CreateLedgerSql lacks primary key: %s", tt.dialect, c.CreateLedgerSql())
		}
	}
}

// TestLedgerStatements verifies that ledger writes are rendered in the
// driver's bind style.
func TestLedgerStatements(t *testing.T) {
	u := migration.Unit{
		App: "shop", TS: 2, Name: "orders",
		Depends: []string{"1_products"},
		Up:      migration.Statements{"CREATE TABLE orders (id INT)"},
	}

	tests := []struct {
		dialect    string
		insert     string
		delete     string
		firstArg   any
		insertArgs int
	}{
		{
			dialect:    "postgres",
			insert:     `INSERT INTO "sqly_migrations" (app, ts, name, depends, doc, up, dn) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			delete:     `DELETE FROM "sqly_migrations" WHERE app = $1 AND ts = $2 AND name = $3`,
			firstArg:   "shop",
			insertArgs: 7,
		},
		{
			dialect:    "mysql",
			insert:     "INSERT INTO `sqly_migrations` (app, ts, name, depends, doc, up, dn) VALUES (?, ?, ?, ?, ?, ?, ?)",
			delete:     "DELETE FROM `sqly_migrations` WHERE app = ? AND ts = ? AND name = ?",
			firstArg:   "shop",
			insertArgs: 7,
		},
		{
			dialect:    "embedded",
			insert:     `INSERT INTO "sqly_migrations" (app, ts, name, depends, doc, up, dn) VALUES (:app, :ts, :name, :depends, :doc, :up, :dn)`,
			delete:     `DELETE FROM "sqly_migrations" WHERE app = :app AND ts = :ts AND name = :name`,
			firstArg:   sql.Named("app", "shop"),
			insertArgs: 7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			c := newTestClient(t, tt.dialect, "sqly_migrations")

			stmt, args, err := c.Insert(u)
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if stmt != tt.insert {
				t.Errorf("Insert SQL = %s\nwant %s", stmt, tt.insert)
			}
			if len(args) != tt.insertArgs {
				t.Fatalf("Insert args = %d, want %d", len(args), tt.insertArgs)
			}
			if args[0] != tt.firstArg {
				t.Errorf("first arg = %#v, want %#v", args[0], tt.firstArg)
			}

			stmt, args, err = c.Delete(u)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if stmt != tt.delete {
				t.Errorf("Delete SQL = %s\nwant %s", stmt, tt.delete)
			}
			if len(args) != 3 {
				t.Errorf("Delete args = %d, want 3", len(args))
			}
		})
	}
}

// TestInsertEncoding checks the JSON columns and the null doc.
func TestInsertEncoding(t *testing.T) {
	c := newTestClient(t, "postgres", "ledger")
	_, args, err := c.Insert(migration.Unit{App: "a", TS: 1, Name: "x", Up: migration.Statements{"SELECT 1"}})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	want := []any{"a", int64(1), "x", "[]", nil, `["SELECT 1"]`, "[]"}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %#v, want %#v", i, args[i], want[i])
		}
	}
}

// TestErrorAttrs verifies that driver errors are turned into log attributes.
func TestErrorAttrs(t *testing.T) {
	pg := newTestClient(t, "postgres", "ledger")
	attrs := pg.ErrorAttrs(&migration.ExecutionError{Err: &pgconn.PgError{Code: "42P01"}})
	if len(attrs) != 2 || attrs[0] != "sqlstate" || attrs[1] != "42P01" {
		t.Errorf("postgres attrs = %v", attrs)
	}

	my := newTestClient(t, "mysql", "ledger")
	attrs = my.ErrorAttrs(&mysql.MySQLError{Number: 1146})
	if len(attrs) != 2 || attrs[0] != "mysql_errno" || attrs[1] != uint16(1146) {
		t.Errorf("mysql attrs = %v", attrs)
	}

	lite := newTestClient(t, "sqlite", "ledger")
	if attrs := lite.ErrorAttrs(errors.New("plain")); attrs != nil {
		t.Errorf("sqlite attrs = %v, want nil", attrs)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	_, err = db.Exec("SELECT * FROM nope")
	if err == nil {
		t.Fatal("expected an error from a missing table")
	}
	attrs = lite.ErrorAttrs(err)
	if len(attrs) != 2 || attrs[0] != "sqlite_code" {
		t.Errorf("sqlite attrs = %v", attrs)
	}
}

// TestHasLedgerWithoutDatabase verifies the nil database guard.
func TestHasLedgerWithoutDatabase(t *testing.T) {
	c := newTestClient(t, "embedded", "ledger")
	if _, err := c.HasLedger(context.Background()); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("HasLedger error = %v, want ErrNoDatabase", err)
	}
}

// TestParseTime covers the timestamp shapes drivers return.
func TestParseTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, v := range []any{
		want,
		"2024-01-02T03:04:05Z",
		[]byte("2024-01-02 03:04:05"),
	} {
		if got := parseTime(v); !got.Equal(want) {
			t.Errorf("parseTime(%#v) = %v, want %v", v, got, want)
		}
	}
	if got := parseTime(42); !got.IsZero() {
		t.Errorf("parseTime(42) = %v, want zero", got)
	}
}

// TestCheckMySQLDSN validates go-sql-driver DSNs.
func TestCheckMySQLDSN(t *testing.T) {
	if err := CheckMySQLDSN("user:pw@tcp(localhost:3306)/app"); err != nil {
		t.Errorf("valid dsn rejected: %v", err)
	}
	if err := CheckMySQLDSN("mysql://user@localhost/app"); err == nil {
		t.Error("invalid dsn accepted")
	}
}
