package sqly

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bcomnes/sqly/dialect"
	"github.com/bcomnes/sqly/migration"
	"github.com/bcomnes/sqly/query"
	"github.com/spf13/afero"
)

// BootstrapApp is the reserved app that owns the ledger table.
const BootstrapApp = "sqly"

// BootstrapKey identifies the unit that creates the ledger table.
var BootstrapKey = migration.Key{App: BootstrapApp, TS: 0, Name: "init"}

// Config holds settings for rendering and migrations.
type Config struct {
	// Dialect is a registered dialect name or alias. Empty means "embedded".
	Dialect string

	// LedgerTable is the table recording applied units. A "schema.table"
	// form is honoured by postgres and mysql.
	LedgerTable string

	// MigrationDir holds one directory of unit files per app.
	MigrationDir string

	// App is the default app for keys given as bare "ts_name".
	App string

	// Apps limits unit discovery to these apps. Empty means every app.
	Apps []string

	// Lock serialises Migrate runs with an advisory lock on the ledger table.
	Lock bool

	// DryRun makes Migrate report the plan without executing it.
	DryRun bool
}

// DefaultConfig provides default values for configuration.
var DefaultConfig = Config{
	Dialect:      string(dialect.Embedded),
	LedgerTable:  "sqly_migrations",
	MigrationDir: "migrations",
}

// Sqly renders queries and migrates a database.
type Sqly struct {
	cfg     Config
	db      *sql.DB
	client  Client
	fs      afero.Fs
	source  migration.Source
	logger  *slog.Logger
	metrics *migration.Metrics
	now     func() time.Time
}

// Option configures a Sqly.
type Option func(*Sqly)

// WithFs sets the filesystem unit files are read from and written to.
func WithFs(fs afero.Fs) Option {
	return func(s *Sqly) { s.fs = fs }
}

// WithSource replaces file discovery with src. The bootstrap unit is still
// added.
func WithSource(src migration.Source) Option {
	return func(s *Sqly) { s.source = src }
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sqly) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records migration outcomes in m.
func WithMetrics(m *migration.Metrics) Option {
	return func(s *Sqly) { s.metrics = m }
}

// WithClock sets the clock used for new unit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sqly) { s.now = now }
}

// NewSqly creates a new Sqly. db may be nil when only rendering and unit
// files are needed.
func NewSqly(cfg Config, db *sql.DB, opts ...Option) (*Sqly, error) {
	if cfg.Dialect == "" {
		cfg.Dialect = DefaultConfig.Dialect
	}
	if cfg.LedgerTable == "" {
		cfg.LedgerTable = DefaultConfig.LedgerTable
	}
	if cfg.MigrationDir == "" {
		cfg.MigrationDir = DefaultConfig.MigrationDir
	}
	client, err := NewClient(cfg, db)
	if err != nil {
		return nil, err
	}
	s := &Sqly{
		cfg:    cfg,
		db:     db,
		client: client,
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = s.fileSource()
	}
	return s, nil
}

func (s *Sqly) fileSource() *migration.FileSource {
	return migration.NewFileSource(s.fs, s.cfg.MigrationDir, s.cfg.Apps...)
}

// Config returns the effective configuration.
func (s *Sqly) Config() Config { return s.cfg }

// Dialect returns the configured dialect.
func (s *Sqly) Dialect() dialect.Dialect { return s.client.Dialect() }

// Client returns the ledger client.
func (s *Sqly) Client() Client { return s.client }

// Render renders tmpl for the configured dialect.
func (s *Sqly) Render(tmpl string, values *query.Values) (query.Result, error) {
	return query.Render(tmpl, values, s.Dialect())
}

// Bind renders tmpl in the placeholder style of the dialect's driver, ready
// for database/sql. It differs from Render only for mysql, whose %(name)s
// output is for display.
func (s *Sqly) Bind(tmpl string, values *query.Values) (query.Result, error) {
	return query.RenderStyle(tmpl, values, s.Dialect().Adaptor.Bind)
}

// Bootstrap returns the unit that creates and drops the ledger table.
func (s *Sqly) Bootstrap() migration.Unit {
	return migration.Unit{
		App:  BootstrapKey.App,
		TS:   BootstrapKey.TS,
		Name: BootstrapKey.Name,
		Doc:  "Ledger of applied migrations.",
		Up:   migration.Statements{s.client.CreateLedgerSql()},
		Dn:   migration.Statements{s.client.DropLedgerSql()},
	}
}

// Units returns every unit the source provides plus the bootstrap unit. A
// unit file for the bootstrap key replaces the built-in one. Units other than
// the bootstrap unit that declare no dependencies depend on it.
func (s *Sqly) Units(ctx context.Context) ([]migration.Unit, error) {
	units, err := s.source.Units(ctx)
	if err != nil {
		return nil, err
	}
	hasBootstrap := false
	for i := range units {
		if units[i].Key() == BootstrapKey {
			hasBootstrap = true
			continue
		}
		if len(units[i].Depends) == 0 {
			units[i].Depends = []string{BootstrapKey.String()}
		}
	}
	if !hasBootstrap {
		units = append([]migration.Unit{s.Bootstrap()}, units...)
	}
	return units, nil
}

// Graph builds the dependency graph over Units.
func (s *Sqly) Graph(ctx context.Context) (*migration.Graph, error) {
	units, err := s.Units(ctx)
	if err != nil {
		return nil, err
	}
	return migration.NewGraph(units)
}

// UnitsFor returns the units of apps in apply order, every unit when apps is
// empty. includeDepends adds the units they depend on.
func (s *Sqly) UnitsFor(ctx context.Context, apps []string, includeDepends bool) ([]migration.Unit, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return subset(g, apps, includeDepends), nil
}

func subset(g *migration.Graph, apps []string, includeDepends bool) []migration.Unit {
	want := make(map[string]bool, len(apps))
	for _, app := range apps {
		want[app] = true
	}
	keep := map[migration.Key]bool{}
	for _, k := range g.Order() {
		if len(apps) > 0 && !want[k.App] {
			continue
		}
		keep[k] = true
		if includeDepends {
			for a := range g.Ancestors(k) {
				keep[a] = true
			}
		}
	}
	var units []migration.Unit
	for _, u := range g.Units() {
		if keep[u.Key()] {
			units = append(units, u)
		}
	}
	return units
}

// Applied returns the ledger rows.
func (s *Sqly) Applied(ctx context.Context) ([]migration.Unit, error) {
	return s.client.Applied(ctx)
}

// ParseKey parses a key, defaulting the app to Config.App.
func (s *Sqly) ParseKey(key string) (migration.Key, error) {
	return migration.ParseKey(key, s.cfg.App)
}

// Plan computes the steps that move the database to target. The target must
// have a unit file; applied units whose files are gone are planned from their
// ledger copy.
func (s *Sqly) Plan(ctx context.Context, target string) (migration.Plan, error) {
	key, err := s.ParseKey(target)
	if err != nil {
		return nil, err
	}
	units, err := s.Units(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[migration.Key]bool, len(units))
	for _, u := range units {
		known[u.Key()] = true
	}
	if !known[key] {
		return nil, &migration.UnknownKeyError{Key: key}
	}

	applied, err := s.Applied(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]migration.Key, 0, len(applied))
	for _, u := range applied {
		keys = append(keys, u.Key())
		if !known[u.Key()] {
			s.logger.Warn("planning from ledger copy", "key", u.Key().String())
			units = append(units, u)
			known[u.Key()] = true
		}
	}
	return migration.Resolve(units, keys, key)
}

// Migrate moves the database to target and reports one outcome per step.
func (s *Sqly) Migrate(ctx context.Context, target string) ([]migration.Outcome, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	if s.cfg.Lock && !s.cfg.DryRun {
		release, err := s.client.Locker().Acquire(ctx, BootstrapApp+":"+s.cfg.LedgerTable)
		if err != nil {
			return nil, fmt.Errorf("acquire migration lock: %w", err)
		}
		defer release()
	}

	plan, err := s.Plan(ctx, target)
	if err != nil {
		return nil, err
	}
	runner := migration.NewRunner(s.client,
		migration.WithLogger(s.logger),
		migration.WithMetrics(s.metrics),
		migration.WithErrorAttrs(s.client.ErrorAttrs),
	)
	if s.cfg.DryRun {
		return runner.DryRun(plan), nil
	}
	return runner.Apply(ctx, migration.FromSQL(s.db), plan)
}
