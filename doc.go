// SPDX-License-Identifier: MIT

// Package sqly renders dialect-aware SQL and migrates databases through a
// graph of per-app migration units.
//
// Queries are written once with named placeholders (":name") and rendered
// for postgres ($1), sqlite (?), mysql (%(name)s), sqlalchemy and the
// embedded pure Go sqlite driver (:name). See the query and dialect
// packages.
//
// Migrations are YAML files laid out as <dir>/<app>/<ts>_<name>.yaml. Each
// unit names the units it depends on, possibly in other apps, and carries up
// and dn statement lists. The ledger table records every applied unit and is
// itself created by the bootstrap unit sqly:0_init.
//
// # Quick start
//
//	db, _ := sql.Open("pgx", os.Getenv("DATABASE_URL"))
//	s, _ := sqly.NewSqly(sqly.Config{Dialect: "postgres"}, db)
//	outcomes, err := s.Migrate(ctx, "shop:20240102030405123_orders")
//
// Migrate reverts applied units the target does not need, then applies the
// target and everything it depends on, one transaction per unit. The first
// failure stops the run; later steps are reported as SKIPPED.
//
// # Programmatic API
//
//	NewSqly(cfg, db, opts...)            → *Sqly
//	(*Sqly).Render(tmpl, values)         → query.Result
//	(*Sqly).Plan(ctx, key)               → migration.Plan
//	(*Sqly).Migrate(ctx, key)            → []migration.Outcome
//	(*Sqly).CreateUnit(ctx, app, others, name)
//	(*Sqly).UnitsFor(ctx, apps, includeDepends)
//
// The sqly command in cmd/sqly wraps the same operations.
package sqly
