// SPDX-License-Identifier: MIT

// Package migration models versioned, reversible schema changes owned by
// apps that share one database, orders them by their dependencies, and
// applies them while keeping a ledger of what is applied.
//
// A unit is identified by the key "app:ts_name". Its depends list names other
// units, either fully qualified or as a bare "ts_name" inside the same app.
//
//	units, _ := migration.NewFileSource(afero.NewOsFs(), "migrations").Units(ctx)
//	target, _ := migration.ParseKey("shop:20240101120000000_products", "")
//	plan, _ := migration.Resolve(units, appliedKeys, target)
//	outcomes, err := migration.NewRunner(ledger).Apply(ctx, migration.FromSQL(db), plan)
//
// Planning is pure and deterministic. The runner assumes it is the only
// writer of the ledger while it runs.
package migration
