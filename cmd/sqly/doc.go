// SPDX-License-Identifier: MIT

// Package main provides sqly, the command-line interface for the sqly
// renderer and migration engine.
//
// # Install
//
//	go install github.com/bcomnes/sqly/cmd/sqly@latest
//
// # Synopsis
//
//	sqly [command] [arguments] [flags]
//
// # Commands
//
//	render TEMPLATE [KEY=VALUE...]         Render a template for --dialect.
//	migration APP [OTHER_APPS...] --name   Scaffold an empty unit for APP.
//	migrations [APPS...]                   List unit keys in apply order.
//	migrate KEY                            Move the database to KEY.
//	version                                Print the version.
//
// # Global flags
//
//	--database-url string   Connection string. Falls back to $DATABASE_URL.
//	--dialect string        postgres, sqlite, mysql, sqlalchemy or embedded
//	                        (default "embedded"). Falls back to $DATABASE_DIALECT.
//	--dir string            Migration directory (default "migrations").
//	--table string          Ledger table (default "sqly_migrations").
//	--app string            Default app for bare ts_name keys.
//	--log-level string      debug, info, warn or error (default "info").
//	--log-format string     text or json (default "text").
//
// # migrate flags
//
//	--dryrun                Print the plan without executing it.
//	--lock                  Hold an advisory lock on the ledger table.
//	--metrics-file string   Write run metrics in the Prometheus text format.
//
// # Configuration
//
// Every global flag can also be set as SQLY_<NAME> (SQLY_LOG_LEVEL, ...) or
// in a .sqly.yaml file in the working directory or ~/.config/sqly. A .env
// file is loaded when present and .env.local overrides it. Flags win over
// the environment, which wins over the config file.
//
// # Exit codes
//
// 0 on success, 1 on any error. A failed migrate prints the FAILED unit and
// every SKIPPED unit after it.
package main
