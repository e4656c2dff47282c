// SPDX-License-Identifier: MIT

// Package dialect is the registry of SQL parameter conventions understood by
// sqly.
//
// A Dialect pairs a placeholder Style with the Adaptor used to reach that
// family of databases through database/sql:
//
//	postgres    $1, $2 ...     one slot per unique name
//	sqlite      ?              one slot per occurrence
//	mysql       %(name)s       keyed
//	sqlalchemy  :name          keyed
//	embedded    :name          keyed (the default)
//
// Lookups are case-insensitive and accept the usual driver aliases:
//
//	d, err := dialect.Resolve("pg")
//	d.Style.Placeholder(1, "id") // "$1"
package dialect
