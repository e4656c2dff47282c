// SPDX-License-Identifier: MIT

// Package query renders SQL templates with named placeholders into the
// parameter syntax of a dialect, and builds the templates for common query
// shapes.
//
//	vs := query.NewValues().Set("id", query.Int(7))
//	res, _ := query.Render("SELECT * FROM widgets WHERE id = :id OR parent = :id",
//	    vs, dialect.MustResolve("postgres"))
//	// res.SQL  == "SELECT * FROM widgets WHERE id = $1 OR parent = $1"
//	// res.Args == [{id 7}]
//
// Positional dialects get one argument per slot: postgres reuses a slot for a
// repeated name, sqlite binds every occurrence. Keyed dialects get one
// argument per unique name. Rendering is pure; templates and results may be
// shared between goroutines.
package query
