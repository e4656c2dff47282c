package sqly

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bcomnes/sqly/migration"
	"github.com/spf13/afero"
)

// CreateUnit scaffolds an empty unit for app and writes it under
// MigrationDir. The new unit depends on every leaf of the graph formed by
// app, otherApps and the bootstrap unit, so it applies after all of them.
func (s *Sqly) CreateUnit(ctx context.Context, app string, otherApps []string, name string) (migration.Unit, string, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return migration.Unit{}, "", err
	}
	apps := append([]string{app, BootstrapApp}, otherApps...)
	scope, err := migration.NewGraph(subset(g, apps, true))
	if err != nil {
		return migration.Unit{}, "", err
	}

	var depends []string
	for _, leaf := range scope.Leaves() {
		if leaf.App == app {
			depends = append(depends, strconv.FormatInt(leaf.TS, 10)+"_"+leaf.Name)
		} else {
			depends = append(depends, leaf.String())
		}
	}

	u, err := migration.NewUnit(app, migration.Timestamp(s.now()), name, depends...)
	if err != nil {
		return migration.Unit{}, "", err
	}
	src := s.fileSource()
	path := src.Path(u)
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return migration.Unit{}, "", err
	}
	if exists {
		return migration.Unit{}, "", fmt.Errorf("migration %s already exists", path)
	}
	if _, err := src.Save(u); err != nil {
		return migration.Unit{}, "", err
	}
	return u, path, nil
}
