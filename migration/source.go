package migration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Source supplies the full set of units for one run.
type Source interface {
	Units(ctx context.Context) ([]Unit, error)
}

// StaticSource is a fixed set of units.
type StaticSource []Unit

// Units implements Source.
func (s StaticSource) Units(context.Context) ([]Unit, error) {
	return append([]Unit(nil), s...), nil
}

// FileSource reads units laid out as <Dir>/<app>/<ts>_<name>.yaml.
type FileSource struct {
	Fs  afero.Fs
	Dir string

	// Apps limits discovery to these app directories. Empty means every
	// directory under Dir.
	Apps []string
}

// NewFileSource returns a FileSource over fs.
func NewFileSource(fs afero.Fs, dir string, apps ...string) *FileSource {
	return &FileSource{Fs: fs, Dir: dir, Apps: apps}
}

// AppNames returns the app directories that will be scanned, sorted.
func (s *FileSource) AppNames() ([]string, error) {
	if len(s.Apps) > 0 {
		apps := append([]string(nil), s.Apps...)
		sort.Strings(apps)
		return apps, nil
	}
	infos, err := afero.ReadDir(s.Fs, s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migration dir %s: %w", s.Dir, err)
	}
	var apps []string
	for _, info := range infos {
		if info.IsDir() {
			apps = append(apps, info.Name())
		}
	}
	sort.Strings(apps)
	return apps, nil
}

// Units implements Source.
func (s *FileSource) Units(ctx context.Context) ([]Unit, error) {
	apps, err := s.AppNames()
	if err != nil {
		return nil, err
	}
	var units []Unit
	for _, app := range apps {
		paths, err := afero.Glob(s.Fs, filepath.Join(s.Dir, app, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("scan migrations for %s: %w", app, err)
		}
		sort.Strings(paths)
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			u, err := s.Load(path)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
	}
	return units, nil
}

// Load reads one unit file.
func (s *FileSource) Load(path string) (Unit, error) {
	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return Unit{}, fmt.Errorf("read migration: %w", err)
	}
	u, err := ParseUnit(data)
	if err != nil {
		var ue *UnitError
		if errors.As(err, &ue) && ue.Source == "" {
			ue.Source = path
			return Unit{}, ue
		}
		return Unit{}, fmt.Errorf("parse migration %s: %w", path, err)
	}
	return u, nil
}

// Path returns the file path u is saved to.
func (s *FileSource) Path(u Unit) string {
	return filepath.Join(s.Dir, u.App, u.Filename())
}

// Save writes u to its path, creating the app directory, and returns the path.
func (s *FileSource) Save(u Unit) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	data, err := u.YAML()
	if err != nil {
		return "", fmt.Errorf("encode migration %s: %w", u.Key(), err)
	}
	path := s.Path(u)
	if err := s.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create migration dir: %w", err)
	}
	if err := afero.WriteFile(s.Fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write migration %s: %w", path, err)
	}
	return path, nil
}
