package migration

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Direction is the way a unit is applied.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "dn"
)

// Statements is an ordered list of SQL statements. In YAML it may be written
// as a single scalar script or as a sequence.
type Statements []string

// UnmarshalYAML implements yaml.Unmarshaler. A blank scalar script decodes
// to no statements; list entries are kept as written.
func (s *Statements) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = nil
		if strings.TrimSpace(n.Value) != "" {
			*s = Statements{n.Value}
		}
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return err
		}
		*s = nil
		if len(list) > 0 {
			*s = Statements(list)
		}
	default:
		return fmt.Errorf("line %d: statements must be a string or a list of strings", n.Line)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Statements) MarshalYAML() (any, error) {
	return []string(s), nil
}

// blank returns the index of the first whitespace-only statement, or -1.
func (s Statements) blank() int {
	for i, stmt := range s {
		if strings.TrimSpace(stmt) == "" {
			return i
		}
	}
	return -1
}

// keyList decodes a sequence of keys, or a scalar holding a JSON list.
type keyList []string

func (l *keyList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return err
		}
		*l = list
	case yaml.ScalarNode:
		v := strings.TrimSpace(n.Value)
		switch {
		case v == "":
			*l = nil
		case strings.HasPrefix(v, "["):
			var list []string
			if err := json.Unmarshal([]byte(v), &list); err != nil {
				return fmt.Errorf("line %d: depends: %w", n.Line, err)
			}
			*l = list
		default:
			*l = []string{v}
		}
	default:
		return fmt.Errorf("line %d: depends must be a list of keys", n.Line)
	}
	return nil
}

// Unit is one reversible schema change owned by an app.
type Unit struct {
	App     string
	TS      int64
	Name    string
	Depends []string
	Doc     string
	Up      Statements
	Dn      Statements

	// Applied is set for units read from the ledger.
	Applied time.Time
}

var slugPattern = regexp.MustCompile(`[\W_]+`)

// Slug replaces each run of non-word characters and underscores with "_".
func Slug(name string) string {
	return slugPattern.ReplaceAllString(name, "_")
}

// Timestamp returns t in UTC as the integer YYYYmmddHHMMSSfff.
func Timestamp(t time.Time) int64 {
	s := strings.Replace(t.UTC().Format("20060102150405.000"), ".", "", 1)
	ts, _ := strconv.ParseInt(s, 10, 64)
	return ts
}

// NewUnit builds a validated unit with a slugged name.
func NewUnit(app string, ts int64, name string, depends ...string) (Unit, error) {
	u := Unit{App: app, TS: ts, Name: Slug(name), Depends: depends}
	if err := u.Validate(); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// Key returns the unit's identity.
func (u Unit) Key() Key {
	return Key{App: u.App, TS: u.TS, Name: u.Name}
}

func (u Unit) String() string {
	return u.Key().String()
}

// Filename returns "<ts>_<name>.yaml".
func (u Unit) Filename() string {
	return strconv.FormatInt(u.TS, 10) + "_" + u.Name + ".yaml"
}

// Statements returns the statement list for d.
func (u Unit) Statements(d Direction) Statements {
	if d == Down {
		return u.Dn
	}
	return u.Up
}

// Validate checks the fields required to identify and order the unit.
func (u Unit) Validate() error {
	switch {
	case u.App == "":
		return &UnitError{Reason: "app is required"}
	case strings.ContainsAny(u.App, ": \t\n"):
		return &UnitError{Reason: fmt.Sprintf("app %q must not contain ':' or whitespace", u.App)}
	case u.TS < 0:
		return &UnitError{Reason: fmt.Sprintf("ts %d must not be negative", u.TS)}
	case u.Name != Slug(u.Name):
		return &UnitError{Reason: fmt.Sprintf("name %q is not a slug", u.Name)}
	case u.Up.blank() >= 0:
		return &UnitError{Reason: fmt.Sprintf("up statement %d is blank", u.Up.blank())}
	case u.Dn.blank() >= 0:
		return &UnitError{Reason: fmt.Sprintf("dn statement %d is blank", u.Dn.blank())}
	}
	if _, err := u.ResolveDepends(u.App); err != nil {
		return &UnitError{Reason: err.Error()}
	}
	return nil
}

// ResolveDepends returns the dependency keys, qualifying bare keys with
// ownApp. Duplicates are dropped.
func (u Unit) ResolveDepends(ownApp string) ([]Key, error) {
	var (
		out  []Key
		seen = map[Key]bool{}
	)
	for _, dep := range u.Depends {
		k, err := ParseKey(dep, ownApp)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

// unitFile is the on-disk field order. TS is a pointer so a missing ts is an
// error rather than zero.
type unitFile struct {
	App     string     `yaml:"app"`
	TS      *int64     `yaml:"ts"`
	Name    string     `yaml:"name"`
	Depends keyList    `yaml:"depends"`
	Doc     *string    `yaml:"doc"`
	Up      Statements `yaml:"up"`
	Dn      Statements `yaml:"dn"`
}

// MarshalYAML implements yaml.Marshaler.
func (u Unit) MarshalYAML() (any, error) {
	f := struct {
		App     string     `yaml:"app"`
		TS      int64      `yaml:"ts"`
		Name    string     `yaml:"name"`
		Depends []string   `yaml:"depends"`
		Doc     *string    `yaml:"doc"`
		Up      Statements `yaml:"up"`
		Dn      Statements `yaml:"dn"`
	}{App: u.App, TS: u.TS, Name: u.Name, Depends: u.Depends, Up: u.Up, Dn: u.Dn}
	if f.Depends == nil {
		f.Depends = []string{}
	}
	if u.Doc != "" {
		doc := u.Doc
		f.Doc = &doc
	}
	return f, nil
}

// UnmarshalYAML implements yaml.Unmarshaler. The decoded unit is validated.
func (u *Unit) UnmarshalYAML(n *yaml.Node) error {
	var f unitFile
	if err := n.Decode(&f); err != nil {
		return err
	}
	if f.TS == nil {
		return &UnitError{Reason: "ts is required"}
	}
	out := Unit{
		App:     f.App,
		TS:      *f.TS,
		Name:    Slug(f.Name),
		Depends: []string(f.Depends),
		Up:      f.Up,
		Dn:      f.Dn,
	}
	if len(out.Depends) == 0 {
		out.Depends = nil
	}
	if f.Doc != nil {
		out.Doc = *f.Doc
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*u = out
	return nil
}

// ParseUnit decodes and validates one unit document.
func ParseUnit(data []byte) (Unit, error) {
	var u Unit
	if err := yaml.Unmarshal(data, &u); err != nil {
		return Unit{}, err
	}
	if u.App == "" {
		return Unit{}, &UnitError{Reason: "empty document"}
	}
	return u, nil
}

// YAML encodes u in the unit file format.
func (u Unit) YAML() ([]byte, error) {
	return yaml.Marshal(u)
}
