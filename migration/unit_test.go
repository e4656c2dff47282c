package migration

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnitRoundTrip verifies that a unit written to YAML reads back field for
// field.
func TestUnitRoundTrip(t *testing.T) {
	units := []Unit{
		{
			App:     "shop",
			TS:      20240102030405123,
			Name:    "products",
			Depends: []string{"sqly:0_init", "20240101000000000_base"},
			Doc:     "Product catalogue.\nSecond line.",
			Up:      Statements{"CREATE TABLE products (id INTEGER PRIMARY KEY)", "CREATE INDEX products_id ON products (id)"},
			Dn:      Statements{"DROP TABLE products"},
		},
		{App: "shop", TS: 1},
	}
	for _, u := range units {
		t.Run(u.Key().String(), func(t *testing.T) {
			data, err := u.YAML()
			require.NoError(t, err)

			back, err := ParseUnit(data)
			require.NoError(t, err)
			assert.Equal(t, u, back)
		})
	}
}

// TestUnitYAMLLayout checks field order and null handling in the file format.
func TestUnitYAMLLayout(t *testing.T) {
	data, err := Unit{App: "shop", TS: 7, Name: "x"}.YAML()
	require.NoError(t, err)
	assert.Equal(t, "app: shop\nts: 7\nname: x\ndepends: []\ndoc: null\nup: []\ndn: []\n", string(data))
}

// TestParseUnitForms covers scalar scripts, JSON depends and name slugging.
func TestParseUnitForms(t *testing.T) {
	doc := `
app: shop
ts: 12
name: add products!
depends: '["sqly:0_init"]'
doc:
up: |
  CREATE TABLE products (id INTEGER);
dn:
  - DROP TABLE products
`
	u, err := ParseUnit([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "add_products_", u.Name)
	assert.Equal(t, []string{"sqly:0_init"}, u.Depends)
	assert.Equal(t, Statements{"CREATE TABLE products (id INTEGER);\n"}, u.Up)
	assert.Equal(t, Statements{"DROP TABLE products"}, u.Dn)
	assert.Empty(t, u.Doc)
}

// TestParseUnitErrors verifies that malformed units are rejected.
func TestParseUnitErrors(t *testing.T) {
	tests := map[string]string{
		"missing ts":     "app: shop\nname: x\n",
		"missing app":    "ts: 1\n",
		"negative ts":    "app: shop\nts: -4\n",
		"colon in app":   "app: 'a:b'\nts: 1\n",
		"bad dependency": "app: shop\nts: 1\ndepends: [nope]\n",
		"blank up":       "app: shop\nts: 1\nup: [SELECT 1, '  ']\n",
		"blank dn":       "app: shop\nts: 1\ndn: ['']\n",
		"empty":          "",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUnit([]byte(doc))
			var ue *UnitError
			require.True(t, errors.As(err, &ue), "got %v", err)
		})
	}

	_, err := ParseUnit([]byte("app: shop\nts: [1]\n"))
	assert.Error(t, err)
}

// TestValidateStatements verifies that units which could not be read back
// unchanged are rejected before they are written.
func TestValidateStatements(t *testing.T) {
	tests := map[string]Unit{
		"blank up":   {App: "shop", TS: 1, Name: "x", Up: Statements{"SELECT 1", "  "}},
		"blank dn":   {App: "shop", TS: 1, Name: "x", Dn: Statements{""}},
		"not a slug": {App: "shop", TS: 1, Name: "add products"},
		"colon":      {App: "shop", TS: 1, Name: "a:b"},
	}
	for name, u := range tests {
		t.Run(name, func(t *testing.T) {
			var ue *UnitError
			require.True(t, errors.As(u.Validate(), &ue))
		})
	}

	u := Unit{App: "shop", TS: 1, Name: "x", Up: Statements{"SELECT 1", "SELECT 2"}}
	require.NoError(t, u.Validate())
	data, err := u.YAML()
	require.NoError(t, err)
	back, err := ParseUnit(data)
	require.NoError(t, err)
	assert.Equal(t, u, back)

	back, err = ParseUnit([]byte("app: shop\nts: 1\nname: x\nup: \"  \"\n"))
	require.NoError(t, err)
	assert.Nil(t, back.Up)
}

// TestResolveDepends verifies qualification and de-duplication.
func TestResolveDepends(t *testing.T) {
	u := Unit{App: "shop", TS: 3, Depends: []string{"1_a", "shop:1_a", "sqly:0_init"}}
	deps, err := u.ResolveDepends(u.App)
	require.NoError(t, err)
	assert.Equal(t, []Key{{App: "shop", TS: 1, Name: "a"}, {App: "sqly", TS: 0, Name: "init"}}, deps)
}

// TestNewUnit verifies slugging, filenames and timestamps.
func TestNewUnit(t *testing.T) {
	u, err := NewUnit("shop", 99, "Add  SKU-index")
	require.NoError(t, err)
	assert.Equal(t, "Add_SKU_index", u.Name)
	assert.Equal(t, "99_Add_SKU_index.yaml", u.Filename())

	_, err = NewUnit("", 1, "x")
	assert.Error(t, err)

	ts := Timestamp(time.Date(2024, 3, 4, 5, 6, 7, 891_000_000, time.FixedZone("X", 3600)))
	assert.Equal(t, int64(20240304040607891), ts)
}
