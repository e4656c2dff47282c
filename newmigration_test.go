package sqly_test

import (
	"context"
	"testing"
	"time"

	"github.com/bcomnes/sqly"
	"github.com/bcomnes/sqly/migration"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateUnit scaffolds units and checks the dependencies they get.
func TestCreateUnit(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	clock := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := sqly.NewSqly(sqly.Config{}, nil, sqly.WithFs(fs), sqly.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	require.NoError(t, err)

	first, path, err := s.CreateUnit(ctx, "shop", nil, "Add products")
	require.NoError(t, err)
	assert.Equal(t, "migrations/shop/20240102030406000_Add_products.yaml", path)
	assert.Equal(t, []string{"sqly:0_init"}, first.Depends)

	second, _, err := s.CreateUnit(ctx, "shop", nil, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"20240102030406000_Add_products"}, second.Depends)

	post, _, err := s.CreateUnit(ctx, "blog", []string{"shop"}, "posts")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop:20240102030407000_orders"}, post.Depends)

	data, err := afero.ReadFile(fs, "migrations/blog/20240102030408000_posts.yaml")
	require.NoError(t, err)
	back, err := migration.ParseUnit(data)
	require.NoError(t, err)
	assert.Equal(t, post, back)
}

// TestCreateUnitExists refuses to overwrite a unit file.
func TestCreateUnitExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	s, err := sqly.NewSqly(sqly.Config{MigrationDir: "db"}, nil, sqly.WithFs(fs), sqly.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	_, path, err := s.CreateUnit(context.Background(), "shop", nil, "x")
	require.NoError(t, err)
	assert.Equal(t, "db/shop/20240506070809000_x.yaml", path)

	_, _, err = s.CreateUnit(context.Background(), "shop", nil, "x")
	assert.ErrorContains(t, err, "already exists")
}
