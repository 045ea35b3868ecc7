package cache

import (
	"context"
	"database/sql"
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repositories.InitSchema(context.Background(), db))
	return db
}

func TestSQLDistanceCache(t *testing.T) {
	ctx := context.Background()
	c := NewSQLDistanceCache(openTestDB(t))

	_, ok, err := c.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "a", "b", ports.DistanceResult{DistanceMeters: 10, DurationSeconds: 2}))
	require.NoError(t, c.Put(ctx, "a", "b", ports.DistanceResult{DistanceMeters: 11, DurationSeconds: 3}))

	r, ok, err := c.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ports.DistanceResult{DistanceMeters: 11, DurationSeconds: 3}, r)

	_, ok, err = c.Get(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok, "cache entries are directional")

	assert.Error(t, c.Put(ctx, "", "b", ports.DistanceResult{}))
}

func TestSQLGeocodeCache(t *testing.T) {
	ctx := context.Background()
	c := NewSQLGeocodeCache(openTestDB(t))

	want := domain.Location{Lat: 52.406374, Lon: 16.9251681}
	require.NoError(t, c.Put(ctx, "Poznan", want))

	got, ok, err := c.Get(ctx, " Poznan ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = c.Get(ctx, "Warsaw")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilDBIsAnError(t *testing.T) {
	_, _, err := (&SQLDistanceCache{}).Get(context.Background(), "a", "b")
	assert.Error(t, err)
	_, _, err = (&SQLGeocodeCache{}).Get(context.Background(), "a")
	assert.Error(t, err)
}
