package migration

import (
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/002_create_purchases.up.sql":   {Data: []byte("CREATE TABLE purchases ();")},
		"migrations/002_create_purchases.down.sql": {Data: []byte("DROP TABLE purchases;")},
		"migrations/001_create_models.up.sql":      {Data: []byte("CREATE TABLE models ();")},
		"migrations/001_create_models.down.sql":    {Data: []byte("DROP TABLE models;")},
	}
}

func TestLoadMigrations_SortedByVersion(t *testing.T) {
	m := NewMigrator(nil, slog.Default(), testFS())

	migrations, err := m.loadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_models", migrations[0].Name)
	assert.Equal(t, "CREATE TABLE models ();", migrations[0].UpSQL)
	assert.Equal(t, "DROP TABLE models;", migrations[0].DownSQL)

	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "create_purchases", migrations[1].Name)
}

func TestLoadMigrations_MissingDownFails(t *testing.T) {
	fsys := testFS()
	delete(fsys, "migrations/002_create_purchases.down.sql")

	m := NewMigrator(nil, slog.Default(), fsys)

	_, err := m.loadMigrations()
	assert.Error(t, err)
}

func TestLoadMigrations_SkipsUnversionedFiles(t *testing.T) {
	fsys := testFS()
	fsys["migrations/notes.up.sql"] = &fstest.MapFile{Data: []byte("-- scratch")}

	m := NewMigrator(nil, slog.Default(), fsys)

	migrations, err := m.loadMigrations()
	require.NoError(t, err)
	assert.Len(t, migrations, 2)
}

func TestChecksum_Stable(t *testing.T) {
	first := checksum("CREATE TABLE models ();")
	second := checksum("CREATE TABLE models ();")
	changed := checksum("CREATE TABLE models (id uuid);")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, changed)
	assert.Len(t, first, 64)
}
