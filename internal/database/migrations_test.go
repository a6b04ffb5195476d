package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRegisteredMigrations(t *testing.T) {
	set := Registered()
	require.NotEmpty(t, set)

	for i, m := range set {
		assert.NotEmpty(t, m.Up, m.ID())
		assert.NotEmpty(t, m.Down, m.ID())
		if i > 0 {
			assert.Greater(t, m.Version, set[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init", set[0].ID())
	assert.Contains(t, set[0].Up, "PRIMARY KEY (user_id, post_id)")

	_, ok := Lookup(1)
	assert.True(t, ok)
	_, ok = Lookup(999)
	assert.False(t, ok)
}

func TestParseMigrations(t *testing.T) {
	t.Run("orders by version and skips unversioned files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/000002_b.up.sql":   {Data: []byte("B;")},
			"sql/000002_b.down.sql": {Data: []byte("-B;")},
			"sql/000001_a.up.sql":   {Data: []byte("A;")},
			"sql/000001_a.down.sql": {Data: []byte("-A;")},
			"sql/noversion.up.sql":  {Data: []byte("X;")},
			"sql/README.md":         {Data: []byte("docs")},
		}
		set, err := ParseMigrations(fsys, "sql")
		require.NoError(t, err)
		require.Len(t, set, 2)
		assert.Equal(t, "a", set[0].Name)
		assert.Equal(t, "-B;", set[1].Down)
	})

	t.Run("down script is required", func(t *testing.T) {
		fsys := fstest.MapFS{"sql/000001_a.up.sql": {Data: []byte("A;")}}
		_, err := ParseMigrations(fsys, "sql")
		assert.ErrorContains(t, err, "no down script")
	})

	t.Run("version must be numeric", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/first_a.up.sql":   {Data: []byte("A;")},
			"sql/first_a.down.sql": {Data: []byte("-A;")},
		}
		_, err := ParseMigrations(fsys, "sql")
		assert.Error(t, err)
	})
}

func widgetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "widgets", Up: "CREATE TABLE widgets (id INTEGER PRIMARY KEY)", Down: "DROP TABLE widgets"},
		{Version: 2, Name: "gadgets", Up: "CREATE TABLE gadgets (id INTEGER PRIMARY KEY)", Down: "DROP TABLE gadgets"},
	}
}

func bareSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := ConnectWithOptions(context.Background(), sqliteConfig(), ConnectOptions{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func TestMigrator_UpAndDown(t *testing.T) {
	ctx := context.Background()
	db := bareSQLite(t)
	m := NewMigrator(db, widgetMigrations())

	applied, pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Len(t, pending, 2)

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("widgets"))
	assert.True(t, db.Migrator().HasTable("gadgets"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second run is a no-op")

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("gadgets"))
	versions, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)

	assert.ErrorContains(t, m.Down(ctx, 2), "not applied")
	assert.ErrorContains(t, m.Down(ctx, 42), "no migration")
}

func TestMigrator_FailedScriptLeavesNoLedgerRow(t *testing.T) {
	ctx := context.Background()
	db := bareSQLite(t)
	set := append(widgetMigrations(), Migration{Version: 3, Name: "broken", Up: "CREATE TABLE", Down: "SELECT 1"})
	m := NewMigrator(db, set)

	n, err := m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003_broken")
	assert.Equal(t, 2, n)

	versions, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestMigrator_RejectsUnknownLedgerVersions(t *testing.T) {
	ctx := context.Background()
	db := bareSQLite(t)

	_, err := NewMigrator(db, widgetMigrations()).Up(ctx)
	require.NoError(t, err)

	older := NewMigrator(db, widgetMigrations()[:1])
	_, _, err = older.Pending(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000002")
}
