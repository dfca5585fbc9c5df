package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "homehub/pkg/logx"
)

func TestOpenAppliesSchema(t *testing.T) {
	t.Parallel()
	db, err := Open(Config{Path: ":memory:"}, logx.Nop())
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	require.NoError(t, db.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`))
	for _, want := range []string{
		"users", "events", "foods", "cates", "ingredients", "images",
		"food_cates", "food_ingredients",
		"crontab_schedules", "interval_schedules", "scheduled_tasks",
	} {
		assert.Contains(t, tables, want)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "data", "homehub.db")

	db, err := Open(Config{Path: path}, logx.Nop())
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users(username, password, is_admin) VALUES('a','x',0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not wipe existing rows.
	db, err = Open(Config{Path: path}, logx.Nop())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, n)
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	_, err := Open(Config{}, logx.Nop())
	require.Error(t, err)
}
