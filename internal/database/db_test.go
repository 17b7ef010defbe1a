package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"examtracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "exams.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenFromConfig(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.DatabasePath = filepath.Join(t.TempDir(), "from-config.db")

		db, err := Open(cfg)
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, "sqlite", db.GetDialect().Name())
		require.NoError(t, db.PingContext(context.Background()))
	})

	t.Run("unsupported type", func(t *testing.T) {
		cfg := config.Default()
		cfg.DatabaseType = "oracle"

		_, err := Open(cfg)
		assert.ErrorContains(t, err, "unsupported database type")
	})
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	applied, err := db.RunMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_exams.sql"}, applied)

	applied, err = db.RunMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "exams").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "exams", name)
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"m/001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/002_broken.sql": {Data: []byte("CREATE TABLE b (id INTEGER); THIS IS NOT SQL;")},
	}

	applied, err := db.runMigrations(ctx, fsys, "m")
	require.Error(t, err)
	assert.Equal(t, []string{"001_ok.sql"}, applied)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = ?", "b").Scan(&count))
	assert.Zero(t, count, "table from failed migration should be rolled back")

	ran, err := db.hasMigrationRun(ctx, "002_broken.sql")
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestWithTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT)")
	require.NoError(t, err)

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *Tx) error {
			_, err := tx.ExecReturningID(ctx, "INSERT INTO items (label) VALUES (?)", "kept")
			return err
		})
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO items (label) VALUES (?)", "dropped"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithTx(ctx, func(tx *Tx) error {
				_, _ = tx.ExecContext(ctx, "INSERT INTO items (label) VALUES (?)", "panicked")
				panic("boom")
			})
		})
	})

	var labels []string
	rows, err := db.QueryContext(ctx, "SELECT label FROM items ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var label string
		require.NoError(t, rows.Scan(&label))
		labels = append(labels, label)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"kept"}, labels)
}

func TestConcurrentWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT)")
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make(chan int64, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := db.ExecReturningID(ctx, "INSERT INTO items (label) VALUES (?)", "x")
			if err != nil {
				t.Errorf("concurrent insert failed: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}
