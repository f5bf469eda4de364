package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("fresh file is stamped with the default schema version", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, DefaultSchemaVersion, db.Version())
		assert.Equal(t, DefaultMaxVariables, db.MaxVariables())
	})

	t.Run("existing file keeps its stamped version", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(path, WithSchemaVersion(7))
		require.NoError(t, err)
		require.Equal(t, 7, db.Version())
		require.NoError(t, db.Close())

		// Reopen with a different requested version; the file wins.
		db, err = Open(path, WithSchemaVersion(2))
		require.NoError(t, err)
		defer db.Close()
		assert.Equal(t, 7, db.Version())
	})

	t.Run("options override defaults", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"),
			WithMaxVariables(500),
			WithReaders(2),
		)
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, 500, db.MaxVariables())
	})
}

func TestReadWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS kv(k blob, v blob)"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO kv VALUES (?, ?)", []byte("a"), []byte("1"))
		return err
	}))

	t.Run("committed writes are visible to readers", func(t *testing.T) {
		var value []byte
		require.NoError(t, db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
			return conn.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", []byte("a")).Scan(&value)
		}))
		assert.Equal(t, []byte("1"), value)
	})

	t.Run("a failing write rolls back", func(t *testing.T) {
		wantErr := fmt.Errorf("boom")
		err := db.Write(ctx, func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO kv VALUES (?, ?)", []byte("b"), []byte("2")); err != nil {
				return err
			}
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)

		var count int
		require.NoError(t, db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
			return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&count)
		}))
		assert.Equal(t, 1, count)
	})
}
