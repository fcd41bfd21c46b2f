package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synq/backend/internal/db/migrations"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_init.sql")
	assert.Contains(t, files, "00002_audit_and_keys.sql")
}

func TestMigrate_PropagatesError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return errors.New("boom")
	}

	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, ".", gotDir)
}

func TestMigrate_Success(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error { return nil }

	require.NoError(t, Migrate(context.Background(), nil))
}
