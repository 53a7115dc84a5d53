package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	files, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestUsersTableConstraints(t *testing.T) {
	body, err := fs.ReadFile(Migrations, "00001_create_users.sql")
	require.NoError(t, err)
	sql := strings.ToLower(string(body))

	assert.Contains(t, sql, "lower(email)")
	assert.Contains(t, sql, "cardinality(face_descriptor) = 128")
	assert.Contains(t, sql, "reset_token_hash")
}
