package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/illmade-knight/vehicle-intake/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRegistry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chats_id.txt")

	// Arrange: a registry over a file that does not exist yet.
	reg, err := session.NewFileRegistry(path)
	require.NoError(t, err)

	// Act
	require.NoError(t, reg.Register(ctx, 200))
	require.NoError(t, reg.Register(ctx, 100))
	require.NoError(t, reg.Register(ctx, 200)) // duplicate is a no-op

	// Assert: one integer id per line, full rewrite on each registration.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "100\n200\n", string(data))

	ids, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, ids)
}

func TestFileRegistry_LoadsExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chats_id.txt")
	require.NoError(t, os.WriteFile(path, []byte("7\n\n42\n"), 0o644))

	reg, err := session.NewFileRegistry(path)
	require.NoError(t, err)

	ids, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 42}, ids)
}

func TestFileRegistry_RejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats_id.txt")
	require.NoError(t, os.WriteFile(path, []byte("not-a-number\n"), 0o644))

	_, err := session.NewFileRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed registry line")
}
