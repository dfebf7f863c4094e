package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/media/")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "recipes/a.png", []byte("png"), "image/png"))

	got, err := os.ReadFile(filepath.Join(root, "recipes", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))
	assert.Equal(t, "/media/recipes/a.png", store.GetPublicLink("recipes/a.png"))
	assert.Empty(t, store.GetPublicLink(""))

	require.NoError(t, store.Delete(ctx, "recipes/a.png"))
	_, err = os.Stat(filepath.Join(root, "recipes", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "recipes/a.png"))
}

func TestLocalStorageKeepsKeysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/media")
	require.NoError(t, err)

	require.NoError(t, store.Upload(context.Background(), "../../escape.txt", []byte("x"), "text/plain"))
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}

func TestNewLocalStorageRequiresRoot(t *testing.T) {
	_, err := NewLocalStorage(" ", "/media")
	assert.Error(t, err)
}
