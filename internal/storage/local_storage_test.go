package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage("http://localhost:8080/uploads/files/", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := store.Save(ctx, "abc.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	exists, size, err := store.Exists(ctx, "abc.png")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(9), size)

	rc, err := store.Open(ctx, "abc.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "http://localhost:8080/uploads/files/abc.png", store.URL("abc.png"))

	require.NoError(t, store.Delete(ctx, "abc.png"))
	exists, _, err = store.Exists(ctx, "abc.png")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, "abc.png"))
}

func TestLocalStorage_OpenMissing(t *testing.T) {
	store, err := NewLocalStorage("http://x", t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_RejectsUnsafeKeys(t *testing.T) {
	store, err := NewLocalStorage("http://x", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../secret", "a/b.png", ".hidden"} {
		_, err := store.Save(ctx, key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(Config{Type: "s3", UploadDir: t.TempDir()})
	assert.Error(t, err)

	store, err := New(Config{UploadDir: t.TempDir(), BaseURL: "http://x"})
	require.NoError(t, err)
	assert.NotNil(t, store)
}
