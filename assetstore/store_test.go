package assetstore_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cavemicro/isolate-api/assetstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := assetstore.NewMemoryStore()

	url, err := store.Upload(ctx, "isolates/1/a.png", strings.NewReader("pixels"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "memory://isolates/1/a.png", url)
	assert.Equal(t, 1, store.Len())

	deleted, err := store.Delete(ctx, "isolates/1/a.png")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, store.Len())

	deleted, err = store.Delete(ctx, "isolates/1/a.png")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestKeyFromURL(t *testing.T) {
	assert.Equal(t, "isolates/1/a.png", assetstore.KeyFromURL("memory://isolates/1/a.png"))
	assert.Equal(t, "isolates/1/a.png",
		assetstore.KeyFromURL("https://bucket.s3.us-east-1.amazonaws.com/isolates/1/a.png"))
	assert.Equal(t, "", assetstore.KeyFromURL("://bad"))
}
