package s3

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	faker := gofakes3.New(s3mem.New())
	server := httptest.NewServer(faker.Server())
	t.Cleanup(server.Close)

	b, err := New(context.Background(), Config{
		Endpoint:        server.Listener.Addr().String(),
		Bucket:          "strata-test",
		Region:          "us-east-1",
		AccessKeyID:     "KEY",
		SecretAccessKey: "SECRET",
	})
	require.NoError(t, err)
	return b
}

func TestCreateThenOpenRoundTrips(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	w, err := b.Create(ctx, "manifest/m1")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := b.Open(ctx, "manifest/m1")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestOpenMissingObjectReportsNotFound(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	_, err := b.Open(ctx, "missing")
	assert.Error(t, err)
}

func TestExistsAndRemove(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	ok, err := b.Exists(ctx, "snapshot/snapshot-1")
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := b.Create(ctx, "snapshot/snapshot-1")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ok, err = b.Exists(ctx, "snapshot/snapshot-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Remove(ctx, "snapshot/snapshot-1"))
	ok, err = b.Exists(ctx, "snapshot/snapshot-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListReturnsKeysUnderPrefix(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	for _, name := range []string{"manifest/a", "manifest/b", "snapshot/snapshot-1"} {
		w, err := b.Create(ctx, name)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	names, err := b.List(ctx, "manifest")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}
