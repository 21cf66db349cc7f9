package storage

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisDocumentStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewRedisClient("redis://"+mr.Addr()+"/0", logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedisDocumentStore(client, logger), mr
}

func TestRedisDocumentStore_RoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "doc1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "doc1", []byte(`{"title":"x"}`)))
	assert.True(t, mr.Exists("preview:doc1"))

	doc, err := store.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, string(doc))

	require.NoError(t, store.Delete(ctx, "doc1"))
	_, err = store.Get(ctx, "doc1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "doc1"))
}

func TestNewRedisClient_Errors(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := NewRedisClient("not a url", logger)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient("redis://"+addr, logger)
	assert.Error(t, err)
}
