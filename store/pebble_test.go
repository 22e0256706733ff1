package store

import (
	"context"
	"testing"

	"github.com/axmq/mqttcore/encoding"
	"github.com/axmq/mqttcore/types/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPebbleStore(t *testing.T) *PebbleStore[*message.Message] {
	t.Helper()
	s, err := NewPebbleStore[*message.Message](PebbleStoreConfig{
		Path:   t.TempDir(),
		Prefix: "msglog:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPebbleStore_SaveAndLoadRoundTrip(t *testing.T) {
	s := newTestPebbleStore(t)

	rec := message.New(7, "tp/aa", []byte("payload"), encoding.QoS2, true)
	require.NoError(t, s.Save(context.Background(), "out-7-1", rec))

	got, err := s.Load(context.Background(), "out-7-1")
	require.NoError(t, err)
	assert.Equal(t, uint16(7), got.PacketID)
	assert.Equal(t, "tp/aa", got.Topic)
	assert.Equal(t, []byte("payload"), got.Payload)
	assert.Equal(t, encoding.QoS2, got.QoS)
	assert.True(t, got.Retain)
}

func TestPebbleStore_LoadMissingKey(t *testing.T) {
	s := newTestPebbleStore(t)

	_, err := s.Load(context.Background(), "out-404-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPebbleStore_DeleteAndExists(t *testing.T) {
	s := newTestPebbleStore(t)

	rec := message.New(3, "t", []byte("x"), encoding.QoS1, false)
	require.NoError(t, s.Save(context.Background(), "in-3-1", rec))

	ok, err := s.Exists(context.Background(), "in-3-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(context.Background(), "in-3-1"))

	ok, err = s.Exists(context.Background(), "in-3-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPebbleStore_ListAndCountScopedToPrefix(t *testing.T) {
	s := newTestPebbleStore(t)

	for i, key := range []string{"out-1-1", "out-2-2", "in-3-3"} {
		rec := message.New(uint16(i+1), "t", []byte("x"), encoding.QoS0, false)
		require.NoError(t, s.Save(context.Background(), key, rec))
	}

	keys, err := s.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"out-1-1", "out-2-2", "in-3-3"}, keys)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPebbleStore_OperationsAfterClose(t *testing.T) {
	s, err := NewPebbleStore[*message.Message](PebbleStoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	rec := message.New(1, "t", []byte("x"), encoding.QoS0, false)
	assert.ErrorIs(t, s.Save(context.Background(), "k", rec), ErrStoreClosed)
	_, err = s.Load(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStoreClosed)
}
