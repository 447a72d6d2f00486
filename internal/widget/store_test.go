package widget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	store := NewStore(backend, "test")
	store.Load()
	return store, backend
}

func TestStoreAppendOnlyOrdering(t *testing.T) {
	store, _ := newTestStore(t)

	first := NewMessage(RoleUser, "first")
	second := NewMessage(RoleAssistant, "")
	second.Streaming = true
	third := NewMessage(RoleUser, "third")

	store.Append(first)
	store.Append(second)

	// Interleaved mutations must not affect order.
	require.NoError(t, store.MutateLast("partial"))
	require.NoError(t, store.MutateLast("partial grown"))
	store.FinalizeLast()
	store.Append(third)

	messages := store.Messages()
	require.Len(t, messages, 4) // seed + three appends
	assert.Equal(t, first.ID, messages[1].ID)
	assert.Equal(t, second.ID, messages[2].ID)
	assert.Equal(t, third.ID, messages[3].ID)
	assert.Equal(t, "partial grown", messages[2].Content)
}

func TestStoreMutateLastRequiresStreaming(t *testing.T) {
	store, _ := newTestStore(t)

	store.Append(NewMessage(RoleUser, "hello"))
	assert.Error(t, store.MutateLast("nope"))

	reply := NewMessage(RoleAssistant, "")
	reply.Streaming = true
	store.Append(reply)
	assert.NoError(t, store.MutateLast("ok"))

	store.FinalizeLast()
	assert.Error(t, store.MutateLast("closed"))
}

func TestStoreLoadFallsBackToSeed(t *testing.T) {
	backend := NewMemoryBackend()
	backend.fail = true

	store := NewStore(backend, "broken")
	store.Load()

	require.Equal(t, 1, store.Len())
	assert.Equal(t, RoleAssistant, store.Messages()[0].Role)
}

func TestStoreSeedGreetingTracksTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{hour: 8, want: "Good morning"},
		{hour: 14, want: "Good afternoon"},
		{hour: 21, want: "Good evening"},
	}
	for _, tt := range tests {
		now := time.Date(2026, 3, 1, tt.hour, 0, 0, 0, time.UTC)
		assert.Contains(t, seedMessage(now).Content, tt.want)
	}
}

func TestStorePersistSkippedWithOnlySeed(t *testing.T) {
	store, backend := newTestStore(t)

	require.NoError(t, store.Persist())
	stored, err := backend.Read("test")
	require.NoError(t, err)
	assert.Empty(t, stored, "untouched conversation should not be persisted")

	store.Append(NewMessage(RoleUser, "hello"))
	require.NoError(t, store.Persist())
	stored, err = backend.Read("test")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestStoreClearIsIdempotent(t *testing.T) {
	store, backend := newTestStore(t)

	store.Append(NewMessage(RoleUser, "hello"))
	require.NoError(t, store.Persist())

	require.NoError(t, store.Clear())
	require.Equal(t, 1, store.Len())
	stored, err := backend.Read("test")
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, store.Clear())
	assert.Equal(t, 1, store.Len())
}

func TestFileBackendRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	messages := []Message{
		NewMessage(RoleAssistant, "hi"),
		NewMessage(RoleUser, "hello"),
	}
	require.NoError(t, backend.Write("visitor", messages))

	got, err := backend.Read("visitor")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, messages[0].ID, got[0].ID)
	assert.Equal(t, "hello", got[1].Content)

	require.NoError(t, backend.Erase("visitor"))
	_, err = backend.Read("visitor")
	assert.Error(t, err)

	// Erasing twice is fine.
	assert.NoError(t, backend.Erase("visitor"))
}
