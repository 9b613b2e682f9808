// ABOUTME: Tests for session identity creation, reuse, and degradation
// ABOUTME: Uses in-memory and SQLite stores plus a failing store double

package identity

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/edi-chat/internal/store"
)

// failingStore is a store.Store whose every operation fails.
type failingStore struct {
	getErr error
	setErr error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, store.ErrNotFound
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return f.setErr
}

func (f *failingStore) Delete(ctx context.Context, key string) error { return nil }
func (f *failingStore) Close() error                                  { return nil }

func TestGetOrCreate_CreatesAndPersists(t *testing.T) {
	kv := store.NewMemoryStore()
	ids := New(kv, nil)

	id := ids.GetOrCreate(t.Context())

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	stored, err := kv.Get(t.Context(), SessionKey)
	require.NoError(t, err)
	assert.Equal(t, id, string(stored))
	assert.False(t, ids.Degraded())
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	ids := New(store.NewMemoryStore(), nil)

	first := ids.GetOrCreate(t.Context())
	second := ids.GetOrCreate(t.Context())

	assert.Equal(t, first, second)
}

func TestGetOrCreate_ReusesExistingValue(t *testing.T) {
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(t.Context(), SessionKey, []byte("existing-id")))

	ids := New(kv, nil)
	assert.Equal(t, "existing-id", ids.GetOrCreate(t.Context()))
}

func TestGetOrCreate_BlankValueIsReplaced(t *testing.T) {
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(t.Context(), SessionKey, []byte("   ")))

	id := New(kv, nil).GetOrCreate(t.Context())
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestGetOrCreate_SharedAcrossStoreInstances(t *testing.T) {
	// Two runs of the widget against the same durable scope
	dbPath := filepath.Join(t.TempDir(), "widget.db")

	first, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	id1 := New(first, nil).GetOrCreate(t.Context())
	require.NoError(t, first.Close())

	second, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()
	id2 := New(second, nil).GetOrCreate(t.Context())

	assert.Equal(t, id1, id2)
}

func TestGetOrCreate_NilStoreDegrades(t *testing.T) {
	ids := New(nil, nil)

	id := ids.GetOrCreate(t.Context())
	assert.NotEmpty(t, id)
	assert.True(t, ids.Degraded())
	assert.Equal(t, id, ids.GetOrCreate(t.Context()), "degraded id is stable for the store's lifetime")
}

func TestGetOrCreate_ReadFailureDegrades(t *testing.T) {
	ids := New(&failingStore{getErr: errors.New("disk on fire")}, nil)

	id := ids.GetOrCreate(t.Context())
	assert.NotEmpty(t, id)
	assert.True(t, ids.Degraded())
}

func TestGetOrCreate_WriteFailureDegrades(t *testing.T) {
	ids := New(&failingStore{setErr: errors.New("read-only")}, nil)

	id := ids.GetOrCreate(t.Context())
	assert.NotEmpty(t, id)
	assert.True(t, ids.Degraded())
}

func TestGetOrCreate_ConcurrentCallersAgree(t *testing.T) {
	ids := New(store.NewMemoryStore(), nil)

	const n = 50
	results := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			results[i] = ids.GetOrCreate(context.Background())
		}()
	}
	wg.Wait()

	for _, id := range results {
		assert.Equal(t, results[0], id)
	}
}

func TestClear(t *testing.T) {
	kv := store.NewMemoryStore()
	ids := New(kv, nil)
	id := ids.GetOrCreate(t.Context())

	require.NoError(t, ids.Clear(t.Context()))

	_, err := kv.Get(t.Context(), SessionKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, id, ids.GetOrCreate(t.Context()), "cached id is unchanged")

	fresh := New(kv, nil).GetOrCreate(t.Context())
	assert.NotEqual(t, id, fresh)
}
