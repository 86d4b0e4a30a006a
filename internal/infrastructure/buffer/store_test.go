package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	boltInfra "github.com/fastygo/assettrack/internal/infrastructure/bolt"
)

func newStore(t *testing.T) (*Store, *bolt.DB) {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "outbox.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), db
}

func TestStore_EnqueueOrdersOldestFirst(t *testing.T) {
	store, _ := newStore(t)
	base := time.Now().Add(-time.Minute)

	require.NoError(t, store.Enqueue(Item{UserID: 2, Token: "b", Timestamp: base.Add(2 * time.Second)}))
	require.NoError(t, store.Enqueue(Item{UserID: 1, Token: "a", Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{UserID: 3, Token: "c", Timestamp: base.Add(4 * time.Second)}))

	items, err := store.GetBatch(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Token)
	assert.Equal(t, "b", items[1].Token)
	assert.Equal(t, OperationLogout, items[0].Operation)
	assert.NotEmpty(t, items[0].ID)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestStore_Remove(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Enqueue(Item{Token: "a"}))

	items, err := store.GetBatch(0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, store.Remove(items[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestStore_RequeueMovesToBack(t *testing.T) {
	store, _ := newStore(t)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.Enqueue(Item{Token: "a", Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{Token: "b", Timestamp: base.Add(time.Second)}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	first := items[0]
	first.Retries++
	require.NoError(t, store.Requeue(first))

	items, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Token)
	assert.Equal(t, "a", items[1].Token)
	assert.Equal(t, 1, items[1].Retries)
}

func TestStore_Cleanup(t *testing.T) {
	store, db := newStore(t)
	now := time.Now()
	require.NoError(t, store.Enqueue(Item{Token: "old", Timestamp: now.Add(-100 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{Token: "older", Timestamp: now.Add(-200 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{Token: "fresh", Timestamp: now}))
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltInfra.BucketOutbox)).Put([]byte("garbage"), []byte("{"))
	}))

	removed, err := store.Cleanup(now.Add(-72 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].Token)
}

func TestStore_NilDatabase(t *testing.T) {
	var store *Store
	assert.ErrorIs(t, store.Enqueue(Item{}), bolt.ErrDatabaseNotOpen)
	_, err := store.Size()
	assert.ErrorIs(t, err, bolt.ErrDatabaseNotOpen)
}
