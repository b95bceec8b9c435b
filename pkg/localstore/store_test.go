package localstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.GetItem(ctx, "skillHunter_cart")
	require.NoError(t, err)
	assert.False(t, ok, "absent key should report ok=false")

	require.NoError(t, store.SetItem(ctx, "skillHunter_cart", "[]"))
	require.NoError(t, store.SetItem(ctx, "skillHunter_cart", `[{"quantity":1}]`))

	v, ok, err := store.GetItem(ctx, "skillHunter_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"quantity":1}]`, v, "last writer wins")

	require.NoError(t, store.RemoveItem(ctx, "skillHunter_cart"))
	_, ok, err = store.GetItem(ctx, "skillHunter_cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.RemoveItem(ctx, "never-set"), "removing an absent key is a no-op")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	client := newFakeKV()
	store, err := NewRedis(client, "", "device-1", time.Hour)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.SetItem(context.Background(), "k", "v"))
	assert.Equal(t, time.Hour, client.ttls["sh:local:device-1:k"])

	other, err := NewRedis(client, "", "device-2", time.Hour)
	require.NoError(t, err)
	_, ok, err := other.GetItem(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok, "devices must not share items")
}

func TestRedisStoreRequiresDevice(t *testing.T) {
	_, err := NewRedis(newFakeKV(), "", "  ", time.Hour)
	assert.ErrorIs(t, err, ErrDeviceRequired)
}

func TestDBStore(t *testing.T) {
	db := newLocalItemsDB(t)
	store, err := NewDB(db, "device-1")
	require.NoError(t, err)
	exerciseStore(t, store)

	other, err := NewDB(db, "device-2")
	require.NoError(t, err)
	require.NoError(t, store.SetItem(context.Background(), "k", "one"))
	_, ok, err := other.GetItem(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newLocalItemsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
		CREATE TABLE local_items (
			device_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME,
			PRIMARY KEY (device_id, key)
		)
	`).Error)
	return db
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) LocalItemKey(namespace, deviceID, key string) string {
	if namespace == "" {
		namespace = "local"
	}
	return "sh:" + namespace + ":" + deviceID + ":" + key
}
