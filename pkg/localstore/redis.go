package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/angelmondragon/skillhunter-backend/pkg/redis"
)

type kv interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LocalItemKey(namespace, deviceID, key string) string
}

// Redis stores one device's items under sh:<namespace>:<device>:<key>.
// Every write refreshes the item's TTL.
type Redis struct {
	client    kv
	namespace string
	deviceID  string
	ttl       time.Duration
}

func NewRedis(client kv, namespace, deviceID string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrDeviceRequired
	}
	return &Redis{client: client, namespace: namespace, deviceID: deviceID, ttl: ttl}, nil
}

func (r *Redis) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key))
	if errors.Is(err, redisclient.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get local item %q: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) SetItem(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl); err != nil {
		return fmt.Errorf("set local item %q: %w", key, err)
	}
	return nil
}

func (r *Redis) RemoveItem(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)); err != nil {
		return fmt.Errorf("remove local item %q: %w", key, err)
	}
	return nil
}

func (r *Redis) key(key string) string {
	return r.client.LocalItemKey(r.namespace, r.deviceID, key)
}
