// Package storefronttest builds a complete storefront over in-memory sqlite and
// an in-process key/value store.
package storefronttest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	"github.com/angelmondragon/skillhunter-backend/pkg/auth/session"
	"github.com/angelmondragon/skillhunter-backend/pkg/config"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/authprovider"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/pgservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/dbtest"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// Password satisfies the provider's password policy.
const Password = "secret1"

// KV is the Redis subset used by sessions and confirmation tokens.
type KV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewKV() *KV {
	return &KV{data: map[string]string{}}
}

func (k *KV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = fmt.Sprint(value)
	return nil
}

func (k *KV) Get(_ context.Context, key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (k *KV) Del(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.data, key)
	}
	return nil
}

func (k *KV) AccessSessionKey(id string) string { return "session:" + id }

func (k *KV) ConfirmationKey(token string) string { return "confirm:" + token }

// ConfirmationTokens returns the pending confirmation tokens.
func (k *KV) ConfirmationTokens() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	var out []string
	for key := range k.data {
		if token, ok := strings.CutPrefix(key, "confirm:"); ok && token != "" {
			out = append(out, token)
		}
	}
	return out
}

type Options struct {
	RequireEmailConfirmation bool
}

// World is one storefront deployment with per-device memory storage.
type World struct {
	Conn     *gorm.DB
	Factory  *storefront.Factory
	Provider *authprovider.Provider
	KV       *KV
	Logger   *logger.Logger

	mu      sync.Mutex
	devices map[string]*localstore.Memory
	labels  map[string]string
}

func New(t *testing.T, opts Options) *World {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	conn := dbtest.Open(t)
	jwtCfg := config.JWTConfig{Secret: "s", Issuer: "skillhunter-test", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}

	kv := NewKV()
	sessions, err := session.NewManager(kv, jwtCfg)
	require.NoError(t, err)
	provider, err := authprovider.NewProvider(authprovider.ProviderParams{
		DB:            db.FromGorm(conn),
		Sessions:      sessions,
		Confirmations: kv,
		JWT:           jwtCfg,
		Password:      config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Auth:          config.AuthConfig{RequireEmailConfirmation: opts.RequireEmailConfirmation, ConfirmationTTL: time.Hour},
		Logger:        logg,
	})
	require.NoError(t, err)
	tables, err := pgservice.NewTables(conn)
	require.NoError(t, err)

	w := &World{Conn: conn, Provider: provider, KV: kv, Logger: logg, devices: map[string]*localstore.Memory{}, labels: map[string]string{}}
	w.Factory, err = storefront.NewFactory(storefront.FactoryParams{
		Storage:    func(deviceID string) (localstore.Store, error) { return w.storageFor(deviceID), nil },
		Auth:       func(s localstore.Store) dataservice.Auth { return provider.ForDevice(s) },
		Tables:     tables,
		Instrument: dataservice.InstrumentOptions{Timeout: 5 * time.Second},
		Logger:     logg,
	})
	require.NoError(t, err)
	return w
}

// DeviceID returns the device id issued for label, issuing one on first use.
func (w *World) DeviceID(label string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.labels[label]; !ok {
		w.labels[label] = storefront.NewDeviceID()
	}
	return w.labels[label]
}

// Device returns the storage of the device named label.
func (w *World) Device(label string) *localstore.Memory {
	return w.storageFor(w.DeviceID(label))
}

func (w *World) storageFor(deviceID string) *localstore.Memory {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.devices[deviceID]; !ok {
		w.devices[deviceID] = localstore.NewMemory()
	}
	return w.devices[deviceID]
}

// Course inserts a course with sensible defaults.
func (w *World) Course(t *testing.T, title, price string) models.Course {
	t.Helper()
	c := models.Course{
		Title: title, Description: "About " + title, Price: decimal.RequireFromString(price), Thumbnail: "t", Instructor: "i",
		Duration: "1h", Lessons: 4, Level: enums.CourseLevelBeginner, Category: "Dev", Rating: 4.5, Students: 10,
		Features: pq.StringArray{"Certificate"},
	}
	require.NoError(t, w.Conn.Create(&c).Error)
	return c
}

// Open opens the App of the device named label and closes it when the test ends.
func (w *World) Open(t *testing.T, label string) *storefront.App {
	t.Helper()
	app, err := w.Factory.Open(context.Background(), w.DeviceID(label))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

// SignedIn registers a learner and leaves the device named label signed in as them.
func (w *World) SignedIn(t *testing.T, label, name, email string) *models.Profile {
	t.Helper()
	app := w.Open(t, label)
	_, err := app.Session.Register(context.Background(), name, email, Password)
	require.NoError(t, err)
	user := app.Session.CurrentUser()
	require.NotNil(t, user)
	return user
}

// Promote flips the admin flag of a profile.
func (w *World) Promote(t *testing.T, id fmt.Stringer) {
	t.Helper()
	require.NoError(t, w.Conn.Model(&models.Profile{}).Where("id = ?", id.String()).Update("is_admin", true).Error)
}
