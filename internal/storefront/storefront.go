// Package storefront assembles the per-device application: local storage, auth,
// the session and cart stores, and the catalog query layer.
package storefront

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/skillhunter-backend/internal/cart"
	"github.com/angelmondragon/skillhunter-backend/internal/catalog"
	"github.com/angelmondragon/skillhunter-backend/internal/checkout"
	"github.com/angelmondragon/skillhunter-backend/internal/orders"
	"github.com/angelmondragon/skillhunter-backend/internal/reviews"
	"github.com/angelmondragon/skillhunter-backend/internal/session"
	"github.com/angelmondragon/skillhunter-backend/internal/wishlist"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// StorageFactory returns the durable storage of a device.
type StorageFactory func(deviceID string) (localstore.Store, error)

// AuthFactory binds the auth provider to a device's storage.
type AuthFactory func(storage localstore.Store) dataservice.Auth

type FactoryParams struct {
	Storage    StorageFactory
	Auth       AuthFactory
	Tables     dataservice.Tables
	Instrument dataservice.InstrumentOptions
	Logger     *logger.Logger
}

// Factory opens Apps. It is shared by all requests.
type Factory struct {
	storage    StorageFactory
	auth       AuthFactory
	tables     dataservice.Tables
	instrument dataservice.InstrumentOptions
	logg       *logger.Logger
}

func NewFactory(params FactoryParams) (*Factory, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("storage factory is required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("auth factory is required")
	}
	if params.Tables == nil {
		return nil, fmt.Errorf("tables client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Factory{
		storage:    params.Storage,
		auth:       params.Auth,
		tables:     dataservice.InstrumentTables(params.Tables, params.Instrument),
		instrument: params.Instrument,
		logg:       params.Logger,
	}, nil
}

// App is everything one device sees. Release it with Close.
type App struct {
	DeviceID string
	Auth     dataservice.Auth
	Session  *session.Store
	Cart     *cart.Store
	Catalog  catalog.Service
	Reviews  reviews.Service
	Wishlist wishlist.Service
	Orders   orders.Service
	Checkout checkout.Service

	storage localstore.Store
}

// NewDeviceID issues a fresh device id.
func NewDeviceID() string {
	return uuid.NewString()
}

// ParseDeviceID accepts only random (version 4) UUIDs, since the id is the sole
// credential of the device's session. It returns the canonical form.
func ParseDeviceID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "device id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 || id.Variant() != uuid.RFC4122 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "device id must be a random UUID")
	}
	return id.String(), nil
}

// Open builds the App of deviceID, resolving its session and loading its cart.
func (f *Factory) Open(ctx context.Context, deviceID string) (*App, error) {
	deviceID, err := ParseDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	ctx = f.logg.WithDeviceID(ctx, deviceID)

	storage, err := f.storage(deviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open device storage")
	}
	auth := dataservice.InstrumentAuth(f.auth(storage), f.instrument)

	app := &App{DeviceID: deviceID, Auth: auth, storage: storage}
	if err := f.wire(app); err != nil {
		return nil, err
	}

	app.Session.Init(ctx)
	app.Cart.Load(ctx)
	return app, nil
}

func (f *Factory) wire(app *App) error {
	var err error
	app.Session, err = session.NewStore(session.StoreParams{
		Auth:      app.Auth,
		Tables:    f.tables,
		Storage:   app.storage,
		Logger:    f.logg,
		PurgeKeys: []string{cart.StorageKey},
	})
	if err != nil {
		return err
	}
	if app.Cart, err = cart.NewStore(app.storage, f.logg); err != nil {
		return err
	}
	if app.Catalog, err = catalog.NewService(f.tables); err != nil {
		return err
	}
	if app.Reviews, err = reviews.NewService(reviews.ServiceParams{Auth: app.Auth, Tables: f.tables}); err != nil {
		return err
	}
	if app.Wishlist, err = wishlist.NewService(wishlist.ServiceParams{Auth: app.Auth, Tables: f.tables}); err != nil {
		return err
	}
	if app.Orders, err = orders.NewService(orders.ServiceParams{Auth: app.Auth, Tables: f.tables, Logger: f.logg}); err != nil {
		return err
	}
	app.Checkout, err = checkout.NewService(checkout.ServiceParams{Cart: app.Cart, Orders: app.Orders, Logger: f.logg})
	return err
}

// Close releases the auth subscription and any closable storage.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	if a.Session != nil {
		a.Session.Close()
	}
	if closer, ok := a.storage.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}
