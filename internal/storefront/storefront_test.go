package storefront_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/skillhunter-backend/internal/cart"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront/storefronttest"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

func TestOpenRejectsGuessableDeviceIDs(t *testing.T) {
	w := storefronttest.New(t, storefronttest.Options{})
	for _, raw := range []string{
		"  ",
		"1",
		"test",
		"device-1",
		"00000000-0000-0000-0000-000000000000",
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		strings.Repeat("a", 200),
	} {
		_, err := w.Factory.Open(context.Background(), raw)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "device id %q must be rejected, got %v", raw, err)
	}
}

func TestGuessedDeviceIDCannotReachVictimSession(t *testing.T) {
	w := storefronttest.New(t, storefronttest.Options{})
	victim := w.SignedIn(t, "victim", "Victim", "victim@example.com")
	require.NotNil(t, victim)

	for _, guess := range []string{"1", "victim", "device-1"} {
		_, err := w.Factory.Open(context.Background(), guess)
		require.Error(t, err)
	}

	stranger := w.Open(t, "stranger")
	assert.Nil(t, stranger.Session.CurrentUser())
}

func TestOpenAcceptsRandomUUIDAndCanonicalizes(t *testing.T) {
	w := storefronttest.New(t, storefronttest.Options{})
	id := storefront.NewDeviceID()

	app, err := w.Factory.Open(context.Background(), "  "+strings.ToUpper(id)+" ")
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.Equal(t, id, app.DeviceID)

	parsed, err := uuid.Parse(app.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestParseDeviceID(t *testing.T) {
	id := storefront.NewDeviceID()
	got, err := storefront.ParseDeviceID(id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = storefront.ParseDeviceID("1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewFactoryRequiresCollaborators(t *testing.T) {
	_, err := storefront.NewFactory(storefront.FactoryParams{})
	assert.Error(t, err)
}

func TestAnonymousCartSurvivesLoginAndLogoutPurgesIt(t *testing.T) {
	w := storefronttest.New(t, storefronttest.Options{})
	ctx := context.Background()
	courseA := w.Course(t, "Course A", "24.50")

	app := w.Open(t, "device-1")
	assert.False(t, app.Session.IsLoading())
	assert.Nil(t, app.Session.CurrentUser())

	_, err := app.Session.Register(ctx, "Ada", "ada@example.com", storefronttest.Password)
	require.NoError(t, err)
	require.NoError(t, app.Session.Logout(ctx))
	assert.Nil(t, app.Session.CurrentUser())

	changed, err := app.Cart.Add(ctx, courseA)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, app.Cart.Items(), 1)
	assert.True(t, app.Cart.Total().Equal(courseA.Price))

	res, err := app.Session.Login(ctx, "ada@example.com", storefronttest.Password)
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)
	user := app.Session.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.FullName)

	require.Len(t, app.Cart.Items(), 1, "login must not clear the cart")
	assert.True(t, app.Cart.Total().Equal(courseA.Price))

	require.NoError(t, app.Session.Logout(ctx))
	raw, ok, _ := w.Device("device-1").GetItem(ctx, cart.StorageKey)
	assert.False(t, ok, "cart key must be purged, got %q", raw)

	fresh := w.Open(t, "device-1")
	assert.Empty(t, fresh.Cart.Items())
	assert.Nil(t, fresh.Session.CurrentUser())
}

func TestCheckoutFlowAcrossRequests(t *testing.T) {
	w := storefronttest.New(t, storefronttest.Options{})
	ctx := context.Background()
	a, b := w.Course(t, "A", "10"), w.Course(t, "B", "15.25")

	first := w.Open(t, "device-2")
	_, err := first.Session.Register(ctx, "Grace", "grace@example.com", storefronttest.Password)
	require.NoError(t, err)
	_, err = first.Cart.Add(ctx, a)
	require.NoError(t, err)
	_, err = first.Cart.Add(ctx, b)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := w.Open(t, "device-2")
	require.NotNil(t, second.Session.CurrentUser(), "persisted session should be restored")
	assert.Equal(t, "Grace", second.Session.CurrentUser().FullName)
	require.Len(t, second.Cart.Items(), 2)

	order, err := second.Checkout.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("25.25")))
	assert.Empty(t, second.Cart.Items())

	history, err := second.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Len(t, history[0].Courses, 2)

	other := w.Open(t, "device-3")
	assert.Nil(t, other.Session.CurrentUser(), "sessions are per device")
	_, err = other.Orders.List(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestConfirmationRequiredWithholdsSession(t *testing.T) {
	w := storefronttest.New(t, storefronttest.Options{RequireEmailConfirmation: true})
	ctx := context.Background()

	app := w.Open(t, "device-4")
	res, err := app.Session.Register(ctx, "Linus", "linus@example.com", storefronttest.Password)
	require.NoError(t, err)
	assert.True(t, res.RequiresConfirmation)
	assert.Nil(t, app.Session.CurrentUser())

	_, err = app.Session.Login(ctx, "linus@example.com", storefronttest.Password)
	require.Error(t, err)

	tokens := w.KV.ConfirmationTokens()
	require.Len(t, tokens, 1)
	require.NoError(t, w.Provider.ConfirmEmail(ctx, tokens[0]))

	_, err = app.Session.Login(ctx, "linus@example.com", storefronttest.Password)
	require.NoError(t, err)
	assert.Equal(t, "Linus", app.Session.CurrentUser().FullName)
}
