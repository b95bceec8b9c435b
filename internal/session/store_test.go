package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/dstest"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const cartKey = "skillHunter_cart"

type fixture struct {
	auth     *dstest.Auth
	tables   *dstest.Tables
	storage  *localstore.Memory
	store    *Store
	profiles map[uuid.UUID]models.Profile
	fetchErr error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:     &dstest.Auth{},
		storage:  localstore.NewMemory(),
		profiles: map[uuid.UUID]models.Profile{},
	}
	f.tables = &dstest.Tables{Hook: func(call dstest.Call, dest any) error {
		if call.Table != dataservice.TableProfiles {
			return errors.New("unexpected table " + call.Table)
		}
		if f.fetchErr != nil {
			return f.fetchErr
		}
		filter, _ := call.Query.Filter("id")
		profile, ok := f.profiles[filter.Value.(uuid.UUID)]
		if !ok {
			return dataservice.ErrNoRows
		}
		*dest.(*models.Profile) = profile
		return nil
	}}
	store, err := NewStore(StoreParams{
		Auth:      f.auth,
		Tables:    f.tables,
		Storage:   f.storage,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		PurgeKeys: []string{cartKey},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	f.store = store
	return f
}

func (f *fixture) addProfile(name string, admin bool) *dataservice.Session {
	id := uuid.New()
	f.profiles[id] = models.Profile{ID: id, FullName: name, IsAdmin: admin}
	return &dataservice.Session{AccessToken: "token-" + name, User: dataservice.User{ID: id, Email: name + "@example.com"}}
}

func assertReady(t *testing.T, s *Store) {
	t.Helper()
	select {
	case <-s.Ready():
	default:
		t.Fatalf("ready channel not closed")
	}
	if s.IsLoading() {
		t.Fatalf("expected loading to be finished")
	}
}

func TestNewStoreRequiresCollaborators(t *testing.T) {
	if _, err := NewStore(StoreParams{}); err == nil {
		t.Fatalf("expected error for missing collaborators")
	}
}

func TestInitWithoutSession(t *testing.T) {
	f := newFixture(t)
	if !f.store.IsLoading() {
		t.Fatalf("store must start loading")
	}

	f.store.Init(context.Background())

	assertReady(t, f.store)
	if f.store.CurrentUser() != nil {
		t.Fatalf("expected no current user")
	}
	if got := len(f.tables.Calls("select")); got != 0 {
		t.Fatalf("expected no profile fetch, got %d", got)
	}
}

func TestInitResolvesExistingSession(t *testing.T) {
	f := newFixture(t)
	f.auth.Session = f.addProfile("ada", true)

	f.store.Init(context.Background())

	assertReady(t, f.store)
	user := f.store.CurrentUser()
	if user == nil || user.FullName != "ada" || !user.IsAdmin {
		t.Fatalf("unexpected current user %+v", user)
	}
}

func TestInitSurvivesGetSessionFailure(t *testing.T) {
	f := newFixture(t)
	f.auth.GetSessionErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")

	f.store.Init(context.Background())

	assertReady(t, f.store)
	if f.store.CurrentUser() != nil {
		t.Fatalf("expected nil user after failed lookup")
	}
}

func TestInitSurvivesGetSessionPanic(t *testing.T) {
	f := newFixture(t)
	f.auth.GetSessionPanic = "provider exploded"

	f.store.Init(context.Background())

	assertReady(t, f.store)
	if f.store.CurrentUser() != nil {
		t.Fatalf("expected nil user after panic")
	}
}

func TestInitRunsOnce(t *testing.T) {
	f := newFixture(t)
	f.store.Init(context.Background())
	f.store.Init(context.Background())

	if got := f.auth.ListenerCount(); got != 1 {
		t.Fatalf("expected one subscription, got %d", got)
	}
}

func TestProfileFetchFailureDegradesToLoggedOut(t *testing.T) {
	f := newFixture(t)
	f.auth.Session = f.addProfile("ada", false)
	f.fetchErr = pkgerrors.New(pkgerrors.CodeDependency, "data service unreachable")

	f.store.Init(context.Background())

	assertReady(t, f.store)
	if f.store.CurrentUser() != nil {
		t.Fatalf("expected nil user when profile fetch fails")
	}
}

func TestNotificationsReplaceCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Init(ctx)

	ada := f.addProfile("ada", false)
	f.auth.Emit(ctx, enums.AuthEventSignedIn, ada)
	if user := f.store.CurrentUser(); user == nil || user.FullName != "ada" {
		t.Fatalf("expected ada, got %+v", user)
	}

	grace := f.addProfile("grace", true)
	f.auth.Emit(ctx, enums.AuthEventTokenRefreshed, grace)
	if user := f.store.CurrentUser(); user == nil || user.FullName != "grace" {
		t.Fatalf("expected grace, got %+v", user)
	}

	f.auth.Emit(ctx, enums.AuthEventSignedOut, grace)
	if f.store.CurrentUser() != nil {
		t.Fatalf("signed out must clear the user")
	}
}

func TestStaleProfileResolutionIsDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Init(ctx)

	ada := f.addProfile("ada", false)
	inner := f.tables.Hook
	fired := false
	f.tables.Hook = func(call dstest.Call, dest any) error {
		if !fired {
			fired = true
			// a sign-out lands while ada's profile is still in flight
			f.auth.Emit(ctx, enums.AuthEventSignedOut, nil)
		}
		return inner(call, dest)
	}

	f.auth.Emit(ctx, enums.AuthEventSignedIn, ada)

	if user := f.store.CurrentUser(); user != nil {
		t.Fatalf("stale profile must not overwrite newer state, got %+v", user)
	}
}

func TestLoginReportsAdminFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Init(ctx)
	f.auth.SignInSession = f.addProfile("root", true)

	res, err := f.store.Login(ctx, " root@example.com ", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.IsAdmin {
		t.Fatalf("expected admin flag")
	}
	if user := f.store.CurrentUser(); user == nil || user.FullName != "root" {
		t.Fatalf("expected current user to follow sign-in, got %+v", user)
	}
}

func TestLoginAdminFlagFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Init(ctx)
	f.auth.SignInSession = f.addProfile("root", true)
	f.fetchErr = errors.New("timeout")

	res, err := f.store.Login(ctx, "root@example.com", "secret1")
	if err != nil {
		t.Fatalf("login must succeed, got %v", err)
	}
	if res.IsAdmin {
		t.Fatalf("admin must default to false")
	}
}

func TestLoginSurfacesProviderMessage(t *testing.T) {
	f := newFixture(t)
	f.auth.SignInErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid login credentials")

	_, err := f.store.Login(context.Background(), "x@example.com", "bad")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != "Invalid login credentials" {
		t.Fatalf("unexpected error %v", err)
	}

	f.auth.SignInErr = errors.New("Email not confirmed")
	_, err = f.store.Login(context.Background(), "x@example.com", "bad")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != "Email not confirmed" {
		t.Fatalf("untyped provider errors should become unauthorized, got %v", err)
	}
}

func TestRegisterTrimsEmailAndReportsConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.auth.SignUpResult = &dataservice.SignUpResult{User: &dataservice.User{ID: uuid.New()}}

	res, err := f.store.Register(ctx, "Ada Lovelace", "  ada@example.com\t", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !res.RequiresConfirmation {
		t.Fatalf("expected confirmation to be required without a session")
	}
	if f.auth.SignUpEmails[0] != "ada@example.com" {
		t.Fatalf("email not trimmed: %q", f.auth.SignUpEmails[0])
	}
	if f.auth.SignUpMetadata[0].FullName != "Ada Lovelace" {
		t.Fatalf("full name not passed as metadata")
	}

	sess := f.addProfile("grace", false)
	f.auth.SignUpResult = &dataservice.SignUpResult{User: &sess.User, Session: sess}
	res, err = f.store.Register(ctx, "Grace", "grace@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.RequiresConfirmation {
		t.Fatalf("session was issued, confirmation not required")
	}
}

func TestLogoutPurgesCartAndUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.auth.Session = f.addProfile("ada", false)
	f.store.Init(ctx)
	_ = f.storage.SetItem(ctx, cartKey, `[{"course":{"id":"x"},"quantity":1}]`)
	_ = f.storage.SetItem(ctx, "theme", "dark")

	if err := f.store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.store.CurrentUser() != nil {
		t.Fatalf("expected user to be cleared")
	}
	if _, ok, _ := f.storage.GetItem(ctx, cartKey); ok {
		t.Fatalf("cart key must be purged")
	}
	if _, ok, _ := f.storage.GetItem(ctx, "theme"); !ok {
		t.Fatalf("unrelated keys must survive logout")
	}
}

func TestLogoutClearsLocalStateWhenProviderFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.auth.Session = f.addProfile("ada", false)
	f.store.Init(ctx)
	_ = f.storage.SetItem(ctx, cartKey, "[]")
	f.auth.SignOutErr = errors.New("network down")

	err := f.store.Logout(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if f.store.CurrentUser() != nil {
		t.Fatalf("user must be cleared regardless")
	}
	if _, ok, _ := f.storage.GetItem(ctx, cartKey); ok {
		t.Fatalf("cart key must be purged regardless")
	}
}

func TestCloseReleasesSubscriptionOnce(t *testing.T) {
	f := newFixture(t)
	f.store.Init(context.Background())
	if f.auth.ListenerCount() != 1 {
		t.Fatalf("expected active subscription")
	}

	f.store.Close()
	f.store.Close()

	if f.auth.ListenerCount() != 0 {
		t.Fatalf("subscription leaked")
	}
}
