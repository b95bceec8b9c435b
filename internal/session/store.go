// Package session keeps the current identity of one device in sync with the
// auth provider.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// State is a snapshot of the store.
type State struct {
	CurrentUser *models.Profile
	IsLoading   bool
}

// LoginResult reports the admin flag used for post-login routing.
type LoginResult struct {
	IsAdmin bool
}

// RegisterResult tells the caller whether the provider withheld a session
// until the email address is confirmed.
type RegisterResult struct {
	RequiresConfirmation bool
}

// StoreParams groups the collaborators of a Store.
type StoreParams struct {
	Auth    dataservice.Auth
	Tables  dataservice.Tables
	Storage localstore.Store
	Logger  *logger.Logger
	// PurgeKeys are removed from Storage on logout.
	PurgeKeys []string
}

// Store tracks {CurrentUser, IsLoading}. Create with NewStore, start with Init
// and release with Close.
type Store struct {
	auth      dataservice.Auth
	tables    dataservice.Tables
	storage   localstore.Store
	logg      *logger.Logger
	purgeKeys []string

	mu      sync.Mutex
	current *models.Profile
	loading bool
	seq     uint64

	initOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once

	sub       dataservice.Subscription
	closeOnce sync.Once
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Auth == nil {
		return nil, fmt.Errorf("auth client is required")
	}
	if params.Tables == nil {
		return nil, fmt.Errorf("tables client is required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("local storage is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{
		auth:      params.Auth,
		tables:    params.Tables,
		storage:   params.Storage,
		logg:      params.Logger,
		purgeKeys: append([]string(nil), params.PurgeKeys...),
		loading:   true,
		ready:     make(chan struct{}),
	}, nil
}

// Init subscribes to auth changes and resolves the existing session. Loading
// ends exactly once, whatever the provider returns. Later calls are no-ops.
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		defer s.markReady()

		sub := s.auth.OnAuthStateChange(s.handleAuthChange)
		s.mu.Lock()
		s.sub = sub
		s.mu.Unlock()

		sess, err := s.getSession(ctx)
		if err != nil {
			s.logg.WarnErr(ctx, "session.init_failed", err)
			s.apply(s.begin(), nil)
			return
		}
		s.resolve(ctx, sess)
	})
}

// Ready is closed once the initial load has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{CurrentUser: cloneProfile(s.current), IsLoading: s.loading}
}

// CurrentUser returns a copy of the resolved profile, or nil when signed out.
func (s *Store) CurrentUser() *models.Profile {
	return s.State().CurrentUser
}

func (s *Store) IsLoading() bool {
	return s.State().IsLoading
}

// Login signs in through the provider and reports the admin flag. The flag is
// best effort and defaults to false.
func (s *Store) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	sess, err := s.auth.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, describeAuthError(err, "login failed")
	}
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login failed")
	}

	result := &LoginResult{}
	profile, err := s.fetchProfile(ctx, sess.User.ID)
	if err != nil {
		s.logg.WarnErr(s.logg.WithUserID(ctx, sess.User.ID.String()), "session.admin_flag_failed", err)
		return result, nil
	}
	result.IsAdmin = profile.IsAdmin
	return result, nil
}

// Register creates the identity with name as profile metadata.
func (s *Store) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	res, err := s.auth.SignUp(ctx, strings.TrimSpace(email), password, dataservice.SignUpMetadata{FullName: name})
	if err != nil {
		return nil, describeAuthError(err, "registration failed")
	}
	return &RegisterResult{RequiresConfirmation: res == nil || res.Session == nil}, nil
}

// Logout ends the provider session, clears the current user and purges the
// device's persisted keys. Local state is cleared even when the provider fails.
func (s *Store) Logout(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	s.apply(s.begin(), nil)
	for _, key := range s.purgeKeys {
		err = multierr.Append(err, s.storage.RemoveItem(ctx, key))
	}
	if err != nil {
		s.logg.WarnErr(ctx, "session.logout_incomplete", err)
		if pkgerrors.As(err) == nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "logout failed")
		}
	}
	return err
}

// Close releases the auth subscription. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		sub := s.sub
		s.sub = nil
		s.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
	})
}

func (s *Store) handleAuthChange(ctx context.Context, event enums.AuthEvent, sess *dataservice.Session) {
	s.logg.Debug(s.logg.WithField(ctx, "auth_event", event.String()), "session.auth_changed")
	if event == enums.AuthEventSignedOut {
		sess = nil
	}
	s.resolve(ctx, sess)
}

// getSession converts a provider panic into an error so Init always finishes.
func (s *Store) getSession(ctx context.Context) (sess *dataservice.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("get session panicked: %v", r)
		}
	}()
	return s.auth.GetSession(ctx)
}

// resolve replaces the current user with the profile behind sess.
func (s *Store) resolve(ctx context.Context, sess *dataservice.Session) {
	token := s.begin()
	if sess == nil {
		s.apply(token, nil)
		return
	}
	profile, err := s.fetchProfile(ctx, sess.User.ID)
	if err != nil {
		s.logg.WarnErr(s.logg.WithUserID(ctx, sess.User.ID.String()), "session.profile_fetch_failed", err)
		profile = nil
	}
	if !s.apply(token, profile) {
		s.logg.Debug(ctx, "session.stale_resolution_dropped")
	}
}

// begin hands out the sequence token of a new resolution.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// apply stores profile unless a newer resolution has started since token.
func (s *Store) apply(token uint64, profile *models.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq {
		return false
	}
	s.current = profile
	return true
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		close(s.ready)
	})
}

func (s *Store) fetchProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	q := dataservice.From(dataservice.TableProfiles).Where(dataservice.Eq("id", id)).One()
	if err := s.tables.Select(ctx, q, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func describeAuthError(err error, fallback string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = fallback
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
}

func cloneProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
