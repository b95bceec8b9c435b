package authprovider

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"

	"github.com/angelmondragon/skillhunter-backend/pkg/auth"
	"github.com/angelmondragon/skillhunter-backend/pkg/auth/session"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
)

// Client is one device's view of the auth provider.
type Client struct {
	provider *Provider
	store    localstore.Store

	mu        sync.Mutex
	nextID    uint64
	listeners []listenerEntry
}

type listenerEntry struct {
	id uint64
	fn dataservice.AuthChangeListener
}

var _ dataservice.Auth = (*Client)(nil)

// GetSession returns the persisted session, refreshing it when the access token
// has expired. A session that can no longer be refreshed is discarded.
func (c *Client) GetSession(ctx context.Context) (*dataservice.Session, error) {
	stored, err := c.loadSession(ctx)
	if err != nil || stored == nil {
		return nil, err
	}

	p := c.provider
	claims, err := auth.ParseAccessToken(p.jwt, stored.AccessToken)
	if err == nil {
		alive, err := p.sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check refresh session")
		}
		if !alive {
			return nil, c.discard(ctx, "session has been revoked")
		}
		return stored, nil
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return nil, c.discard(ctx, "invalid session")
	}

	claims, err = auth.ParseAccessTokenAllowExpired(p.jwt, stored.AccessToken)
	if err != nil {
		return nil, c.discard(ctx, "invalid session")
	}
	accessID, refresh, err := p.sessions.Rotate(ctx, claims.ID, stored.RefreshToken)
	if errors.Is(err, session.ErrInvalidRefreshToken) {
		return nil, c.discard(ctx, session.ErrInvalidRefreshToken.Error())
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh session")
	}

	refreshed, err := p.mintSession(stored.User, accessID, refresh)
	if err != nil {
		return nil, err
	}
	if err := c.saveSession(ctx, refreshed); err != nil {
		return nil, err
	}
	c.emit(ctx, enums.AuthEventTokenRefreshed, refreshed)
	return refreshed, nil
}

// OnAuthStateChange registers listener until the returned subscription is released.
func (c *Client) OnAuthStateChange(listener dataservice.AuthChangeListener) dataservice.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: listener})
	return &subscription{release: func() { c.removeListener(id) }}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*dataservice.Session, error) {
	p := c.provider
	user, err := p.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess, err := p.issueSession(ctx, toUser(user))
	if err != nil {
		return nil, err
	}
	if err := c.saveSession(ctx, sess); err != nil {
		return nil, err
	}
	if err := p.repo.touchLastSignIn(ctx, user.ID, p.now().UTC()); err != nil {
		p.logg.WarnErr(p.logg.WithUserID(ctx, user.ID.String()), "auth.touch_last_sign_in_failed", err)
	}
	c.emit(ctx, enums.AuthEventSignedIn, sess)
	return sess, nil
}

// SignUp creates the identity and its profile. No session is issued while the
// email awaits confirmation.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata dataservice.SignUpMetadata) (*dataservice.SignUpResult, error) {
	p := c.provider
	user, err := p.register(ctx, email, password, metadata)
	if err != nil {
		return nil, err
	}
	created := toUser(user)
	if p.auth.RequireEmailConfirmation {
		if err := p.sendConfirmation(ctx, user); err != nil {
			return nil, err
		}
		return &dataservice.SignUpResult{User: &created}, nil
	}

	sess, err := p.issueSession(ctx, created)
	if err != nil {
		return nil, err
	}
	if err := c.saveSession(ctx, sess); err != nil {
		return nil, err
	}
	c.emit(ctx, enums.AuthEventSignedIn, sess)
	return &dataservice.SignUpResult{User: &created, Session: sess}, nil
}

// SignOut revokes the refresh session and forgets the stored session. Listeners
// are notified even when cleanup partially fails.
func (c *Client) SignOut(ctx context.Context) error {
	stored, loadErr := c.loadSession(ctx)

	var err error
	if stored != nil {
		if claims, parseErr := auth.ParseAccessTokenAllowExpired(c.provider.jwt, stored.AccessToken); parseErr == nil {
			err = multierr.Append(err, c.provider.sessions.Revoke(ctx, claims.ID))
		}
	}
	if loadErr != nil && !pkgerrors.IsCode(loadErr, pkgerrors.CodeUnauthorized) {
		err = multierr.Append(err, loadErr)
	}
	err = multierr.Append(err, c.store.RemoveItem(ctx, SessionStorageKey))

	c.emit(ctx, enums.AuthEventSignedOut, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign out")
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context) (*dataservice.User, error) {
	sess, err := c.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	user := sess.User
	return &user, nil
}

func (c *Client) loadSession(ctx context.Context) (*dataservice.Session, error) {
	raw, ok, err := c.store.GetItem(ctx, SessionStorageKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stored session")
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var sess dataservice.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, c.discard(ctx, "stored session is unreadable")
	}
	return &sess, nil
}

func (c *Client) saveSession(ctx context.Context, sess *dataservice.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := c.store.SetItem(ctx, SessionStorageKey, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

// discard drops the stored session and returns an UNAUTHORIZED error with reason.
func (c *Client) discard(ctx context.Context, reason string) error {
	if err := c.store.RemoveItem(ctx, SessionStorageKey); err != nil {
		c.provider.logg.WarnErr(ctx, "auth.discard_session_failed", err)
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, reason)
}

// emit delivers event synchronously, outside the lock, in subscription order.
func (c *Client) emit(ctx context.Context, event enums.AuthEvent, sess *dataservice.Session) {
	c.mu.Lock()
	snapshot := make([]listenerEntry, len(c.listeners))
	copy(snapshot, c.listeners)
	c.mu.Unlock()

	for _, entry := range snapshot {
		entry.fn(ctx, event, sess)
	}
}

func (c *Client) removeListener(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.listeners {
		if entry.id == id {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount reports how many subscriptions are active.
func (c *Client) ListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

type subscription struct {
	once    sync.Once
	release func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.release)
}
