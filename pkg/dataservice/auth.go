package dataservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

// User is the raw identity known to the auth provider.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// Session is the provider's proof of an authenticated identity.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// SignUpMetadata is stored alongside the new identity.
type SignUpMetadata struct {
	FullName string `json:"full_name"`
}

// SignUpResult carries a nil Session when the provider requires email confirmation.
type SignUpResult struct {
	User    *User
	Session *Session
}

// AuthChangeListener receives every auth transition. session is nil when signed out.
type AuthChangeListener func(ctx context.Context, event enums.AuthEvent, session *Session)

// Subscription is released exactly once; further calls are no-ops.
type Subscription interface {
	Unsubscribe()
}

// Auth is the credential and session half of the data service.
type Auth interface {
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(listener AuthChangeListener) Subscription
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata SignUpMetadata) (*SignUpResult, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*User, error)
}

// RequireUser returns the acting identity or an UNAUTHORIZED error when there is none.
func RequireUser(ctx context.Context, auth Auth) (*User, error) {
	user, err := auth.GetUser(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "User not authenticated")
	}
	if user == nil || user.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not authenticated")
	}
	return user, nil
}
