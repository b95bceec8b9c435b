// Package authprovider implements dataservice.Auth on top of the auth_users and
// profiles tables, JWT access tokens and Redis refresh sessions.
package authprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/angelmondragon/skillhunter-backend/pkg/auth"
	"github.com/angelmondragon/skillhunter-backend/pkg/auth/session"
	"github.com/angelmondragon/skillhunter-backend/pkg/config"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
	"github.com/angelmondragon/skillhunter-backend/pkg/security"
)

// SessionStorageKey is where a device keeps its serialized session.
const SessionStorageKey = "skillhunter.auth.session"

const confirmationTokenBytes = 24

type confirmationStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ConfirmationKey(token string) string
}

// ProviderParams wires the shared dependencies of every device client.
type ProviderParams struct {
	DB            *db.Client
	Sessions      *session.Manager
	Confirmations confirmationStore
	Notifier      ConfirmationNotifier
	JWT           config.JWTConfig
	Password      config.PasswordConfig
	Auth          config.AuthConfig
	Logger        *logger.Logger
	Now           func() time.Time
}

// Provider holds the state shared by all devices.
type Provider struct {
	db            *db.Client
	repo          *repository
	sessions      *session.Manager
	confirmations confirmationStore
	notifier      ConfirmationNotifier
	jwt           config.JWTConfig
	password      config.PasswordConfig
	auth          config.AuthConfig
	logg          *logger.Logger
	now           func() time.Time
}

func NewProvider(params ProviderParams) (*Provider, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Auth.RequireEmailConfirmation && params.Confirmations == nil {
		return nil, fmt.Errorf("confirmation store is required when email confirmation is enabled")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: params.Logger}
	}
	return &Provider{
		db:            params.DB,
		repo:          &repository{db: params.DB.DB()},
		sessions:      params.Sessions,
		confirmations: params.Confirmations,
		notifier:      notifier,
		jwt:           params.JWT,
		password:      params.Password,
		auth:          params.Auth,
		logg:          params.Logger,
		now:           now,
	}, nil
}

// ForDevice returns the auth client of one device, persisting its session in store.
func (p *Provider) ForDevice(store localstore.Store) *Client {
	return &Client{provider: p, store: store}
}

// ConfirmEmail consumes a confirmation token and marks its user confirmed.
func (p *Provider) ConfirmEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "confirmation token is required")
	}
	if p.confirmations == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "email confirmation is disabled")
	}
	key := p.confirmations.ConfirmationKey(token)
	raw, err := p.confirmations.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Email link is invalid or has expired")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load confirmation token")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored confirmation token is corrupt")
	}
	affected, err := p.repo.markConfirmed(ctx, userID, p.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err := p.confirmations.Del(ctx, key); err != nil {
		p.logg.WarnErr(ctx, "auth.confirmation_cleanup_failed", err)
	}
	return nil
}

// issueSession mints an access token whose jti keys a fresh refresh session.
func (p *Provider) issueSession(ctx context.Context, user dataservice.User) (*dataservice.Session, error) {
	accessID := session.NewAccessID()
	refresh, err := p.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh session")
	}
	return p.mintSession(user, accessID, refresh)
}

func (p *Provider) mintSession(user dataservice.User, accessID, refresh string) (*dataservice.Session, error) {
	now := p.now().UTC()
	token, err := auth.MintAccessToken(p.jwt, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &dataservice.Session{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(p.jwt.AccessTokenTTL()),
		User:         user,
	}, nil
}

func (p *Provider) authenticate(ctx context.Context, email, password string) (*models.AuthUser, error) {
	user, err := p.repo.findByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid login credentials")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid login credentials")
	}
	if p.auth.RequireEmailConfirmation && !user.Confirmed() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Email not confirmed")
	}
	return user, nil
}

func (p *Provider) register(ctx context.Context, email, password string, metadata dataservice.SignUpMetadata) (*models.AuthUser, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if err := security.CheckPasswordStrength(password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, p.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.AuthUser{Email: email, PasswordHash: hash}
	if !p.auth.RequireEmailConfirmation {
		now := p.now().UTC()
		user.EmailConfirmedAt = &now
	}

	err = p.db.WithTx(ctx, func(tx *gorm.DB) error {
		return createWithProfile(tx, user, strings.TrimSpace(metadata.FullName))
	})
	if db.IsUniqueViolation(err, "") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "User already registered")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

func (p *Provider) sendConfirmation(ctx context.Context, user *models.AuthUser) error {
	token, err := security.GenerateToken(confirmationTokenBytes)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate confirmation token")
	}
	if err := p.confirmations.Set(ctx, p.confirmations.ConfirmationKey(token), user.ID.String(), p.auth.ConfirmationTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store confirmation token")
	}
	if err := p.notifier.SendConfirmation(ctx, user.Email, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send confirmation")
	}
	return nil
}

func toUser(u *models.AuthUser) dataservice.User {
	return dataservice.User{ID: u.ID, Email: u.Email, EmailConfirmedAt: u.EmailConfirmedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
