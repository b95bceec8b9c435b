package authprovider

import (
	"context"

	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// ConfirmationNotifier delivers a sign-up confirmation token to its owner.
type ConfirmationNotifier interface {
	SendConfirmation(ctx context.Context, email, token string) error
}

// LogNotifier writes confirmation tokens to the log. Development only.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n LogNotifier) SendConfirmation(ctx context.Context, email, token string) error {
	if n.Logger == nil {
		return nil
	}
	ctx = n.Logger.WithFields(ctx, map[string]any{"email": email, "confirmation_token": token})
	n.Logger.Info(ctx, "auth.confirmation_issued")
	return nil
}
