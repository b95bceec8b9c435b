package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// EventConfirmationRequested is the event_type attribute of confirmation messages.
const EventConfirmationRequested = "auth.confirmation_requested"

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}

// ConfirmationMessage is the payload read by the mailer.
type ConfirmationMessage struct {
	Email    string    `json:"email"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// ConfirmationNotifier hands sign-up confirmation tokens to the mailer over a
// topic. It satisfies authprovider.ConfirmationNotifier.
type ConfirmationNotifier struct {
	pub  publisher
	logg *logger.Logger
	now  func() time.Time
}

func NewConfirmationNotifier(pub *pubsub.Publisher, logg *logger.Logger) (*ConfirmationNotifier, error) {
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	return newConfirmationNotifier(gcpPublisher{Publisher: pub}, logg), nil
}

func newConfirmationNotifier(pub publisher, logg *logger.Logger) *ConfirmationNotifier {
	return &ConfirmationNotifier{pub: pub, logg: logg, now: time.Now}
}

// SendConfirmation blocks until the broker acknowledges the message.
func (n *ConfirmationNotifier) SendConfirmation(ctx context.Context, email, token string) error {
	payload, err := json.Marshal(ConfirmationMessage{Email: email, Token: token, IssuedAt: n.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode confirmation: %w", err)
	}

	id, err := n.pub.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"event_type": EventConfirmationRequested},
	}).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}

	if n.logg != nil {
		n.logg.Info(n.logg.WithField(ctx, "message_id", id), "auth.confirmation_published")
	}
	return nil
}
