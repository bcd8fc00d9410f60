package email

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invoicely/internal/observability/logger"
	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("invalid_recipient")

type Message struct {
	To      []string
	Subject string
	Body    string
}

// Provider delivers a message and returns the delivery id.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogProvider stands in for real delivery: every message is logged, nothing leaves the process.
type LogProvider struct {
	log *zap.Logger
}

func NewLogProvider(log *zap.Logger) *LogProvider {
	return &LogProvider{log: log.Named("email.provider")}
}

func (p *LogProvider) Send(ctx context.Context, msg Message) (string, error) {
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		if to = strings.TrimSpace(to); to != "" {
			recipients = append(recipients, to)
		}
	}
	if len(recipients) == 0 {
		return "", ErrNoRecipient
	}

	id := ulid.Make().String()
	logger.WithContext(ctx, p.log).Info("email queued",
		zap.String("message_id", id),
		zap.Int("recipients", len(recipients)),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return id, nil
}

type NoOpProvider struct{}

func (NoOpProvider) Send(context.Context, Message) (string, error) {
	return "", nil
}
