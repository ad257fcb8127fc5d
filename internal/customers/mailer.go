package customers

import (
	"context"
	"fmt"

	"github.com/stonebridge/storefront-backend/pkg/config"
	"github.com/stonebridge/storefront-backend/pkg/logger"
)

// Mailer delivers account emails. Real delivery is an external
// collaborator; the storefront ships with a logging implementation.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
	SendPasswordChanged(ctx context.Context, email string) error
}

// LogMailer writes would-be emails to the structured log.
type LogMailer struct {
	logg *logger.Logger
	from string
}

// NewLogMailer constructs the logging mailer.
func NewLogMailer(logg *logger.Logger, cfg config.MailConfig) (*LogMailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogMailer{logg: logg, from: cfg.FromEmail}, nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"mail_from": m.from,
		"mail_to":   email,
		"template":  "password_reset",
	})
	m.logg.Info(ctx, fmt.Sprintf("password reset token issued: %s", token))
	return nil
}

func (m *LogMailer) SendPasswordChanged(ctx context.Context, email string) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"mail_from": m.from,
		"mail_to":   email,
		"template":  "password_changed",
	})
	m.logg.Info(ctx, "password changed notification sent")
	return nil
}

// SendOrderConfirmation satisfies the checkout confirmation sender.
func (m *LogMailer) SendOrderConfirmation(ctx context.Context, email string, orderNumber int64) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"mail_from":    m.from,
		"mail_to":      email,
		"template":     "order_confirmation",
		"order_number": orderNumber,
	})
	m.logg.Info(ctx, "order confirmation sent")
	return nil
}
