package mail

import (
	"context"

	"github.com/davemoreau/maplewood-commerce/pkg/logger"
)

// LogMailer is the fallback used when no SMTP relay is configured. It writes
// a structured log line and reports success so checkout behaves identically
// in environments without mail.
type LogMailer struct {
	logg *logger.Logger
}

// NewLogMailer builds the log-only mailer.
func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error {
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"to":           msg.To,
			"order_number": msg.OrderNumber,
			"total_cents":  msg.TotalCents,
		})
		m.logg.Info(ctx, "mail.confirmation skipped (no smtp configured)")
	}
	return nil
}

func (m *LogMailer) SendStatusUpdate(ctx context.Context, msg StatusUpdate) error {
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"to":           msg.To,
			"order_number": msg.OrderNumber,
			"status":       msg.Status,
		})
		m.logg.Info(ctx, "mail.status_update skipped (no smtp configured)")
	}
	return nil
}
