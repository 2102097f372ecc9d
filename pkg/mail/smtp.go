package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
)

// sendFunc matches smtp.SendMail so tests can intercept delivery.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	logg *logger.Logger
	send sendFunc
}

// NewSMTPMailer builds a mailer against the configured relay.
func NewSMTPMailer(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host is required")
	}
	return &SMTPMailer{cfg: cfg, logg: logg, send: smtp.SendMail}, nil
}

// SendOrderConfirmation emails the customer and, when configured, copies the
// store owner.
func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error {
	recipients := []string{msg.To}
	if strings.TrimSpace(msg.OwnerCopyTo) != "" {
		recipients = append(recipients, msg.OwnerCopyTo)
	}
	subject := fmt.Sprintf("Order %s confirmed", msg.OrderNumber)
	return m.deliver(ctx, recipients, subject, confirmationBody(msg))
}

// SendStatusUpdate emails the customer about a status transition.
func (m *SMTPMailer) SendStatusUpdate(ctx context.Context, msg StatusUpdate) error {
	subject := fmt.Sprintf("Order %s is now %s", msg.OrderNumber, msg.Status.Label())
	return m.deliver(ctx, []string{msg.To}, subject, statusBody(msg))
}

func (m *SMTPMailer) deliver(ctx context.Context, to []string, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	payload := buildMessage(m.cfg.From, to, subject, body)

	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, to, payload)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("smtp send: %w", sendCtx.Err())
	}
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func confirmationBody(msg OrderConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", msg.CustomerName)
	fmt.Fprintf(&b, "Thanks for your order! Your order number is %s.\r\n\r\n", msg.OrderNumber)
	for _, item := range msg.Items {
		fmt.Fprintf(&b, "  %dx %s — %s\r\n", item.Quantity, item.Name, FormatCents(item.LineTotalCents, msg.Currency))
	}
	fmt.Fprintf(&b, "\r\nTotal: %s\r\n\r\n", FormatCents(msg.TotalCents, msg.Currency))
	b.WriteString("We'll email you again when your order ships.\r\n\r\nMaplewood Commerce\r\n")
	return b.String()
}

func statusBody(msg StatusUpdate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", msg.CustomerName)
	fmt.Fprintf(&b, "Your order %s is now %s.\r\n", msg.OrderNumber, msg.Status.Label())
	if msg.Description != "" {
		fmt.Fprintf(&b, "\r\n%s\r\n", msg.Description)
	}
	if msg.Location != "" {
		fmt.Fprintf(&b, "Last seen at: %s\r\n", msg.Location)
	}
	b.WriteString("\r\nMaplewood Commerce\r\n")
	return b.String()
}

// FormatCents renders a cent amount as a currency string, e.g. "$19.50 USD".
func FormatCents(cents int64, currency enums.Currency) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d %s", sign, cents/100, cents%100, currency)
}
