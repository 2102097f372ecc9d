package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
)

type capturedSend struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func newCapturingMailer(t *testing.T, captured *capturedSend) *SMTPMailer {
	t.Helper()
	cfg := config.SMTPConfig{
		Host:    "smtp.example.com",
		Port:    587,
		From:    "orders@maplewood.example",
		Timeout: time.Second,
	}
	mailer, err := NewSMTPMailer(cfg, nil)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*captured = capturedSend{addr: addr, from: from, to: to, msg: msg}
		return nil
	}
	return mailer
}

func TestSendOrderConfirmationCopiesOwner(t *testing.T) {
	var captured capturedSend
	mailer := newCapturingMailer(t, &captured)

	err := mailer.SendOrderConfirmation(context.Background(), OrderConfirmation{
		To:           "ana@example.com",
		OwnerCopyTo:  "owner@maplewood.example",
		CustomerName: "Ana",
		OrderNumber:  "MW-4N7Q2KD9XF",
		Items: []LineItem{
			{Name: "Walnut Cutting Board", Quantity: 2, LineTotalCents: 3600},
		},
		TotalCents: 3950,
		Currency:   enums.CurrencyUSD,
	})
	if err != nil {
		t.Fatalf("send confirmation: %v", err)
	}

	if captured.addr != "smtp.example.com:587" {
		t.Fatalf("unexpected relay addr %q", captured.addr)
	}
	if len(captured.to) != 2 || captured.to[1] != "owner@maplewood.example" {
		t.Fatalf("expected owner copy, got %v", captured.to)
	}
	body := string(captured.msg)
	if !strings.Contains(body, "MW-4N7Q2KD9XF") {
		t.Fatalf("body missing order number:\n%s", body)
	}
	if !strings.Contains(body, "$39.50 USD") {
		t.Fatalf("body missing formatted total:\n%s", body)
	}
	if !strings.Contains(body, "2x Walnut Cutting Board") {
		t.Fatalf("body missing line item:\n%s", body)
	}
}

func TestSendStatusUpdateIncludesLocation(t *testing.T) {
	var captured capturedSend
	mailer := newCapturingMailer(t, &captured)

	err := mailer.SendStatusUpdate(context.Background(), StatusUpdate{
		To:           "ana@example.com",
		CustomerName: "Ana",
		OrderNumber:  "MW-4N7Q2KD9XF",
		Status:       enums.OrderStatusOutForDelivery,
		Description:  "Courier picked up the package",
		Location:     "Portland hub",
	})
	if err != nil {
		t.Fatalf("send status update: %v", err)
	}

	body := string(captured.msg)
	if !strings.Contains(body, "Out for Delivery") {
		t.Fatalf("body missing status label:\n%s", body)
	}
	if !strings.Contains(body, "Portland hub") {
		t.Fatalf("body missing location:\n%s", body)
	}
}

func TestNewSMTPMailerRequiresHost(t *testing.T) {
	if _, err := NewSMTPMailer(config.SMTPConfig{}, nil); err == nil {
		t.Fatal("expected error without smtp host")
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:     "$0.00 USD",
		5:     "$0.05 USD",
		1950:  "$19.50 USD",
		-1950: "-$19.50 USD",
	}
	for cents, want := range cases {
		if got := FormatCents(cents, enums.CurrencyUSD); got != want {
			t.Fatalf("FormatCents(%d) = %q, want %q", cents, got, want)
		}
	}
}
