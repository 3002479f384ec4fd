package app

import (
	"testing"
	"time"

	"github.com/sabinbank/banking-service/internal/domain"
)

func TestMaskAccountNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{
			name:   "long number keeps last four",
			number: "1111222233334444",
			want:   "****4444",
		},
		{
			name:   "short number passes through",
			number: "1234",
			want:   "1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskAccountNumber(tt.number); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	if got := maskCardNumber("4111222233334444"); got != "**** **** **** 4444" {
		t.Fatalf("unexpected masked number: %q", got)
	}
	if got := maskCardNumber(domain.PlaceholderCardNumber); got != domain.PlaceholderCardNumber {
		t.Fatalf("placeholder must pass through, got %q", got)
	}
}

func TestFormatTransactionView(t *testing.T) {
	viewer := "0801"
	created := time.Date(2026, 8, 20, 14, 35, 0, 0, time.UTC)
	names := map[string]string{"0802": "Bob B"}
	resolve := func(phone string) string { return names[phone] }

	tests := []struct {
		name         string
		tx           domain.Transaction
		wantName     string
		wantType     string
		wantCategory string
	}{
		{
			name:         "deposit is a credit",
			tx:           txAt(created, domain.SystemCounterparty, viewer, 100, domain.TransactionTypeDeposit),
			wantName:     "Cash Deposit",
			wantType:     "credit",
			wantCategory: "deposit",
		},
		{
			name:         "withdrawal is a debit",
			tx:           txAt(created, viewer, domain.SystemCounterparty, 100, domain.TransactionTypeWithdrawal),
			wantName:     "Cash Withdrawal",
			wantType:     "debit",
			wantCategory: "withdrawal",
		},
		{
			name:         "incoming transfer names the sender",
			tx:           txAt(created, "0802", viewer, 100, domain.TransactionTypeTransfer),
			wantName:     "Received from Bob B",
			wantType:     "credit",
			wantCategory: "transfer",
		},
		{
			name:         "outgoing transfer names the recipient",
			tx:           txAt(created, viewer, "0802", 100, domain.TransactionTypeTransfer),
			wantName:     "Sent to Bob B",
			wantType:     "debit",
			wantCategory: "transfer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := formatTransactionView(tt.tx, viewer, resolve)
			if view.Name != tt.wantName {
				t.Fatalf("expected name %q, got %q", tt.wantName, view.Name)
			}
			if view.Type != tt.wantType {
				t.Fatalf("expected type %q, got %q", tt.wantType, view.Type)
			}
			if view.Category != tt.wantCategory {
				t.Fatalf("expected category %q, got %q", tt.wantCategory, view.Category)
			}
			if view.Date != "2026-08-20" || view.Time != "14:35" {
				t.Fatalf("unexpected date/time: %s %s", view.Date, view.Time)
			}
		})
	}
}
