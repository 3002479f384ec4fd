package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sabinbank/banking-service/internal/domain"
)

func TestNameResolver(t *testing.T) {
	repo := newMoneyRepoStub(activeUser("0801", 1000))
	svc := newTestService(repo)
	resolve := svc.nameResolver(context.Background())

	if got := resolve(domain.SystemCounterparty); got != "SYSTEM" {
		t.Fatalf("expected the system counterparty to resolve to SYSTEM, got %q", got)
	}
	if got := resolve("0801"); got != "Test User 0801" {
		t.Fatalf("expected registered phone to resolve to its name, got %q", got)
	}
	if got := resolve("0999"); got != "Unknown" {
		t.Fatalf("expected unregistered phone to resolve to Unknown, got %q", got)
	}
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	startOfDay := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    string
		startDate string
		endDate   string
		wantFrom  time.Time
		wantTo    time.Time
		wantErr   bool
	}{
		{
			name:     "empty filter means everything up to now",
			filter:   "",
			wantFrom: time.Time{},
			wantTo:   now,
		},
		{
			name:     "today starts at midnight",
			filter:   "today",
			wantFrom: startOfDay,
			wantTo:   now,
		},
		{
			name:     "week spans seven calendar days",
			filter:   "week",
			wantFrom: startOfDay.AddDate(0, 0, -6),
			wantTo:   now,
		},
		{
			name:     "month goes back one calendar month",
			filter:   "month",
			wantFrom: startOfDay.AddDate(0, -1, 0),
			wantTo:   now,
		},
		{
			name:     "year goes back one calendar year",
			filter:   "year",
			wantFrom: startOfDay.AddDate(-1, 0, 0),
			wantTo:   now,
		},
		{
			name:      "custom includes the whole end day",
			filter:    "custom",
			startDate: "2026-08-01",
			endDate:   "2026-08-15",
			wantFrom:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:    time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			name:      "custom with reversed dates fails",
			filter:    "custom",
			startDate: "2026-08-15",
			endDate:   "2026-08-01",
			wantErr:   true,
		},
		{
			name:      "custom with malformed date fails",
			filter:    "custom",
			startDate: "15/08/2026",
			endDate:   "2026-08-20",
			wantErr:   true,
		},
		{
			name:    "unknown filter fails",
			filter:  "fortnight",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := ResolveWindow(tt.filter, tt.startDate, tt.endDate, now)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Fatalf("expected ErrInvalidWindow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !window.From.Equal(tt.wantFrom) {
				t.Fatalf("expected from=%v, got %v", tt.wantFrom, window.From)
			}
			if !window.To.Equal(tt.wantTo) {
				t.Fatalf("expected to=%v, got %v", tt.wantTo, window.To)
			}
		})
	}
}

func TestSummarizeTransactions(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	rows := []domain.Transaction{
		txAt(base, domain.SystemCounterparty, "a", 1000, domain.TransactionTypeDeposit),
		txAt(base, "a", domain.SystemCounterparty, 400, domain.TransactionTypeWithdrawal),
		txAt(base, "a", "b", 600, domain.TransactionTypeTransfer),
		txAt(base, "b", "a", 200, domain.TransactionTypeTransfer),
	}

	stats := SummarizeTransactions(rows)

	if stats.TotalVolume != 2200 {
		t.Fatalf("expected total volume 2200, got %d", stats.TotalVolume)
	}
	if stats.TotalCount != 4 {
		t.Fatalf("expected 4 transactions, got %d", stats.TotalCount)
	}
	if stats.AvgAmount != 550 {
		t.Fatalf("expected average 550, got %f", stats.AvgAmount)
	}
	if stats.DepositVolume != 1000 || stats.WithdrawalVolume != 400 || stats.TransferVolume != 800 {
		t.Fatalf("unexpected per-type volumes: %+v", stats)
	}
}

func TestSummarizeTransactionsEmpty(t *testing.T) {
	stats := SummarizeTransactions(nil)
	if stats.TotalCount != 0 || stats.TotalVolume != 0 || stats.AvgAmount != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestBuildChartData(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	rows := []domain.Transaction{
		txAt(today.Add(9*time.Hour), domain.SystemCounterparty, "a", 100, domain.TransactionTypeDeposit),
		txAt(today.Add(11*time.Hour), "a", domain.SystemCounterparty, 500, domain.TransactionTypeWithdrawal),
		txAt(today.Add(14*time.Hour), "a", "b", 50, domain.TransactionTypeTransfer),
	}

	buckets := BuildChartData(rows, now)

	if len(buckets) != 30 {
		t.Fatalf("expected 30 buckets, got %d", len(buckets))
	}

	first := buckets[0]
	if first.Date != "2026-07-30" {
		t.Fatalf("expected chart to start on 2026-07-30, got %s", first.Date)
	}
	if first.Count != 0 || first.Volume != 0 || first.ChangePercent != "0.00" {
		t.Fatalf("expected empty leading bucket, got %+v", first)
	}

	last := buckets[len(buckets)-1]
	if last.Date != "2026-08-28" || last.DisplayDate != "28/8" {
		t.Fatalf("unexpected last bucket dates: %+v", last)
	}
	if last.Count != 3 || last.Volume != 650 {
		t.Fatalf("expected count=3 volume=650, got count=%d volume=%d", last.Count, last.Volume)
	}
	if last.Open != 100 || last.Close != 50 || last.High != 500 || last.Low != 50 {
		t.Fatalf("unexpected ohlc: open=%d close=%d high=%d low=%d", last.Open, last.Close, last.High, last.Low)
	}
	if last.Change != -50 || last.ChangePercent != "-50.00" {
		t.Fatalf("unexpected change: %d %s", last.Change, last.ChangePercent)
	}
	if last.NetFlow != -400 {
		t.Fatalf("expected net flow -400 (100 in, 500 out), got %d", last.NetFlow)
	}
}

func TestTopUsersByVolume(t *testing.T) {
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	rows := []domain.Transaction{
		// alice deposits 1000 and sends 300.
		txAt(base, domain.SystemCounterparty, "alice", 1000, domain.TransactionTypeDeposit),
		txAt(base, "alice", "bob", 300, domain.TransactionTypeTransfer),
		// bob withdraws 200. His 300 transfer receipt must not count.
		txAt(base, "bob", domain.SystemCounterparty, 200, domain.TransactionTypeWithdrawal),
	}

	names := map[string]string{"alice": "Alice A", "bob": "Bob B"}
	resolve := func(phone string) string { return names[phone] }

	top := TopUsersByVolume(rows, resolve, 5)

	if len(top) != 2 {
		t.Fatalf("expected 2 ranked users, got %d", len(top))
	}
	if top[0].Phone != "alice" || top[0].Volume != 1300 {
		t.Fatalf("expected alice with 1300, got %+v", top[0])
	}
	if top[1].Phone != "bob" || top[1].Volume != 200 {
		t.Fatalf("expected bob with 200 (transfer receipt excluded), got %+v", top[1])
	}
	for _, u := range top {
		if u.Phone == domain.SystemCounterparty {
			t.Fatalf("system counterparty must never be ranked")
		}
	}
}

func TestTopUsersByVolumeAppliesLimit(t *testing.T) {
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	rows := []domain.Transaction{
		txAt(base, domain.SystemCounterparty, "a", 300, domain.TransactionTypeDeposit),
		txAt(base, domain.SystemCounterparty, "b", 200, domain.TransactionTypeDeposit),
		txAt(base, domain.SystemCounterparty, "c", 100, domain.TransactionTypeDeposit),
	}

	top := TopUsersByVolume(rows, func(string) string { return "x" }, 2)
	if len(top) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(top))
	}
	if top[0].Volume < top[1].Volume {
		t.Fatalf("expected descending order, got %+v", top)
	}
}
