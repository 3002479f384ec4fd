/**
 * @description
 * This file implements the admin analytics: time-window resolution, windowed
 * transaction statistics, the 30-day activity chart, and the top-users-by-
 * volume list. The aggregation functions are pure folds over ledger rows so
 * they can be tested without a database.
 *
 * @notes
 * - The chart always covers the last 30 calendar days in UTC regardless of the
 *   selected window filter; the window only bounds the stats and the row feed.
 * - Top-user volume counts money a user actively moved: senders of any type
 *   and deposit recipients. Transfer recipients and the system counterparty
 *   are excluded.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

// adminFeedLimit caps the number of rows returned to the back-office feed.
const adminFeedLimit = 1000

// chartDays is the fixed span of the activity chart.
const chartDays = 30

var ErrInvalidWindow = errors.New("invalid window filter or date range")

// ResolveWindow translates a filter keyword and optional custom dates into a
// concrete [From, To] window ending at now. Supported filters: today, week,
// month, year, custom, and all (the default).
func ResolveWindow(filter, startDate, endDate string, now time.Time) (domain.TransactionWindow, error) {
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch filter {
	case "", "all":
		return domain.TransactionWindow{To: now}, nil
	case "today":
		return domain.TransactionWindow{From: startOfDay, To: now}, nil
	case "week":
		return domain.TransactionWindow{From: startOfDay.AddDate(0, 0, -6), To: now}, nil
	case "month":
		return domain.TransactionWindow{From: startOfDay.AddDate(0, -1, 0), To: now}, nil
	case "year":
		return domain.TransactionWindow{From: startOfDay.AddDate(-1, 0, 0), To: now}, nil
	case "custom":
		from, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return domain.TransactionWindow{}, ErrInvalidWindow
		}
		to, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return domain.TransactionWindow{}, ErrInvalidWindow
		}
		// Include the whole end day.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		if to.Before(from) {
			return domain.TransactionWindow{}, ErrInvalidWindow
		}
		return domain.TransactionWindow{From: from, To: to}, nil
	default:
		return domain.TransactionWindow{}, ErrInvalidWindow
	}
}

// SummarizeTransactions folds a set of ledger rows into windowed statistics.
func SummarizeTransactions(transactions []domain.Transaction) domain.TransactionStats {
	var stats domain.TransactionStats
	for _, t := range transactions {
		stats.TotalVolume += t.Amount
		stats.TotalCount++
		switch t.Type {
		case domain.TransactionTypeDeposit:
			stats.DepositVolume += t.Amount
		case domain.TransactionTypeWithdrawal:
			stats.WithdrawalVolume += t.Amount
		case domain.TransactionTypeTransfer:
			stats.TransferVolume += t.Amount
		}
	}
	if stats.TotalCount > 0 {
		stats.AvgAmount = float64(stats.TotalVolume) / float64(stats.TotalCount)
	}
	return stats
}

// BuildChartData buckets ledger rows into the last 30 UTC calendar days ending
// today. Open and close are the first and last amounts of each day, high and
// low the extremes; days without activity carry zeroes. Change compares each
// day's close against its open.
func BuildChartData(transactions []domain.Transaction, now time.Time) []domain.DailyBucket {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(chartDays - 1))

	byDay := make(map[string][]domain.Transaction)
	for _, t := range transactions {
		key := t.CreatedAt.UTC().Format("2006-01-02")
		byDay[key] = append(byDay[key], t)
	}

	buckets := make([]domain.DailyBucket, 0, chartDays)
	for i := 0; i < chartDays; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format("2006-01-02")

		bucket := domain.DailyBucket{
			Date:          key,
			DisplayDate:   fmt.Sprintf("%d/%d", day.Day(), int(day.Month())),
			ChangePercent: "0.00",
		}

		rows := byDay[key]
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].CreatedAt.Before(rows[b].CreatedAt)
		})

		for idx, t := range rows {
			bucket.Volume += t.Amount
			bucket.Count++
			if idx == 0 {
				bucket.Open = t.Amount
				bucket.High = t.Amount
				bucket.Low = t.Amount
			}
			bucket.Close = t.Amount
			if t.Amount > bucket.High {
				bucket.High = t.Amount
			}
			if t.Amount < bucket.Low {
				bucket.Low = t.Amount
			}
			switch t.Type {
			case domain.TransactionTypeDeposit:
				bucket.NetFlow += t.Amount
			case domain.TransactionTypeWithdrawal:
				bucket.NetFlow -= t.Amount
			}
		}

		bucket.Change = bucket.Close - bucket.Open
		if bucket.Open != 0 {
			bucket.ChangePercent = fmt.Sprintf("%.2f", float64(bucket.Change)/float64(bucket.Open)*100)
		}

		buckets = append(buckets, bucket)
	}
	return buckets
}

// TopUsersByVolume ranks users by the money they actively moved within the
// given rows. Senders accrue their debits and deposit recipients their
// credits; transfer recipients accrue nothing, and the system counterparty is
// never ranked. resolveName maps a phone number to a display name.
func TopUsersByVolume(transactions []domain.Transaction, resolveName func(phone string) string, limit int) []domain.TopUser {
	volumes := make(map[string]int64)
	for _, t := range transactions {
		if t.FromPhone != domain.SystemCounterparty {
			volumes[t.FromPhone] += t.Amount
		}
		if t.ToPhone != domain.SystemCounterparty && t.Type != domain.TransactionTypeTransfer {
			volumes[t.ToPhone] += t.Amount
		}
	}

	users := make([]domain.TopUser, 0, len(volumes))
	for phone, volume := range volumes {
		users = append(users, domain.TopUser{
			Name:   resolveName(phone),
			Phone:  phone,
			Volume: volume,
		})
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Volume > users[j].Volume
	})

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users
}

// nameResolver returns a memoized phone-to-name lookup backed by the
// repository. The system counterparty resolves to its own sentinel label and
// unknown phones to "Unknown" rather than errors.
func (s *Service) nameResolver(ctx context.Context) func(phone string) string {
	cache := make(map[string]string)
	return func(phone string) string {
		if phone == domain.SystemCounterparty {
			return domain.SystemCounterparty
		}
		if name, ok := cache[phone]; ok {
			return name
		}
		name := "Unknown"
		user, err := s.repo.FindUserByPhone(ctx, phone)
		if err == nil {
			name = user.FullName
		} else if !errors.Is(err, store.ErrUserNotFound) {
			log.Printf("level=warn component=analytics msg=\"name lookup failed\" phone=%s err=%v", phone, err)
		}
		cache[phone] = name
		return name
	}
}

// AdminTransactionReport assembles the back-office transactions page for a
// window filter: stats and the row feed over the window, plus the fixed
// 30-day chart and top-user ranking.
func (s *Service) AdminTransactionReport(ctx context.Context, filter, startDate, endDate string) (*domain.AdminTransactionReport, error) {
	now := time.Now().UTC()
	window, err := ResolveWindow(filter, startDate, endDate, now)
	if err != nil {
		return nil, err
	}

	windowed, err := s.repo.FindTransactionsInWindow(ctx, window, adminFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load windowed transactions: %w", err)
	}

	chartWindow := domain.TransactionWindow{
		From: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(chartDays - 1)),
		To:   now,
	}
	chartRows, err := s.repo.FindTransactionsInWindow(ctx, chartWindow, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart transactions: %w", err)
	}

	resolve := s.nameResolver(ctx)

	report := &domain.AdminTransactionReport{
		Stats:        SummarizeTransactions(windowed),
		Chart:        BuildChartData(chartRows, now),
		TopUsers:     TopUsersByVolume(windowed, resolve, 5),
		Transactions: make([]domain.AdminTransactionView, 0, len(windowed)),
	}

	for _, t := range windowed {
		report.Transactions = append(report.Transactions, domain.AdminTransactionView{
			ID:          t.ID,
			Date:        t.CreatedAt,
			Type:        t.Type,
			Amount:      t.Amount,
			Status:      t.Status,
			Description: t.Description,
			From:        domain.PartyView{Phone: t.FromPhone, Name: resolve(t.FromPhone), Account: t.FromAccount},
			To:          domain.PartyView{Phone: t.ToPhone, Name: resolve(t.ToPhone), Account: t.ToAccount},
		})
	}

	// Newest first for the feed.
	sort.SliceStable(report.Transactions, func(i, j int) bool {
		return report.Transactions[i].Date.After(report.Transactions[j].Date)
	})

	return report, nil
}

// AdminDashboardData assembles the back-office landing page: platform
// counters, the pending-approval queue, and the most recent signups.
func (s *Service) AdminDashboardData(ctx context.Context) (*domain.AdminDashboard, error) {
	stats, err := s.repo.AdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform stats: %w", err)
	}

	pending, err := s.repo.ListUsers(ctx, domain.UserStatusPending, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending users: %w", err)
	}

	recent, err := s.repo.ListUsers(ctx, "", 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent users: %w", err)
	}

	return &domain.AdminDashboard{
		Stats:           *stats,
		PendingRequests: pending,
		RecentUsers:     recent,
	}, nil
}
