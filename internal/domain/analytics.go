/**
 * @description
 * This file defines the derived-statistics DTOs produced by the analytics
 * package for the admin back-office: windowed transaction statistics, the
 * 30-day chart buckets, top users by volume, and overall platform counts.
 */

package domain

import "time"

// TransactionStats summarizes a window of transactions.
type TransactionStats struct {
	TotalVolume      int64   `json:"total_volume"`
	TotalCount       int     `json:"total_count"`
	AvgAmount        float64 `json:"avg_amount"`
	DepositVolume    int64   `json:"deposit_volume"`
	WithdrawalVolume int64   `json:"withdrawal_volume"`
	TransferVolume   int64   `json:"transfer_volume"`
}

// DailyBucket is one calendar day of chart data. Open/close are the first and
// last transaction amounts of the day, high/low the extremes; the values are
// charting pseudo-OHLC, not a financial source of truth.
type DailyBucket struct {
	Date          string  `json:"date"`         // YYYY-MM-DD
	DisplayDate   string  `json:"display_date"` // D/M
	Volume        int64   `json:"volume"`
	Count         int     `json:"count"`
	Open          int64   `json:"open"`
	Close         int64   `json:"close"`
	High          int64   `json:"high"`
	Low           int64   `json:"low"`
	Change        int64   `json:"change"`
	ChangePercent string  `json:"change_percent"`
	NetFlow       int64   `json:"net_flow"` // deposit volume minus withdrawal volume
}

// TopUser is one entry of the top-spenders list.
type TopUser struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Volume int64  `json:"volume"`
}

// AdminStats holds the platform-wide counters shown on the admin dashboard.
type AdminStats struct {
	TotalUsers        int64 `json:"total_users"`
	PendingUsers      int64 `json:"pending_users"`
	ActiveUsers       int64 `json:"active_users"`
	TotalCards        int64 `json:"total_cards"`
	TotalTransactions int64 `json:"total_transactions"`
}

// TransactionWindow bounds an analytics query.
type TransactionWindow struct {
	From time.Time
	To   time.Time
}

// AdminTransactionReport is the full payload of the back-office transactions
// page: windowed stats, the 30-day chart, top users, and the row feed.
type AdminTransactionReport struct {
	Stats        TransactionStats       `json:"stats"`
	Chart        []DailyBucket          `json:"chart"`
	TopUsers     []TopUser              `json:"top_users"`
	Transactions []AdminTransactionView `json:"transactions"`
}
