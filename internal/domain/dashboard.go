/**
 * @description
 * This file defines the composite payloads returned by the user dashboard and
 * admin dashboard endpoints.
 */

package domain

import "time"

// DashboardProfile is the customer profile shown on the dashboard, minus any
// credential material.
type DashboardProfile struct {
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phone_number"`
	Location      string    `json:"location"`
	Gender        string    `json:"gender"`
	BirthDate     time.Time `json:"birth_date"`
	IDType        string    `json:"id_type"`
	IDNumber      string    `json:"id_number"`
	AccountNumber string    `json:"account_number"`
	MemberSince   time.Time `json:"member_since"`
	AccountType   string    `json:"account_type"` // Premium Member when any card is active
}

// DashboardAccount is the single main account summary row.
type DashboardAccount struct {
	Type                string `json:"type"`
	AccountNumber       string `json:"account_number"`
	AccountNumberMasked string `json:"account_number_masked"`
	Balance             int64  `json:"balance"`
	Status              string `json:"status"`
}

// DashboardSummary holds the headline numbers for the dashboard.
type DashboardSummary struct {
	TotalBalance        int64  `json:"total_balance"`
	PendingTransactions int    `json:"pending_transactions"`
	AccountStatus       string `json:"account_status"`
	TotalCards          int    `json:"total_cards"`
	PendingRequests     int    `json:"pending_requests"`
}

// Dashboard is the full user dashboard payload.
type Dashboard struct {
	User               DashboardProfile   `json:"user"`
	Accounts           []DashboardAccount `json:"accounts"`
	Summary            DashboardSummary   `json:"summary"`
	ActiveCards        []CardView         `json:"active_cards"`
	PendingRequests    []Card             `json:"pending_requests"`
	RecentTransactions []TransactionView  `json:"recent_transactions"`
}

// AdminDashboard is the back-office landing payload.
type AdminDashboard struct {
	Stats           AdminStats `json:"stats"`
	PendingRequests []User     `json:"pending_requests"`
	RecentUsers     []User     `json:"recent_users"`
}
