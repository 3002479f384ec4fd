/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL queries for users, cards, ledger
 * transactions, and admins.
 *
 * @notes
 * - RecordDeposit/RecordWithdrawal/RecordTransfer wrap the balance update and
 *   the ledger insert in a single database transaction. Withdrawals and
 *   transfers use a conditional decrement (`balance >= amount`) so two
 *   concurrent debits against the same account cannot both succeed.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sabinbank/banking-service/internal/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrDuplicateUser       = errors.New("user already exists with this phone number or email")
	ErrDuplicateCardNumber = errors.New("card number already exists")
)

const pgUniqueViolation = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

const userColumns = `id, full_name, email, phone_number, location, gender, birth_date,
	id_type, id_number, id_photo_path, account_number, password_hash, status,
	requested_card, card_type, balance, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PhoneNumber, &user.Location,
		&user.Gender, &user.BirthDate, &user.IDType, &user.IDNumber, &user.IDPhotoPath,
		&user.AccountNumber, &user.PasswordHash, &user.Status, &user.RequestedCard,
		&user.CardType, &user.Balance, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new pending user. Duplicate phone numbers, emails, or
// account numbers surface as ErrDuplicateUser.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, full_name, email, phone_number, location, gender, birth_date,
			id_type, id_number, id_photo_path, account_number, password_hash, status,
			requested_card, card_type, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.FullName, user.Email, user.PhoneNumber, user.Location,
		user.Gender, user.BirthDate, user.IDType, user.IDNumber, user.IDPhotoPath,
		user.AccountNumber, user.PasswordHash, user.Status, user.RequestedCard,
		user.CardType, user.Balance, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// FindUserByID retrieves a user by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// FindUserByPhone retrieves a user by their phone number.
func (r *PostgresRepository) FindUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phoneNumber))
}

// FindUserByEmail retrieves a user by their email address.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// UpdateUserStatus sets a user's approval status.
func (r *PostgresRepository) UpdateUserStatus(ctx context.Context, userID uuid.UUID, status string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET status = $1 WHERE id = $2`, status, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserPassword replaces a user's password hash, keyed by email.
func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, email string, passwordHash string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE lower(email) = lower($2)`, passwordHash, email)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns users newest first, optionally filtered by status.
func (r *PostgresRepository) ListUsers(ctx context.Context, status string, limit int) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		if status != "" {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $1`
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// GetBalance reads the authoritative balance for a phone number.
func (r *PostgresRepository) GetBalance(ctx context.Context, phoneNumber string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE phone_number = $1`, phoneNumber).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// SetBalance overwrites the authoritative balance. Used only by the
// reconciliation path; normal operations go through the atomic record methods.
func (r *PostgresRepository) SetBalance(ctx context.Context, phoneNumber string, balance int64) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET balance = $1 WHERE phone_number = $2`, balance, phoneNumber)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const insertTransactionQuery = `
	INSERT INTO transactions (id, from_account, to_account, from_phone, to_phone,
		amount, type, status, description, balance, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func insertTransactionTx(ctx context.Context, tx pgx.Tx, record *domain.Transaction) error {
	_, err := tx.Exec(ctx, insertTransactionQuery,
		record.ID, record.FromAccount, record.ToAccount, record.FromPhone, record.ToPhone,
		record.Amount, record.Type, record.Status, record.Description, record.Balance,
		record.CreatedAt,
	)
	return err
}

// RecordDeposit credits the recipient and inserts the ledger row in one
// database transaction. Returns the recipient's new balance.
func (r *PostgresRepository) RecordDeposit(ctx context.Context, record *domain.Transaction) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET balance = balance + $1 WHERE phone_number = $2 RETURNING balance`,
		record.Amount, record.ToPhone,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	record.Balance = newBalance
	if err := insertTransactionTx(ctx, tx, record); err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

// RecordWithdrawal debits the sender with a conditional decrement and inserts
// the ledger row in one database transaction. When the balance is too low the
// decrement matches no row and the sender's current balance is returned
// alongside ErrInsufficientFunds, with nothing written.
func (r *PostgresRepository) RecordWithdrawal(ctx context.Context, record *domain.Transaction) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET balance = balance - $1 WHERE phone_number = $2 AND balance >= $1 RETURNING balance`,
		record.Amount, record.FromPhone,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var available int64
			lookupErr := tx.QueryRow(ctx, `SELECT balance FROM users WHERE phone_number = $1`, record.FromPhone).Scan(&available)
			if lookupErr != nil {
				if errors.Is(lookupErr, pgx.ErrNoRows) {
					return 0, ErrUserNotFound
				}
				return 0, lookupErr
			}
			return available, ErrInsufficientFunds
		}
		return 0, err
	}

	record.Balance = newBalance
	if err := insertTransactionTx(ctx, tx, record); err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

// RecordTransfer debits the sender (conditionally), credits the recipient, and
// inserts the ledger row, all in one database transaction. Returns the
// sender's new balance.
func (r *PostgresRepository) RecordTransfer(ctx context.Context, record *domain.Transaction) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var senderBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET balance = balance - $1 WHERE phone_number = $2 AND balance >= $1 RETURNING balance`,
		record.Amount, record.FromPhone,
	).Scan(&senderBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var available int64
			lookupErr := tx.QueryRow(ctx, `SELECT balance FROM users WHERE phone_number = $1`, record.FromPhone).Scan(&available)
			if lookupErr != nil {
				if errors.Is(lookupErr, pgx.ErrNoRows) {
					return 0, ErrUserNotFound
				}
				return 0, lookupErr
			}
			return available, ErrInsufficientFunds
		}
		return 0, err
	}

	result, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance + $1 WHERE phone_number = $2`,
		record.Amount, record.ToPhone,
	)
	if err != nil {
		return 0, err
	}
	if result.RowsAffected() == 0 {
		return 0, ErrUserNotFound
	}

	record.Balance = senderBalance
	if err := insertTransactionTx(ctx, tx, record); err != nil {
		return 0, err
	}
	return senderBalance, tx.Commit(ctx)
}

const transactionColumns = `id, from_account, to_account, from_phone, to_phone,
	amount, type, status, description, balance, created_at`

func scanTransaction(rows pgx.Rows) (domain.Transaction, error) {
	var t domain.Transaction
	err := rows.Scan(
		&t.ID, &t.FromAccount, &t.ToAccount, &t.FromPhone, &t.ToPhone,
		&t.Amount, &t.Type, &t.Status, &t.Description, &t.Balance, &t.CreatedAt,
	)
	return t, err
}

// FindTransactionsByPhone returns every transaction involving the phone
// number, ascending by creation time so callers can replay them directly.
func (r *PostgresRepository) FindTransactionsByPhone(ctx context.Context, phoneNumber string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_phone = $1 OR to_phone = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, phoneNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// FindTransactionsInWindow returns transactions inside the window, newest
// first. A positive limit caps the result; zero means unbounded.
func (r *PostgresRepository) FindTransactionsInWindow(ctx context.Context, window domain.TransactionWindow, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
	`
	args := []interface{}{window.From, window.To}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// InsertTransaction writes a ledger row without touching any balance. Used by
// the reconciliation repair path.
func (r *PostgresRepository) InsertTransaction(ctx context.Context, record *domain.Transaction) error {
	_, err := r.db.Exec(ctx, insertTransactionQuery,
		record.ID, record.FromAccount, record.ToAccount, record.FromPhone, record.ToPhone,
		record.Amount, record.Type, record.Status, record.Description, record.Balance,
		record.CreatedAt,
	)
	return err
}

const cardColumns = `id, phone_number, card_number, card_holder, expiry_month, expiry_year,
	cvv, card_type, status, request_status, request_reason, requested_at, approved_at, created_at`

func scanCard(row pgx.Row) (*domain.Card, error) {
	var card domain.Card
	err := row.Scan(
		&card.ID, &card.PhoneNumber, &card.CardNumber, &card.CardHolder,
		&card.ExpiryMonth, &card.ExpiryYear, &card.CVV, &card.CardType,
		&card.Status, &card.RequestStatus, &card.RequestReason,
		&card.RequestedAt, &card.ApprovedAt, &card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// CreateCard inserts a card or card request. Generated card numbers carry a
// uniqueness constraint; a collision fails the write with
// ErrDuplicateCardNumber and is not retried.
func (r *PostgresRepository) CreateCard(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, phone_number, card_number, card_holder, expiry_month, expiry_year,
			cvv, card_type, status, request_status, request_reason, requested_at, approved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		card.ID, card.PhoneNumber, card.CardNumber, card.CardHolder,
		card.ExpiryMonth, card.ExpiryYear, card.CVV, card.CardType,
		card.Status, card.RequestStatus, card.RequestReason,
		card.RequestedAt, card.ApprovedAt, card.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCardNumber
		}
		return err
	}
	return nil
}

// FindCardByID retrieves a card by its ID.
func (r *PostgresRepository) FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	return scanCard(r.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, cardID))
}

// FindCardsByPhoneAndStatus returns a user's cards, optionally filtered by
// issued status. An empty status returns every card.
func (r *PostgresRepository) FindCardsByPhoneAndStatus(ctx context.Context, phoneNumber string, status string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE phone_number = $1`
	args := []interface{}{phoneNumber}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

// FindPendingCardRequestByPhone returns the user's open card request, if any.
func (r *PostgresRepository) FindPendingCardRequestByPhone(ctx context.Context, phoneNumber string) (*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE phone_number = $1 AND request_status = 'pending'
		ORDER BY requested_at DESC
		LIMIT 1
	`
	return scanCard(r.db.QueryRow(ctx, query, phoneNumber))
}

// ListCardRequests returns card requests newest first, optionally filtered by
// request status.
func (r *PostgresRepository) ListCardRequests(ctx context.Context, requestStatus string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards`
	args := []interface{}{}
	if requestStatus != "" {
		query += ` WHERE request_status = $1`
		args = append(args, requestStatus)
	}
	query += ` ORDER BY requested_at DESC NULLS LAST, created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

func collectCards(rows pgx.Rows) ([]domain.Card, error) {
	cards := []domain.Card{}
	for rows.Next() {
		var card domain.Card
		err := rows.Scan(
			&card.ID, &card.PhoneNumber, &card.CardNumber, &card.CardHolder,
			&card.ExpiryMonth, &card.ExpiryYear, &card.CVV, &card.CardType,
			&card.Status, &card.RequestStatus, &card.RequestReason,
			&card.RequestedAt, &card.ApprovedAt, &card.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// ListCardsWithOwners returns every card joined with its owner's name and
// email for the back-office list. Cards whose phone number no longer resolves
// keep placeholder owner fields; the join is by value, not a foreign key.
func (r *PostgresRepository) ListCardsWithOwners(ctx context.Context) ([]domain.AdminCardView, error) {
	query := `
		SELECT c.id, c.phone_number, c.card_number, c.card_holder, c.expiry_month, c.expiry_year,
			c.cvv, c.card_type, c.status, c.request_status, c.request_reason,
			c.requested_at, c.approved_at, c.created_at,
			COALESCE(u.full_name, 'Unknown'), COALESCE(u.email, 'Unknown')
		FROM cards c
		LEFT JOIN users u ON u.phone_number = c.phone_number
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []domain.AdminCardView{}
	for rows.Next() {
		var v domain.AdminCardView
		err := rows.Scan(
			&v.ID, &v.PhoneNumber, &v.CardNumber, &v.CardHolder,
			&v.ExpiryMonth, &v.ExpiryYear, &v.CVV, &v.CardType,
			&v.Status, &v.RequestStatus, &v.RequestReason,
			&v.RequestedAt, &v.ApprovedAt, &v.CreatedAt,
			&v.UserName, &v.UserEmail,
		)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// ApproveCardRequest overwrites the placeholder card data with generated
// values and activates the card.
func (r *PostgresRepository) ApproveCardRequest(ctx context.Context, cardID uuid.UUID, cardNumber, expiryMonth, expiryYear, cvv string, approvedAt time.Time) error {
	query := `
		UPDATE cards
		SET card_number = $1, expiry_month = $2, expiry_year = $3, cvv = $4,
			status = 'active', request_status = 'approved', approved_at = $5
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query, cardNumber, expiryMonth, expiryYear, cvv, approvedAt, cardID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCardNumber
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// RejectCardRequest marks both the request and the card as rejected.
func (r *PostgresRepository) RejectCardRequest(ctx context.Context, cardID uuid.UUID) error {
	query := `UPDATE cards SET status = 'rejected', request_status = 'rejected' WHERE id = $1`
	result, err := r.db.Exec(ctx, query, cardID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// UpdateCardStatus toggles an issued card between active and blocked.
func (r *PostgresRepository) UpdateCardStatus(ctx context.Context, cardID uuid.UUID, status string) error {
	result, err := r.db.Exec(ctx, `UPDATE cards SET status = $1 WHERE id = $2`, status, cardID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// CreateAdmin inserts a back-office credential holder.
func (r *PostgresRepository) CreateAdmin(ctx context.Context, admin *domain.Admin) error {
	query := `
		INSERT INTO admins (id, username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		admin.ID, admin.Username, admin.Email, admin.PasswordHash, admin.Role, admin.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

// FindAdminByEmail retrieves an admin by email.
func (r *PostgresRepository) FindAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var admin domain.Admin
	query := `SELECT id, username, email, password_hash, role, created_at FROM admins WHERE lower(email) = lower($1)`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&admin.ID, &admin.Username, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// CountAdmins reports how many admins exist; used by the setup bootstrap.
func (r *PostgresRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

// AdminStats gathers the platform-wide counters in a single round trip.
func (r *PostgresRepository) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var stats domain.AdminStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE status = 'pending'),
			(SELECT COUNT(*) FROM users WHERE status = 'active'),
			(SELECT COUNT(*) FROM cards),
			(SELECT COUNT(*) FROM transactions)
	`
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalUsers, &stats.PendingUsers, &stats.ActiveUsers,
		&stats.TotalCards, &stats.TotalTransactions,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
