package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
)

// TableMeta is the persisted metadata row for a table. Live table state stays
// in memory; only what is needed to recreate an empty table at boot is stored.
type TableMeta struct {
	ID         string
	Name       string
	Creator    string
	Private    bool
	AccessCode string
	MaxSeats   int
	MinBet     int64
	MaxBet     int64
	CreatedAt  string
}

// DB represents the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			email TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (email) REFERENCES accounts(email)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tables (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			creator TEXT NOT NULL,
			private INTEGER NOT NULL DEFAULT 0,
			access_code TEXT NOT NULL DEFAULT '',
			max_seats INTEGER NOT NULL,
			min_bet INTEGER NOT NULL,
			max_bet INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// GetBalance returns the current wallet balance of an account.
func (db *DB) GetBalance(email string) (int64, error) {
	var balance int64
	err := db.QueryRow("SELECT balance FROM accounts WHERE email = ?", email).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("account not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %v", err)
	}
	return balance, nil
}

// Debit withdraws amount from an account and records the transaction. An
// account that cannot cover the amount fails with
// blackjack.ErrInsufficientFunds and no balance change.
func (db *DB) Debit(email string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive")
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow("SELECT balance FROM accounts WHERE email = ?", email).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("account not found")
	}
	if err != nil {
		return 0, err
	}

	if balance < amount {
		return 0, fmt.Errorf("debit %d from %s (balance %d): %w", amount, email, balance, blackjack.ErrInsufficientFunds)
	}

	newBalance := balance - amount
	if _, err := tx.Exec("UPDATE accounts SET balance = ? WHERE email = ?", newBalance, email); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		"INSERT INTO transactions (email, amount, type, description) VALUES (?, ?, ?, ?)",
		email, -amount, "debit", description,
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit deposits amount into an account and records the transaction.
func (db *DB) Credit(email string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow("SELECT balance FROM accounts WHERE email = ?", email).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("account not found")
	}
	if err != nil {
		return 0, err
	}

	newBalance := balance + amount
	if _, err := tx.Exec("UPDATE accounts SET balance = ? WHERE email = ?", newBalance, email); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		"INSERT INTO transactions (email, amount, type, description) VALUES (?, ?, ?, ?)",
		email, amount, "credit", description,
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// UpsertAccount creates an account or updates its display name, leaving the
// balance of an existing account untouched.
func (db *DB) UpsertAccount(email, displayName string, balance int64) error {
	if displayName == "" {
		displayName = localPart(email)
	}
	_, err := db.Exec(`
		INSERT INTO accounts (email, display_name, balance)
		VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET display_name = excluded.display_name
	`, email, displayName, balance)
	return err
}

// GetDisplayName returns the display name registered for an account.
func (db *DB) GetDisplayName(email string) (string, error) {
	var name string
	err := db.QueryRow("SELECT display_name FROM accounts WHERE email = ?", email).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("account not found")
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// CreateTable persists a table metadata row and returns the assigned id.
func (db *DB) CreateTable(meta *TableMeta) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	_, err := db.Exec(`
		INSERT INTO tables (id, name, creator, private, access_code, max_seats, min_bet, max_bet)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, meta.ID, meta.Name, meta.Creator, meta.Private, meta.AccessCode, meta.MaxSeats, meta.MinBet, meta.MaxBet)
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// DeleteTable removes a table metadata row.
func (db *DB) DeleteTable(id string) error {
	_, err := db.Exec("DELETE FROM tables WHERE id = ?", id)
	return err
}

// ListTables returns every persisted table metadata row, for boot-time reload.
func (db *DB) ListTables() ([]*TableMeta, error) {
	rows, err := db.Query(`
		SELECT id, name, creator, private, access_code, max_seats, min_bet, max_bet, created_at
		FROM tables ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []*TableMeta
	for rows.Next() {
		meta := &TableMeta{}
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Creator, &meta.Private, &meta.AccessCode,
			&meta.MaxSeats, &meta.MinBet, &meta.MaxBet, &meta.CreatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
