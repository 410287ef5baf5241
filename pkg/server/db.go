package server

import (
	serverdb "github.com/team-evalux/CasinoBack-sub000/pkg/server/internal/db"
)

// Database defines the persistence operations the server needs. The sqlite
// implementation lives in internal/db; tests substitute an in-memory fake.
type Database interface {
	// Wallet operations. These also satisfy blackjack.Wallet so a table can
	// debit and credit directly against the store.
	GetBalance(email string) (int64, error)
	Debit(email string, amount int64, description string) (int64, error)
	Credit(email string, amount int64, description string) (int64, error)

	// Account metadata.
	UpsertAccount(email, displayName string, balance int64) error
	GetDisplayName(email string) (string, error)

	// Table metadata, reloaded at boot.
	CreateTable(meta *serverdb.TableMeta) (string, error)
	DeleteTable(id string) error
	ListTables() ([]*serverdb.TableMeta, error)

	Close() error
}

// NewDatabase opens the SQLite-backed store at dbPath, creating the schema
// on first use. Callers outside this package use this instead of naming the
// internal implementation.
func NewDatabase(dbPath string) (Database, error) {
	return serverdb.NewDB(dbPath)
}
