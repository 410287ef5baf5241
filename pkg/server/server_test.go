package server

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
	serverdb "github.com/team-evalux/CasinoBack-sub000/pkg/server/internal/db"
)

// InMemoryDB implements Database for testing
type InMemoryDB struct {
	mu       sync.RWMutex
	balances map[string]int64
	names    map[string]string
	tables   map[string]*serverdb.TableMeta
}

// NewInMemoryDB creates a new in-memory database for testing
func NewInMemoryDB() *InMemoryDB {
	return &InMemoryDB{
		balances: make(map[string]int64),
		names:    make(map[string]string),
		tables:   make(map[string]*serverdb.TableMeta),
	}
}

func (m *InMemoryDB) GetBalance(email string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance, exists := m.balances[email]
	if !exists {
		return 0, fmt.Errorf("account not found")
	}
	return balance, nil
}

func (m *InMemoryDB) Debit(email string, amount int64, description string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[email] < amount {
		return 0, fmt.Errorf("balance %d below %d: %w", m.balances[email], amount, blackjack.ErrInsufficientFunds)
	}
	m.balances[email] -= amount
	return m.balances[email], nil
}

func (m *InMemoryDB) Credit(email string, amount int64, description string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[email] += amount
	return m.balances[email], nil
}

func (m *InMemoryDB) UpsertAccount(email, displayName string, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.balances[email]; !exists {
		m.balances[email] = balance
	}
	m.names[email] = displayName
	return nil
}

func (m *InMemoryDB) GetDisplayName(email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, exists := m.names[email]
	if !exists {
		return "", fmt.Errorf("account not found")
	}
	return name, nil
}

func (m *InMemoryDB) CreateTable(meta *serverdb.TableMeta) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	m.tables[meta.ID] = meta
	return meta.ID, nil
}

func (m *InMemoryDB) DeleteTable(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, id)
	return nil
}

func (m *InMemoryDB) ListTables() ([]*serverdb.TableMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metas := make([]*serverdb.TableMeta, 0, len(m.tables))
	for _, meta := range m.tables {
		metas = append(metas, meta)
	}
	return metas, nil
}

func (m *InMemoryDB) Close() error { return nil }

func newTestServer(t *testing.T) (*Server, *InMemoryDB) {
	t.Helper()
	db := NewInMemoryDB()
	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: "error"})
	require.NoError(t, err)

	srv, err := New(Config{DB: db, Seed: 42, LogBackend: logBackend})
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)
	return srv, db
}

func TestCreateTable(t *testing.T) {
	srv, db := newTestServer(t)

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{
		Name:   "High Rollers",
		MinBet: 10,
		MaxBet: 500,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	table, err := srv.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", table.Creator())
	assert.False(t, table.IsPrivate())

	// Metadata persisted for boot reload.
	metas, err := db.ListTables()
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "High Rollers", metas[0].Name)
}

func TestCreateTableOnePerCreator(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	_, err = srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	assert.ErrorIs(t, err, ErrAlreadyCreated)

	// A different identity is unaffected.
	_, err = srv.CreateTable("bob@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	assert.NoError(t, err)
}

func TestCreateTableValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CreateTable("a@x", CreateTableParams{Private: true, MinBet: 10, MaxBet: 100})
	assert.ErrorIs(t, err, ErrInvalidConfig, "private table without code")

	_, err = srv.CreateTable("a@x", CreateTableParams{MinBet: -1, MaxBet: 100})
	assert.ErrorIs(t, err, ErrInvalidConfig, "negative min bet")

	_, err = srv.CreateTable("a@x", CreateTableParams{MinBet: 100, MaxBet: 10})
	assert.ErrorIs(t, err, ErrInvalidConfig, "max below min")

	// Zero limits create an open-ended table: no minimum, no maximum.
	id0, err := srv.CreateTable("b@x", CreateTableParams{})
	require.NoError(t, err)
	open, err := srv.GetTable(id0)
	require.NoError(t, err)
	snap0 := open.Snapshot()
	assert.Equal(t, int64(0), snap0.MinBet)
	assert.Equal(t, int64(0), snap0.MaxBet)

	// Oversized name and seat count are clamped, not rejected.
	id, err := srv.CreateTable("a@x", CreateTableParams{
		Name:     "this name is far too long for a lobby line",
		MaxSeats: 50,
		MinBet:   10,
		MaxBet:   100,
	})
	require.NoError(t, err)
	table, err := srv.GetTable(id)
	require.NoError(t, err)
	snap := table.Snapshot()
	assert.Len(t, snap.Name, maxTableNameLen)
	assert.Equal(t, blackjack.MaxSeats, snap.MaxSeats)
}

func TestPrivateTableAccess(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NoError(t, srv.RegisterAccount("bob@example.com", "bob", 1000))

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{
		Private:    true,
		AccessCode: "secret",
		MinBet:     10,
		MaxBet:     100,
	})
	require.NoError(t, err)

	// No grant yet: entry refused.
	_, err = srv.EnterTable("bob@example.com", id)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Wrong code refused, nothing granted.
	err = srv.AuthorizeEmail("bob@example.com", id, "wrong")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = srv.EnterTable("bob@example.com", id)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Correct code grants access.
	require.NoError(t, srv.AuthorizeEmail("bob@example.com", id, "secret"))
	seat, err := srv.EnterTable("bob@example.com", id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seat, 0)

	// The grant is sticky: leave and re-enter without a code.
	require.NoError(t, srv.LeaveTable("bob@example.com", id))
	require.NoError(t, srv.AuthorizeEmail("bob@example.com", id, "ignored"))
	_, err = srv.EnterTable("bob@example.com", id)
	assert.NoError(t, err)
}

func TestCreatorPreGrantedOnPrivateTable(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NoError(t, srv.RegisterAccount("alice@example.com", "alice", 1000))

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{
		Private:    true,
		AccessCode: "secret",
		MinBet:     10,
		MaxBet:     100,
	})
	require.NoError(t, err)

	_, err = srv.EnterTable("alice@example.com", id)
	assert.NoError(t, err, "creator must not need an access code")
}

func TestOneSeatPerIdentity(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NoError(t, srv.RegisterAccount("carol@example.com", "carol", 1000))

	id1, err := srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)
	id2, err := srv.CreateTable("bob@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	_, err = srv.EnterTable("carol@example.com", id1)
	require.NoError(t, err)

	_, err = srv.EnterTable("carol@example.com", id2)
	assert.ErrorIs(t, err, ErrAlreadySeated)

	// Leaving the first table frees the identity.
	require.NoError(t, srv.LeaveTable("carol@example.com", id1))
	_, err = srv.EnterTable("carol@example.com", id2)
	assert.NoError(t, err)
}

func TestCloseTableOnlyByCreator(t *testing.T) {
	srv, db := newTestServer(t)

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	err = srv.CloseTable("bob@example.com", id)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, srv.CloseTable("alice@example.com", id))

	_, err = srv.GetTable(id)
	assert.ErrorIs(t, err, ErrTableNotFound)

	metas, err := db.ListTables()
	require.NoError(t, err)
	assert.Empty(t, metas, "metadata row must be deleted")

	// The creator may now open a fresh table.
	_, err = srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	assert.NoError(t, err)
}

func TestAdminMayCloseAnyTable(t *testing.T) {
	db := NewInMemoryDB()
	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: "error"})
	require.NoError(t, err)
	srv, err := New(Config{DB: db, Seed: 42, Admins: []string{"ops@example.com"}, LogBackend: logBackend})
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	require.NoError(t, srv.CloseTable("ops@example.com", id))
	_, err = srv.GetTable(id)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestListTablesIncludesPrivate(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := srv.CreateTable("alice@example.com", CreateTableParams{Name: "open", MinBet: 10, MaxBet: 100})
	require.NoError(t, err)
	_, err = srv.CreateTable("bob@example.com", CreateTableParams{
		Name:       "members",
		Private:    true,
		AccessCode: "secret",
		MinBet:     10,
		MaxBet:     100,
	})
	require.NoError(t, err)

	summaries := srv.ListTables()
	require.Len(t, summaries, 2)

	byName := make(map[string]TableSummary)
	for _, s := range summaries {
		byName[s.Name] = s
	}
	assert.False(t, byName["open"].Private)
	assert.True(t, byName["members"].Private)
}

func TestBootReloadRecreatesTables(t *testing.T) {
	db := NewInMemoryDB()
	_, err := db.CreateTable(&serverdb.TableMeta{
		Name:     "survivor",
		Creator:  "alice@example.com",
		MaxSeats: 4,
		MinBet:   10,
		MaxBet:   100,
	})
	require.NoError(t, err)

	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: "error"})
	require.NoError(t, err)
	srv, err := New(Config{DB: db, Seed: 42, LogBackend: logBackend})
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	summaries := srv.ListTables()
	require.Len(t, summaries, 1)
	assert.Equal(t, "survivor", summaries[0].Name)
	assert.Equal(t, 0, summaries[0].Occupants, "reloaded tables start empty")

	// The reloaded table counts against its creator's quota.
	_, err = srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	assert.ErrorIs(t, err, ErrAlreadyCreated)
}

func TestPlaceBetRoutesErrorNotification(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NoError(t, srv.RegisterAccount("bob@example.com", "bob", 1000))

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	stream := srv.Subscribe("bob@example.com")
	defer srv.Unsubscribe("bob@example.com", stream)

	_, err = srv.EnterTable("bob@example.com", id)
	require.NoError(t, err)

	err = srv.PlaceBet("bob@example.com", id, 0, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, blackjack.ErrBetBelowMinimum))

	// The targeted error notification is delivered synchronously; drain the
	// buffered stream until it shows up.
	found := false
drain:
	for {
		select {
		case n := <-stream.C:
			if n.Type == blackjack.EventError {
				found = true
				break drain
			}
		default:
			break drain
		}
	}
	assert.True(t, found, "expected an ERROR notification on the player stream")
}

func TestReconnectReplacesStream(t *testing.T) {
	srv, _ := newTestServer(t)

	s1 := srv.Subscribe("alice@example.com")
	s2 := srv.Subscribe("alice@example.com")

	// The replacement closed the first stream.
	select {
	case <-s1.Done:
	default:
		t.Fatal("expected the replaced stream to be closed")
	}

	// The stale connection's teardown must learn it no longer owns the
	// identity, so it never marks a live player disconnected.
	assert.False(t, srv.Unsubscribe("alice@example.com", s1))
	assert.True(t, srv.Unsubscribe("alice@example.com", s2))
}

func TestFailedCommandsNotifyActingIdentity(t *testing.T) {
	srv, _ := newTestServer(t)

	stream := srv.Subscribe("bob@example.com")
	defer srv.Unsubscribe("bob@example.com", stream)

	_, err := srv.EnterTable("bob@example.com", "no-such-table")
	require.ErrorIs(t, err, ErrTableNotFound)
	select {
	case n := <-stream.C:
		assert.Equal(t, blackjack.EventError, n.Type)
		assert.Equal(t, "no-such-table", n.TableID)
	default:
		t.Fatal("expected an ERROR notification for the failed enter")
	}

	err = srv.Watch("bob@example.com", "no-such-table")
	require.ErrorIs(t, err, ErrTableNotFound)
	select {
	case n := <-stream.C:
		assert.Equal(t, blackjack.EventError, n.Type)
	default:
		t.Fatal("expected an ERROR notification for the failed watch")
	}

	err = srv.CloseTable("bob@example.com", "no-such-table")
	require.ErrorIs(t, err, ErrTableNotFound)
	select {
	case n := <-stream.C:
		assert.Equal(t, blackjack.EventError, n.Type)
	default:
		t.Fatal("expected an ERROR notification for the failed close")
	}
}

func TestWatchPublicTable(t *testing.T) {
	srv, _ := newTestServer(t)

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{MinBet: 10, MaxBet: 100})
	require.NoError(t, err)

	stream := srv.Subscribe("spectator@example.com")
	defer srv.Unsubscribe("spectator@example.com", stream)

	require.NoError(t, srv.Watch("spectator@example.com", id))

	// Watching immediately delivers a state snapshot.
	select {
	case n := <-stream.C:
		assert.Equal(t, blackjack.EventTableState, n.Type)
		assert.Equal(t, id, n.TableID)
	default:
		t.Fatal("expected an immediate TABLE_STATE notification")
	}
}

func TestWatchPrivateTableNeedsGrant(t *testing.T) {
	srv, _ := newTestServer(t)

	id, err := srv.CreateTable("alice@example.com", CreateTableParams{
		Private:    true,
		AccessCode: "secret",
		MinBet:     10,
		MaxBet:     100,
	})
	require.NoError(t, err)

	err = srv.Watch("spectator@example.com", id)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, srv.AuthorizeEmail("spectator@example.com", id, "secret"))
	assert.NoError(t, srv.Watch("spectator@example.com", id))
}
