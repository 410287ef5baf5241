package server

import (
	"errors"
	"sync"

	"github.com/decred/slog"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
	"github.com/team-evalux/CasinoBack-sub000/pkg/timers"
)

// Server-level sentinel errors. Table-level failures carry the blackjack
// package's own sentinels.
var (
	ErrTableNotFound  = errors.New("table not found")
	ErrNotAuthorized  = errors.New("not authorized for this table")
	ErrAlreadySeated  = errors.New("already seated at another table")
	ErrAlreadyCreated = errors.New("identity already has a live table")
	ErrInvalidConfig  = errors.New("invalid table configuration")
)

// Config holds the server's construction parameters.
type Config struct {
	DB Database

	// Seed, when nonzero, makes every table's shoe deterministic. Zero
	// seeds each shoe from the clock.
	Seed int64

	// Admins may close any table, not just their own.
	Admins []string

	LogBackend *logging.LogBackend
}

// Server owns the table registry, access control, player identity index and
// notification fan-out for one casino process.
type Server struct {
	log      slog.Logger
	tableLog slog.Logger
	db       Database

	timers     *timers.Registry
	dispatcher *EventDispatcher
	seed       int64
	admins     map[string]struct{}

	tablesMu sync.RWMutex
	tables   map[string]*blackjack.Table

	// creatorTables enforces one live table per creator identity.
	creatorsMu    sync.Mutex
	creatorTables map[string]string

	// grants holds sticky access grants per private table. A grant survives
	// leaving the table and is only revoked when the table closes.
	grantsMu sync.RWMutex
	grants   map[string]map[string]struct{}

	// playerTables maps a seated identity to its table, enforcing one seat
	// across the whole server.
	playersMu    sync.Mutex
	playerTables map[string]string

	streamsMu sync.RWMutex
	streams   map[string]*NotificationStream

	watchersMu sync.RWMutex
	watchers   map[string]map[string]struct{}
}

// New creates the server, reloading persisted tables as empty instances.
func New(cfg Config) (*Server, error) {
	logBackend := cfg.LogBackend
	if logBackend == nil {
		var err error
		logBackend, err = logging.NewLogBackend(logging.LogConfig{
			DebugLevel: "info",
		})
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		log:           logBackend.Logger("SRVR"),
		db:            cfg.DB,
		timers:        timers.New(logBackend.Logger("TIMR")),
		seed:          cfg.Seed,
		admins:        make(map[string]struct{}),
		tables:        make(map[string]*blackjack.Table),
		creatorTables: make(map[string]string),
		grants:        make(map[string]map[string]struct{}),
		playerTables:  make(map[string]string),
		streams:       make(map[string]*NotificationStream),
		watchers:      make(map[string]map[string]struct{}),
	}
	for _, email := range cfg.Admins {
		s.admins[email] = struct{}{}
	}
	s.tableLog = logBackend.Logger("TABL")
	s.dispatcher = NewEventDispatcher(logBackend.Logger("EVNT"), s.handleEvent)

	if err := s.reloadTables(); err != nil {
		s.dispatcher.Stop()
		return nil, err
	}
	return s, nil
}

// reloadTables recreates persisted tables as empty instances after a restart.
// Seats, bets and hand state are not persisted; only the table shells return.
func (s *Server) reloadTables() error {
	metas, err := s.db.ListTables()
	if err != nil {
		return err
	}
	for _, meta := range metas {
		table := s.buildTable(blackjack.TableConfig{
			ID:         meta.ID,
			Name:       meta.Name,
			Creator:    meta.Creator,
			Private:    meta.Private,
			AccessCode: meta.AccessCode,
			MaxSeats:   meta.MaxSeats,
			MinBet:     meta.MinBet,
			MaxBet:     meta.MaxBet,
		})

		s.tablesMu.Lock()
		s.tables[meta.ID] = table
		s.tablesMu.Unlock()

		s.creatorsMu.Lock()
		s.creatorTables[meta.Creator] = meta.ID
		s.creatorsMu.Unlock()

		if meta.Private {
			s.grant(meta.ID, meta.Creator)
		}
	}
	if len(metas) > 0 {
		s.log.Infof("reloaded %d tables from database", len(metas))
	}
	return nil
}

// buildTable wires a domain table into the server's scheduler, wallet and
// event plumbing.
func (s *Server) buildTable(cfg blackjack.TableConfig) *blackjack.Table {
	cfg.Seed = s.seed
	cfg.Log = s.tableLog
	table := blackjack.NewTable(cfg, s.db, s.timers)
	table.SetEventPublisher(s.dispatcher.Publish)
	table.SetOnSeatReleased(func(email string) {
		s.handleSeatReleased(cfg.ID, email)
	})
	table.SetOnAutoClose(func() {
		s.finishClose(cfg.ID)
	})
	return table
}

// GetTable returns a live table by id.
func (s *Server) GetTable(tableID string) (*blackjack.Table, error) {
	s.tablesMu.RLock()
	table, ok := s.tables[tableID]
	s.tablesMu.RUnlock()
	if !ok {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// Balance returns the wallet balance of an identity.
func (s *Server) Balance(email string) (int64, error) {
	return s.db.GetBalance(email)
}

// RegisterAccount creates or refreshes an account row. New accounts start with
// the given balance; existing ones keep theirs.
func (s *Server) RegisterAccount(email, displayName string, startingBalance int64) error {
	err := s.db.UpsertAccount(email, displayName, startingBalance)
	if err != nil {
		s.notifyError(email, "", err)
	}
	return err
}

// Shutdown closes every table, stops the dispatcher and timers, and closes
// all notification streams. The database handle stays open for the caller.
func (s *Server) Shutdown() {
	s.tablesMu.RLock()
	ids := make([]string, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	s.tablesMu.RUnlock()

	for _, id := range ids {
		if table, err := s.GetTable(id); err == nil {
			table.RequestClose()
		}
		s.timers.CancelTable(id)
	}

	s.dispatcher.Stop()

	s.streamsMu.Lock()
	for _, ns := range s.streams {
		ns.Close()
	}
	s.streams = make(map[string]*NotificationStream)
	s.streamsMu.Unlock()

	s.log.Infof("server shut down")
}
