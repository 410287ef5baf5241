package server

import (
	"fmt"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
	serverdb "github.com/team-evalux/CasinoBack-sub000/pkg/server/internal/db"
)

const (
	maxTableNameLen  = 20
	maxAccessCodeLen = 32
)

// CreateTableParams carries the client-supplied options for a new table.
type CreateTableParams struct {
	Name       string
	Private    bool
	AccessCode string
	MaxSeats   int
	MinBet     int64
	MaxBet     int64
}

func (s *Server) createTable(creator string, params CreateTableParams) (string, error) {
	if params.Private && params.AccessCode == "" {
		return "", fmt.Errorf("private table needs an access code: %w", ErrInvalidConfig)
	}
	// Zero limits are open-ended: no minimum, no maximum.
	if params.MinBet < 0 || params.MaxBet < 0 {
		return "", fmt.Errorf("bet limits %d..%d: %w", params.MinBet, params.MaxBet, ErrInvalidConfig)
	}
	if params.MaxBet > 0 && params.MaxBet < params.MinBet {
		return "", fmt.Errorf("bet limits %d..%d: %w", params.MinBet, params.MaxBet, ErrInvalidConfig)
	}
	if len(params.Name) > maxTableNameLen {
		params.Name = params.Name[:maxTableNameLen]
	}
	if len(params.AccessCode) > maxAccessCodeLen {
		params.AccessCode = params.AccessCode[:maxAccessCodeLen]
	}
	if params.Name == "" {
		params.Name = fmt.Sprintf("%s's table", localPart(creator))
	}
	if params.MaxSeats < blackjack.MinSeats {
		params.MaxSeats = blackjack.MinSeats
	}
	if params.MaxSeats > blackjack.MaxSeats {
		params.MaxSeats = blackjack.MaxSeats
	}

	s.creatorsMu.Lock()
	if existing, ok := s.creatorTables[creator]; ok {
		s.creatorsMu.Unlock()
		return "", fmt.Errorf("creator %s owns table %s: %w", creator, existing, ErrAlreadyCreated)
	}
	// Reserve the slot before the slow path; rolled back on failure.
	s.creatorTables[creator] = ""
	s.creatorsMu.Unlock()

	id, err := s.db.CreateTable(&serverdb.TableMeta{
		Name:       params.Name,
		Creator:    creator,
		Private:    params.Private,
		AccessCode: params.AccessCode,
		MaxSeats:   params.MaxSeats,
		MinBet:     params.MinBet,
		MaxBet:     params.MaxBet,
	})
	if err != nil {
		s.creatorsMu.Lock()
		delete(s.creatorTables, creator)
		s.creatorsMu.Unlock()
		return "", fmt.Errorf("persist table: %v", err)
	}

	table := s.buildTable(blackjack.TableConfig{
		ID:         id,
		Name:       params.Name,
		Creator:    creator,
		Private:    params.Private,
		AccessCode: params.AccessCode,
		MaxSeats:   params.MaxSeats,
		MinBet:     params.MinBet,
		MaxBet:     params.MaxBet,
	})

	s.tablesMu.Lock()
	s.tables[id] = table
	s.tablesMu.Unlock()

	s.creatorsMu.Lock()
	s.creatorTables[creator] = id
	s.creatorsMu.Unlock()

	if params.Private {
		s.grant(id, creator)
	}

	s.log.Infof("table %s (%q) created by %s, private=%v", id, params.Name, creator, params.Private)
	s.broadcastLobbyUpdate()
	return id, nil
}

func (s *Server) authorizeEmail(email, tableID, code string) error {
	table, err := s.GetTable(tableID)
	if err != nil {
		return err
	}
	if !table.IsPrivate() {
		return nil
	}
	if s.hasGrant(tableID, email) {
		return nil
	}
	if code != table.AccessCode() {
		return fmt.Errorf("table %s: %w", tableID, ErrNotAuthorized)
	}
	s.grant(tableID, email)
	s.log.Debugf("granted %s access to private table %s", email, tableID)
	return nil
}

func (s *Server) grant(tableID, email string) {
	s.grantsMu.Lock()
	set, ok := s.grants[tableID]
	if !ok {
		set = make(map[string]struct{})
		s.grants[tableID] = set
	}
	set[email] = struct{}{}
	s.grantsMu.Unlock()
}

func (s *Server) hasGrant(tableID, email string) bool {
	s.grantsMu.RLock()
	_, ok := s.grants[tableID][email]
	s.grantsMu.RUnlock()
	return ok
}

func (s *Server) closeTable(email, tableID string) error {
	table, err := s.GetTable(tableID)
	if err != nil {
		return err
	}
	if _, admin := s.admins[email]; table.Creator() != email && !admin {
		return fmt.Errorf("only the creator may close table %s: %w", tableID, ErrNotAuthorized)
	}
	if !table.RequestClose() {
		s.log.Infof("table %s: close requested by %s, deferred until hand ends", tableID, email)
		return nil
	}
	s.finishClose(tableID)
	return nil
}

// finishClose tears down a table that has already stopped playing: notifies
// everyone entitled to the table, then revokes grants, purges indices and
// deletes the metadata row. Runs without any table lock held.
func (s *Server) finishClose(tableID string) {
	table, err := s.GetTable(tableID)
	if err != nil {
		return
	}

	// Broadcast before revoking grants so private-table members still
	// receive the closure.
	s.broadcastTableEvent(tableID, &Notification{
		Type:    blackjack.EventTableClosed,
		TableID: tableID,
		Message: "table closed",
	})

	s.tablesMu.Lock()
	delete(s.tables, tableID)
	s.tablesMu.Unlock()

	s.creatorsMu.Lock()
	if s.creatorTables[table.Creator()] == tableID {
		delete(s.creatorTables, table.Creator())
	}
	s.creatorsMu.Unlock()

	s.grantsMu.Lock()
	delete(s.grants, tableID)
	s.grantsMu.Unlock()

	s.playersMu.Lock()
	for email, id := range s.playerTables {
		if id == tableID {
			delete(s.playerTables, email)
		}
	}
	s.playersMu.Unlock()

	s.watchersMu.Lock()
	delete(s.watchers, tableID)
	s.watchersMu.Unlock()

	s.timers.CancelTable(tableID)

	if err := s.db.DeleteTable(tableID); err != nil {
		s.log.Errorf("delete table %s metadata: %v", tableID, err)
	}

	s.log.Infof("table %s removed", tableID)
	s.broadcastLobbyUpdate()
}
