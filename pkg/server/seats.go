package server

import (
	"fmt"
	"strings"
)

func (s *Server) enterTable(email, tableID string) (int, error) {
	table, err := s.GetTable(tableID)
	if err != nil {
		return -1, err
	}
	if table.IsPrivate() && !s.hasGrant(tableID, email) {
		return -1, fmt.Errorf("table %s: %w", tableID, ErrNotAuthorized)
	}

	s.playersMu.Lock()
	if current, ok := s.playerTables[email]; ok && current != tableID {
		s.playersMu.Unlock()
		return -1, fmt.Errorf("%s is at table %s: %w", email, current, ErrAlreadySeated)
	}
	// Reserve the identity slot; rolled back if the table rejects the seat.
	s.playerTables[email] = tableID
	s.playersMu.Unlock()

	// Seated players follow the table's events like any watcher does.
	// Registered before taking the seat so the entry broadcast reaches them.
	if !table.IsPrivate() {
		s.watchersMu.Lock()
		set, ok := s.watchers[tableID]
		if !ok {
			set = make(map[string]struct{})
			s.watchers[tableID] = set
		}
		set[email] = struct{}{}
		s.watchersMu.Unlock()
	}

	seat, err := table.Enter(email, s.displayName(email))
	if err != nil {
		s.playersMu.Lock()
		if s.playerTables[email] == tableID {
			delete(s.playerTables, email)
		}
		s.playersMu.Unlock()
		s.Unwatch(email, tableID)
		return -1, err
	}

	s.log.Infof("%s took seat %d at table %s", email, seat, tableID)
	return seat, nil
}

func (s *Server) leaveTable(email, tableID string) error {
	table, err := s.GetTable(tableID)
	if err != nil {
		return err
	}
	if err := table.Leave(email); err != nil {
		return err
	}
	s.Unwatch(email, tableID)
	return nil
}

// MarkDisconnected flags the identity's seat, if any, as disconnected and
// starts its grace timer. Called by the transport when a connection drops.
func (s *Server) MarkDisconnected(email string) {
	s.playersMu.Lock()
	tableID, ok := s.playerTables[email]
	s.playersMu.Unlock()
	if !ok {
		return
	}
	table, err := s.GetTable(tableID)
	if err != nil {
		return
	}
	table.MarkDisconnected(email)
	s.log.Debugf("%s disconnected from table %s", email, tableID)
}

// MarkReconnected restores a disconnected identity's seat. Called by the
// transport when the identity connects again.
func (s *Server) MarkReconnected(email string) {
	s.playersMu.Lock()
	tableID, ok := s.playerTables[email]
	s.playersMu.Unlock()
	if !ok {
		return
	}
	table, err := s.GetTable(tableID)
	if err != nil {
		return
	}
	table.MarkReconnected(email)
	s.log.Debugf("%s reconnected to table %s", email, tableID)

	// Resend current state so the client can rebuild its view.
	s.sendToPlayer(email, stateNotification(table))
}

// handleSeatReleased purges the identity index once a table actually frees a
// seat, whether by an explicit leave or the grace timer.
func (s *Server) handleSeatReleased(tableID, email string) {
	s.playersMu.Lock()
	if s.playerTables[email] == tableID {
		delete(s.playerTables, email)
	}
	s.playersMu.Unlock()
}

func (s *Server) displayName(email string) string {
	if name, err := s.db.GetDisplayName(email); err == nil && name != "" {
		return name
	}
	return localPart(email)
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
