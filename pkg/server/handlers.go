package server

import (
	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
)

// Exported command handlers. Every failed command is reported back to the
// acting identity as a targeted ERROR notification in addition to the
// returned error, so a fire-and-forget transport still surfaces the problem.
// Broadcast table state is never touched by a failed command.

// CreateTable opens a new table owned by creator. Each identity may own at
// most one live table. The creator of a private table is granted access
// immediately.
func (s *Server) CreateTable(creator string, params CreateTableParams) (string, error) {
	id, err := s.createTable(creator, params)
	if err != nil {
		s.notifyError(creator, "", err)
	}
	return id, err
}

// CloseTable shuts a table down on behalf of its creator or an admin. A hand
// in progress defers the closure to the end of that hand; the table then
// closes itself.
func (s *Server) CloseTable(email, tableID string) error {
	err := s.closeTable(email, tableID)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return err
}

// AuthorizeEmail validates an access code against a private table and records
// a sticky grant. Grants survive leaving the table and are revoked only when
// the table closes. Public tables authorize anyone.
func (s *Server) AuthorizeEmail(email, tableID, code string) error {
	err := s.authorizeEmail(email, tableID, code)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return err
}

// EnterTable seats an identity at a table. An identity may hold one seat
// across the whole server; entering the table it is already seated at is the
// reconnect path, restoring the held seat.
func (s *Server) EnterTable(email, tableID string) (int, error) {
	seat, err := s.enterTable(email, tableID)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return seat, err
}

// LeaveTable gives up an identity's seat. Leaving mid-hand marks the seat
// disconnected instead; the grace timer releases it later.
func (s *Server) LeaveTable(email, tableID string) error {
	err := s.leaveTable(email, tableID)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return err
}

// Watch subscribes an identity to a public table's events without taking a
// seat. Watching a private table requires an access grant.
func (s *Server) Watch(email, tableID string) error {
	err := s.watch(email, tableID)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return err
}

// PlaceBet stakes or replaces an identity's bet for the upcoming hand.
func (s *Server) PlaceBet(email, tableID string, seat int, amount int64) error {
	err := s.placeBet(email, tableID, seat, amount)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return err
}

// Action applies a turn action (hit, stand, double) for an identity.
func (s *Server) Action(email, tableID string, seat int, action string) error {
	err := s.action(email, tableID, seat, action)
	if err != nil {
		s.notifyError(email, tableID, err)
	}
	return err
}

func (s *Server) placeBet(email, tableID string, seat int, amount int64) error {
	table, err := s.GetTable(tableID)
	if err != nil {
		return err
	}
	return table.PlaceBet(email, seat, amount)
}

func (s *Server) action(email, tableID string, seat int, action string) error {
	table, err := s.GetTable(tableID)
	if err != nil {
		return err
	}
	kind, err := blackjack.ParseActionKind(action)
	if err != nil {
		return err
	}
	return table.Apply(email, seat, kind)
}

func (s *Server) notifyError(email, tableID string, err error) {
	s.sendToPlayer(email, &Notification{
		Type:    blackjack.EventError,
		TableID: tableID,
		Message: err.Error(),
	})
}
