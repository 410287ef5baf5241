package server

import (
	"encoding/json"
	"sort"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
)

// TableSummary is the lobby line for one table. Private tables appear with
// their visibility flag set but never expose their access code.
type TableSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Creator   string          `json:"creator"`
	Private   bool            `json:"private"`
	Phase     blackjack.Phase `json:"phase"`
	Occupants int             `json:"occupants"`
	MaxSeats  int             `json:"maxSeats"`
	MinBet    int64           `json:"minBet"`
	MaxBet    int64           `json:"maxBet"`
}

// ListTables builds the lobby view over every live table.
func (s *Server) ListTables() []TableSummary {
	s.tablesMu.RLock()
	tables := make([]*blackjack.Table, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}
	s.tablesMu.RUnlock()

	summaries := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		snap := t.Snapshot()
		summaries = append(summaries, TableSummary{
			ID:        snap.ID,
			Name:      snap.Name,
			Creator:   snap.Creator,
			Private:   snap.Private,
			Phase:     t.Phase(),
			Occupants: len(t.Occupants()),
			MaxSeats:  snap.MaxSeats,
			MinBet:    snap.MinBet,
			MaxBet:    snap.MaxBet,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// broadcastLobbyUpdate rebuilds the lobby view and pushes it to every
// connected client. Runs on a dispatcher worker, outside any table lock.
func (s *Server) broadcastLobbyUpdate() {
	summaries := s.ListTables()
	data, err := json.Marshal(summaries)
	if err != nil {
		s.log.Errorf("marshal lobby update: %v", err)
		return
	}
	s.broadcastAll(&Notification{
		Type: blackjack.EventLobbyUpdate,
		Data: data,
	})
}
