package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
)

// Notification is the envelope pushed to connected clients. Data carries the
// event payload already marshaled so every subscriber shares one encoding.
type Notification struct {
	Type    blackjack.EventType `json:"type"`
	TableID string              `json:"tableId,omitempty"`
	Message string              `json:"message,omitempty"`
	Data    json.RawMessage     `json:"data,omitempty"`
}

// NotificationStream delivers notifications to a single connected client.
// Done is closed by the owner of the stream when the client goes away.
type NotificationStream struct {
	C    chan *Notification
	Done chan struct{}

	once sync.Once
}

func newNotificationStream() *NotificationStream {
	return &NotificationStream{
		// Buffered so a slow client does not stall the dispatcher.
		C:    make(chan *Notification, 64),
		Done: make(chan struct{}),
	}
}

// Close tears the stream down. Safe to call more than once.
func (ns *NotificationStream) Close() {
	ns.once.Do(func() { close(ns.Done) })
}

func (ns *NotificationStream) send(n *Notification) bool {
	select {
	case <-ns.Done:
		return false
	default:
	}
	select {
	case ns.C <- n:
		return true
	default:
		return false
	}
}

// Subscribe registers a notification stream for a client identity. Any
// previous stream for the same identity is closed first, so a reconnecting
// client replaces its old connection.
func (s *Server) Subscribe(email string) *NotificationStream {
	s.streamsMu.Lock()
	if old, ok := s.streams[email]; ok {
		old.Close()
	}
	ns := newNotificationStream()
	s.streams[email] = ns
	s.streamsMu.Unlock()
	return ns
}

// Unsubscribe removes the stream for a client identity if it is still the
// registered one, and reports whether it was. A false return means the
// identity has already been replaced by a newer subscription, so the caller
// must not treat the teardown as the identity going away.
func (s *Server) Unsubscribe(email string, ns *NotificationStream) bool {
	current := false
	s.streamsMu.Lock()
	if cur, ok := s.streams[email]; ok && cur == ns {
		delete(s.streams, email)
		current = true
	}
	s.streamsMu.Unlock()
	ns.Close()
	return current
}

func (s *Server) watch(email, tableID string) error {
	s.tablesMu.RLock()
	table, ok := s.tables[tableID]
	s.tablesMu.RUnlock()
	if !ok {
		return fmt.Errorf("table %s: %w", tableID, ErrTableNotFound)
	}
	if table.IsPrivate() && !s.hasGrant(tableID, email) {
		return fmt.Errorf("table %s: %w", tableID, ErrNotAuthorized)
	}

	s.watchersMu.Lock()
	set, ok := s.watchers[tableID]
	if !ok {
		set = make(map[string]struct{})
		s.watchers[tableID] = set
	}
	set[email] = struct{}{}
	s.watchersMu.Unlock()

	// Catch the new watcher up with the current table state.
	s.sendToPlayer(email, stateNotification(table))
	return nil
}

// Unwatch removes a watcher subscription.
func (s *Server) Unwatch(email, tableID string) {
	s.watchersMu.Lock()
	if set, ok := s.watchers[tableID]; ok {
		delete(set, email)
		if len(set) == 0 {
			delete(s.watchers, tableID)
		}
	}
	s.watchersMu.Unlock()
}

func (s *Server) sendToPlayer(email string, n *Notification) {
	s.streamsMu.RLock()
	ns, ok := s.streams[email]
	s.streamsMu.RUnlock()
	if !ok {
		return
	}
	if !ns.send(n) {
		s.log.Warnf("dropping %s notification for %s: stream full or closed", n.Type, email)
	}
}

// broadcastTableEvent fans a table event out to everyone entitled to it. For
// a private table that is the grant set; for a public table, its watchers.
// Seated players are watchers too, so both cases cover them.
func (s *Server) broadcastTableEvent(tableID string, n *Notification) {
	var recipients []string

	s.tablesMu.RLock()
	table, ok := s.tables[tableID]
	s.tablesMu.RUnlock()

	if ok && table.IsPrivate() {
		s.grantsMu.RLock()
		for email := range s.grants[tableID] {
			recipients = append(recipients, email)
		}
		s.grantsMu.RUnlock()
	} else {
		s.watchersMu.RLock()
		for email := range s.watchers[tableID] {
			recipients = append(recipients, email)
		}
		s.watchersMu.RUnlock()
	}

	for _, email := range recipients {
		s.sendToPlayer(email, n)
	}
}

// broadcastAll pushes a notification to every connected client. Used for
// lobby updates.
func (s *Server) broadcastAll(n *Notification) {
	s.streamsMu.RLock()
	streams := make([]*NotificationStream, 0, len(s.streams))
	emails := make([]string, 0, len(s.streams))
	for email, ns := range s.streams {
		streams = append(streams, ns)
		emails = append(emails, email)
	}
	s.streamsMu.RUnlock()

	for i, ns := range streams {
		if !ns.send(n) {
			s.log.Debugf("dropping %s notification for %s", n.Type, emails[i])
		}
	}
}

func stateNotification(table *blackjack.Table) *Notification {
	snap := table.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		data = nil
	}
	return &Notification{
		Type:    blackjack.EventTableState,
		TableID: snap.ID,
		Data:    data,
	}
}
