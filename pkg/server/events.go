package server

import (
	"encoding/json"
	"sync"

	"github.com/decred/slog"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
)

const (
	// defaultEventQueueSize bounds the dispatcher queue. Tables publish
	// events while holding their own lock, so enqueueing must never block.
	defaultEventQueueSize = 1024

	// defaultEventWorkers is the number of goroutines draining the queue.
	defaultEventWorkers = 4
)

// EventDispatcher decouples table event publication from notification
// delivery. Tables enqueue events from inside their lock; worker goroutines
// build the notifications and fan them out, so no subscriber work ever runs
// under a table lock.
type EventDispatcher struct {
	log     slog.Logger
	queue   chan blackjack.Event
	handler func(blackjack.Event)

	wg       sync.WaitGroup
	stopMu   sync.RWMutex
	stopOnce sync.Once
	stopped  bool
}

// NewEventDispatcher creates a dispatcher with workers already running.
func NewEventDispatcher(log slog.Logger, handler func(blackjack.Event)) *EventDispatcher {
	d := &EventDispatcher{
		log:     log,
		queue:   make(chan blackjack.Event, defaultEventQueueSize),
		handler: handler,
	}
	for i := 0; i < defaultEventWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues an event without blocking. Events are dropped with a log
// line when the queue is full; callers hold table locks and must not wait.
func (d *EventDispatcher) Publish(ev blackjack.Event) {
	d.stopMu.RLock()
	defer d.stopMu.RUnlock()
	if d.stopped {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warnf("event queue full, dropping %s for table %s", ev.Type, ev.TableID)
	}
}

// Stop shuts the workers down after draining already-queued events.
func (d *EventDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.stopMu.Lock()
		d.stopped = true
		d.stopMu.Unlock()
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *EventDispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.handler(ev)
	}
}

// handleEvent routes one dequeued table event. Runs on a dispatcher worker,
// never under a table lock.
func (s *Server) handleEvent(ev blackjack.Event) {
	if ev.Type == blackjack.EventLobbyUpdate {
		s.broadcastLobbyUpdate()
		return
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		s.log.Errorf("marshal %s payload for table %s: %v", ev.Type, ev.TableID, err)
		return
	}
	s.broadcastTableEvent(ev.TableID, &Notification{
		Type:    ev.Type,
		TableID: ev.TableID,
		Data:    data,
	})
}
