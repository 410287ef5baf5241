package blackjack

import (
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
)

// Defaults for table timing and sizing. Individual tables can override them
// through TableConfig.
const (
	DefaultBetWindow       = 10 * time.Second
	DefaultTurnTimeout     = 20 * time.Second
	DefaultDealerDrawDelay = 700 * time.Millisecond
	DefaultPayoutDelay     = 10 * time.Second
	DefaultGracePeriod     = 120 * time.Second

	MinSeats = 2
	MaxSeats = 7
)

// TableConfig holds configuration for a new blackjack table.
type TableConfig struct {
	ID         string
	Name       string
	Creator    string
	Private    bool
	AccessCode string
	MaxSeats   int
	MinBet     int64
	MaxBet     int64 // 0 = no maximum

	BetWindow       time.Duration
	TurnTimeout     time.Duration
	DealerDrawDelay time.Duration
	PayoutDelay     time.Duration
	GracePeriod     time.Duration

	Decks int
	Seed  int64 // deterministic shoe when nonzero

	Log slog.Logger
}

// Table is one blackjack table's full mutable state. Every mutation path,
// player command or fired timer, must hold the table mutex; the mutex is the
// sole concurrency-control mechanism for this state.
type Table struct {
	log slog.Logger
	cfg TableConfig

	mu sync.Mutex

	seats  []*Seat
	dealer *Hand
	shoe   *Shoe

	phase       Phase
	currentSeat int // -1 = no seat acting
	deadline    time.Time

	pendingClose bool
	closed       bool

	createdAt  time.Time
	lastAction time.Time

	wallet Wallet
	sched  Scheduler

	publish        func(Event)
	onSeatReleased func(email string)
	onAutoClose    func()
}

// NewTable creates a new blackjack table. Seat count is clamped to the
// supported range and missing timing knobs fall back to the defaults.
func NewTable(cfg TableConfig, wallet Wallet, sched Scheduler) *Table {
	if cfg.MaxSeats < MinSeats {
		cfg.MaxSeats = MinSeats
	}
	if cfg.MaxSeats > MaxSeats {
		cfg.MaxSeats = MaxSeats
	}
	if cfg.BetWindow == 0 {
		cfg.BetWindow = DefaultBetWindow
	}
	if cfg.TurnTimeout == 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.DealerDrawDelay == 0 {
		cfg.DealerDrawDelay = DefaultDealerDrawDelay
	}
	if cfg.PayoutDelay == 0 {
		cfg.PayoutDelay = DefaultPayoutDelay
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.Decks == 0 {
		cfg.Decks = DefaultShoeDecks
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	t := &Table{
		log:         cfg.Log,
		cfg:         cfg,
		dealer:      NewHand(),
		shoe:        NewShoe(cfg.Decks, rng),
		phase:       PhaseWaitingForPlayers,
		currentSeat: -1,
		createdAt:   time.Now(),
		lastAction:  time.Now(),
		wallet:      wallet,
		sched:       sched,
	}

	t.seats = make([]*Seat, cfg.MaxSeats)
	for i := range t.seats {
		t.seats[i] = newSeat()
	}

	return t
}

// SetEventPublisher sets the callback the table emits notifications through.
// The callback runs with the table lock held and must not call back into the
// table; the server side enqueues the event and returns immediately.
func (t *Table) SetEventPublisher(publish func(Event)) {
	t.mu.Lock()
	t.publish = publish
	t.mu.Unlock()
}

// SetOnSeatReleased sets the callback invoked whenever a seat is released to
// EMPTY, so the owning server can drop its identity→table bookkeeping.
func (t *Table) SetOnSeatReleased(fn func(email string)) {
	t.mu.Lock()
	t.onSeatReleased = fn
	t.mu.Unlock()
}

// SetOnAutoClose sets the callback invoked when a pending close executes after
// the in-progress hand finishes. It runs without the table lock held.
func (t *Table) SetOnAutoClose(fn func()) {
	t.mu.Lock()
	t.onAutoClose = fn
	t.mu.Unlock()
}

// ID returns the table identity.
func (t *Table) ID() string {
	return t.cfg.ID
}

// Creator returns the creating identity.
func (t *Table) Creator() string {
	return t.cfg.Creator
}

// IsPrivate reports the table's visibility.
func (t *Table) IsPrivate() bool {
	return t.cfg.Private
}

// AccessCode returns the private-table access code ("" for public tables).
func (t *Table) AccessCode() string {
	return t.cfg.AccessCode
}

// Phase returns the table's current phase.
func (t *Table) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Occupants returns the identities currently holding seats.
func (t *Table) Occupants() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	emails := make([]string, 0, len(t.seats))
	for _, seat := range t.seats {
		if seat.Occupied() {
			emails = append(emails, seat.Email)
		}
	}
	return emails
}

// emit publishes an event if a publisher is attached. Callers hold the lock.
func (t *Table) emit(eventType EventType, payload interface{}) {
	if t.publish != nil {
		t.publish(Event{Type: eventType, TableID: t.cfg.ID, Payload: payload})
	}
}

// emitState broadcasts a full table snapshot plus a lobby refresh hint.
// Callers hold the lock.
func (t *Table) emitState() {
	t.emit(EventTableState, t.snapshotLocked())
	t.emit(EventLobbyUpdate, nil)
}

// Snapshot returns the full broadcast view of the table.
func (t *Table) Snapshot() TableState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() TableState {
	seats := make([]SeatState, len(t.seats))
	for i, seat := range t.seats {
		seats[i] = SeatState{
			Index:  i,
			Email:  seat.Email,
			Name:   seat.Name,
			Status: seat.Status,
			Hand:   handState(seat.Hand),
		}
	}

	var deadline int64
	if !t.deadline.IsZero() {
		deadline = t.deadline.UnixMilli()
	}

	return TableState{
		ID:          t.cfg.ID,
		Name:        t.cfg.Name,
		Private:     t.cfg.Private,
		Creator:     t.cfg.Creator,
		Phase:       t.phase,
		Deadline:    deadline,
		CurrentSeat: t.currentSeat,
		MaxSeats:    t.cfg.MaxSeats,
		MinBet:      t.cfg.MinBet,
		MaxBet:      t.cfg.MaxBet,
		Seats:       seats,
		Dealer:      t.dealerView(),
	}
}

// dealerView hides the dealer's hole card while seats are still acting.
// Callers hold the lock.
func (t *Table) dealerView() HandState {
	if t.phase == PhasePlaying && len(t.dealer.Cards) > 1 {
		upcard := t.dealer.Cards[0]
		return HandState{Cards: []Card{upcard}, Total: upcard.Points()}
	}
	return handState(t.dealer)
}

// seatOf returns the index of the seat held by email, or -1. Callers hold the
// lock.
func (t *Table) seatOf(email string) int {
	for i, seat := range t.seats {
		if seat.Occupied() && seat.Email == email {
			return i
		}
	}
	return -1
}

// Enter seats an identity at the table, or restores a previously held seat
// after a disconnect. The very first occupant starts the betting loop.
func (t *Table) Enter(email, name string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.pendingClose {
		return -1, ErrTableClosing
	}

	// Reconnection: already holds a seat here.
	if idx := t.seatOf(email); idx >= 0 {
		t.seats[idx].Status = SeatSeated
		t.sched.Cancel(t.cfg.ID, CleanupTimerKind(email))
		t.log.Debugf("table %s: %s reconnected to seat %d", t.cfg.ID, email, idx)
		t.emitState()
		return idx, nil
	}

	idx := -1
	for i, seat := range t.seats {
		if !seat.Occupied() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, ErrTableFull
	}

	seat := t.seats[idx]
	seat.Email = email
	seat.Name = name
	seat.Status = SeatSeated

	t.log.Infof("table %s: %s took seat %d", t.cfg.ID, email, idx)
	t.lastAction = time.Now()

	if t.phase == PhaseWaitingForPlayers {
		t.startBetting()
	} else {
		t.emitState()
	}

	return idx, nil
}

// Leave releases the caller's seat. During an active hand the seat is only
// marked DISCONNECTED and a grace-period cleanup is scheduled so the player
// can reconnect.
func (t *Table) Leave(email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.seatOf(email)
	if idx < 0 {
		return ErrNoSeat
	}

	if t.phase == PhasePlaying || t.phase == PhaseDealerTurn {
		t.seats[idx].Status = SeatDisconnected
		t.scheduleCleanup(email)
		t.log.Infof("table %s: %s left mid-hand, seat %d held for %v", t.cfg.ID, email, idx, t.cfg.GracePeriod)
	} else {
		t.releaseSeat(idx)
		t.log.Infof("table %s: %s left, seat %d released", t.cfg.ID, email, idx)
	}

	t.emitState()
	return nil
}

// MarkDisconnected flags the identity's seat as DISCONNECTED and arms the
// grace-period cleanup. Driven by transport-layer connectivity events.
func (t *Table) MarkDisconnected(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.seatOf(email)
	if idx < 0 || t.seats[idx].Status != SeatSeated {
		return
	}

	t.seats[idx].Status = SeatDisconnected
	t.scheduleCleanup(email)
	t.log.Debugf("table %s: %s disconnected, seat %d in grace period", t.cfg.ID, email, idx)
	t.emitState()
}

// MarkReconnected restores a DISCONNECTED seat to SEATED and disarms the
// pending cleanup.
func (t *Table) MarkReconnected(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.seatOf(email)
	if idx < 0 || t.seats[idx].Status != SeatDisconnected {
		return
	}

	t.seats[idx].Status = SeatSeated
	t.sched.Cancel(t.cfg.ID, CleanupTimerKind(email))
	t.log.Debugf("table %s: %s reconnected to seat %d", t.cfg.ID, email, idx)
	t.emitState()
}

// scheduleCleanup arms (or re-arms) the per-identity disconnect cleanup.
// Callers hold the lock.
func (t *Table) scheduleCleanup(email string) {
	t.sched.Schedule(t.cfg.ID, CleanupTimerKind(email), t.cfg.GracePeriod, func() {
		t.releaseSeatIfIdle(email)
	})
}

// releaseSeatIfIdle fires after the grace period. It releases the seat only if
// the same identity still holds it, it is still DISCONNECTED, and no hand is
// in progress; any reconnection or phase change before expiry makes it a no-op.
func (t *Table) releaseSeatIfIdle(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	idx := t.seatOf(email)
	if idx < 0 || t.seats[idx].Status != SeatDisconnected {
		return
	}
	if t.phase != PhaseBetting && t.phase != PhasePayout {
		return
	}

	t.releaseSeat(idx)
	t.log.Infof("table %s: grace period expired, seat %d (%s) released", t.cfg.ID, idx, email)
	t.emitState()
}

// releaseSeat empties a seat, feeds its cards back to the shoe, and notifies
// the owner-side bookkeeping. Callers hold the lock.
func (t *Table) releaseSeat(idx int) {
	email := t.seats[idx].Email
	played := t.seats[idx].release()
	t.shoe.Discard(played)
	t.sched.Cancel(t.cfg.ID, CleanupTimerKind(email))
	t.lastAction = time.Now()
	if t.onSeatReleased != nil {
		t.onSeatReleased(email)
	}
}

// PlaceBet sets the caller's bet for the upcoming hand. The last bet placed
// before the betting window locks wins; no funds move until lock-in. seatIdx
// may be negative to resolve the caller's seat by identity.
func (t *Table) PlaceBet(email string, seatIdx int, amount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTableClosing
	}
	if t.phase != PhaseBetting {
		return ErrWrongPhase
	}

	if seatIdx < 0 {
		seatIdx = t.seatOf(email)
		if seatIdx < 0 {
			return ErrNoSeat
		}
	}
	if seatIdx >= len(t.seats) {
		return ErrInvalidSeat
	}

	seat := t.seats[seatIdx]
	if !seat.Occupied() {
		return ErrSeatEmpty
	}
	if seat.Email != email {
		return ErrNotYourSeat
	}

	if amount <= 0 {
		return ErrInvalidAmount
	}
	if t.cfg.MinBet > 0 && amount < t.cfg.MinBet {
		return ErrBetBelowMinimum
	}
	if t.cfg.MaxBet > 0 && amount > t.cfg.MaxBet {
		return ErrBetAboveMaximum
	}

	seat.Hand.Bet = amount
	t.lastAction = time.Now()
	t.emit(EventBetUpdate, BetUpdate{Seat: seatIdx, Email: email, Amount: amount})
	return nil
}

// Apply executes a turn action for the seat currently acting. DOUBLE debits
// the wallet first and leaves the hand untouched when the debit fails.
func (t *Table) Apply(email string, seatIdx int, kind ActionKind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTableClosing
	}
	if t.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if seatIdx < 0 || seatIdx >= len(t.seats) {
		return ErrInvalidSeat
	}
	if seatIdx != t.currentSeat {
		return ErrNotYourTurn
	}

	seat := t.seats[seatIdx]
	if seat.Email != email {
		return ErrNotYourSeat
	}
	hand := seat.Hand

	switch kind {
	case ActionHit:
		hand.Add(t.shoe.Draw())
		t.emit(EventActionResult, ActionResult{Seat: seatIdx, Action: kind.String(), Hand: handState(hand)})
		if hand.Busted {
			t.advanceFrom(seatIdx)
		} else {
			t.scheduleTurn(seatIdx)
		}

	case ActionStand:
		hand.Standing = true
		t.emit(EventActionResult, ActionResult{Seat: seatIdx, Action: kind.String(), Hand: handState(hand)})
		t.advanceFrom(seatIdx)

	case ActionDouble:
		if _, err := t.wallet.Debit(email, hand.Bet, "blackjack double down"); err != nil {
			return err
		}
		hand.Bet *= 2
		hand.Add(t.shoe.Draw())
		hand.Standing = true
		t.emit(EventActionResult, ActionResult{Seat: seatIdx, Action: kind.String(), Hand: handState(hand)})
		t.advanceFrom(seatIdx)

	default:
		return ErrUnknownAction
	}

	t.lastAction = time.Now()
	return nil
}

// RequestClose asks the table to shut down. When no hand is in progress the
// table closes on the spot and the caller finishes the teardown; otherwise the
// pending-close flag defers closure to the end of the current hand.
func (t *Table) RequestClose() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return true
	}
	if t.phase == PhasePlaying || t.phase == PhaseDealerTurn {
		t.pendingClose = true
		t.log.Infof("table %s: close deferred until hand completes", t.cfg.ID)
		return false
	}

	t.closeLocked()
	return true
}

// closeLocked marks the table dead and drops all its timers. Callers hold the
// lock.
func (t *Table) closeLocked() {
	t.closed = true
	t.sched.CancelTable(t.cfg.ID)
	t.log.Infof("table %s: closed", t.cfg.ID)
}
