package blackjack

import (
	"errors"
	"time"
)

// Round engine. Every function here either runs with the table lock held
// (lowercase helpers, callers in table.go) or is a timer callback that takes
// the lock and re-validates its precondition before touching anything.

// startBetting opens (or re-opens) the betting window. Callers hold the lock.
func (t *Table) startBetting() {
	t.phase = PhaseBetting
	t.currentSeat = -1
	t.deadline = time.Now().Add(t.cfg.BetWindow)
	t.lastAction = time.Now()

	t.emitState()
	t.sched.Schedule(t.cfg.ID, TimerBetting, t.cfg.BetWindow, t.lockBets)
}

// lockBets fires when the betting window closes. Every positive bet is
// debited; a seat whose debit fails simply sits the hand out with its bet
// zeroed. When nobody ends up in the hand the window re-opens immediately.
func (t *Table) lockBets() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.phase != PhaseBetting {
		return
	}

	betting := make([]int, 0, len(t.seats))
	for i, seat := range t.seats {
		if !seat.Occupied() || seat.Hand.Bet <= 0 {
			continue
		}
		if _, err := t.wallet.Debit(seat.Email, seat.Hand.Bet, "blackjack bet"); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				t.log.Infof("table %s: seat %d (%s) cannot cover bet %d, sitting out", t.cfg.ID, i, seat.Email, seat.Hand.Bet)
			} else {
				t.log.Errorf("table %s: debit failed for %s: %v", t.cfg.ID, seat.Email, err)
			}
			seat.Hand.Bet = 0
			continue
		}
		betting = append(betting, i)
	}

	if len(betting) == 0 {
		t.startBetting()
		return
	}

	t.deal(betting)
}

// deal clears dealer and seat hands, deals two cards alternately to each
// betting seat and then the dealer (twice), and hands the turn to the first
// eligible seat. Callers hold the lock.
func (t *Table) deal(betting []int) {
	t.shoe.Discard(t.dealer.Reset())
	for _, seat := range t.seats {
		bet := seat.Hand.Bet
		t.shoe.Discard(seat.Hand.Reset())
		seat.Hand.Bet = bet
	}

	for round := 0; round < 2; round++ {
		for _, i := range betting {
			t.seats[i].Hand.Add(t.shoe.Draw())
		}
		t.dealer.Add(t.shoe.Draw())
	}

	t.phase = PhasePlaying
	t.lastAction = time.Now()
	t.log.Infof("table %s: hand dealt to %d seats", t.cfg.ID, len(betting))

	seats := make([]SeatState, len(t.seats))
	for i, seat := range t.seats {
		seats[i] = SeatState{Index: i, Email: seat.Email, Name: seat.Name, Status: seat.Status, Hand: handState(seat.Hand)}
	}

	first := t.nextEligible(-1)
	if first < 0 {
		t.emit(EventHandStart, HandStart{Upcard: t.dealer.Cards[0], Seats: seats})
		t.emitState()
		t.enterDealerTurn()
		return
	}

	// Arm the first turn before announcing the hand so the announced
	// deadline is the one the turn timer actually runs on.
	t.armTurn(first)
	t.emit(EventHandStart, HandStart{
		Upcard:   t.dealer.Cards[0],
		Deadline: t.deadline.UnixMilli(),
		Seats:    seats,
	})
	t.emitState()
	t.emit(EventPlayerTurn, PlayerTurn{Seat: first, Deadline: t.deadline.UnixMilli()})
}

// advanceFrom hands the turn to the next eligible seat after start, scanning
// in ascending index order and wrapping around the table at most once. A seat
// is eligible while it holds a positive bet and is neither busted nor
// standing. With no eligible seat left the dealer plays. Callers hold the
// lock.
func (t *Table) advanceFrom(start int) {
	if i := t.nextEligible(start); i >= 0 {
		t.scheduleTurn(i)
		return
	}
	t.enterDealerTurn()
}

// nextEligible returns the next eligible seat after start, or -1 when none
// remains. Callers hold the lock.
func (t *Table) nextEligible(start int) int {
	n := len(t.seats)
	for step := 1; step <= n; step++ {
		i := (start + step + n) % n
		if t.seats[i].Occupied() && t.seats[i].Hand.Active() {
			return i
		}
	}
	return -1
}

// scheduleTurn makes seat i current, arms its turn timeout and announces the
// turn. Callers hold the lock.
func (t *Table) scheduleTurn(i int) {
	t.armTurn(i)
	t.emit(EventPlayerTurn, PlayerTurn{Seat: i, Deadline: t.deadline.UnixMilli()})
}

// armTurn makes seat i current and arms (or re-arms) its turn timeout without
// announcing it. Callers hold the lock.
func (t *Table) armTurn(i int) {
	t.currentSeat = i
	t.deadline = time.Now().Add(t.cfg.TurnTimeout)
	t.sched.Schedule(t.cfg.ID, TimerTurn, t.cfg.TurnTimeout, func() {
		t.turnTimeout(i)
	})
}

// turnTimeout force-stands a seat that ran out its turn clock. The seat must
// still be current and still active when the timer fires; stale firings no-op.
func (t *Table) turnTimeout(seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.phase != PhasePlaying || t.currentSeat != seat {
		return
	}
	hand := t.seats[seat].Hand
	if !hand.Active() {
		return
	}

	hand.Standing = true
	t.log.Debugf("table %s: seat %d timed out, auto-stand", t.cfg.ID, seat)
	t.emit(EventActionResult, ActionResult{Seat: seat, Action: ActionStand.String(), Auto: true, Hand: handState(hand)})
	t.advanceFrom(seat)
}

// enterDealerTurn starts the dealer's draw loop. Callers hold the lock.
func (t *Table) enterDealerTurn() {
	t.phase = PhaseDealerTurn
	t.currentSeat = -1
	t.deadline = time.Time{}
	t.sched.Cancel(t.cfg.ID, TimerTurn)

	t.emit(EventDealerTurnStart, handState(t.dealer))
	t.emitState()

	t.sched.Schedule(t.cfg.ID, TimerDealerDraw, t.cfg.DealerDrawDelay, t.dealerStep)
}

// dealerStep draws one dealer card per tick while the dealer's best total is
// below 17, broadcasting each draw, then settles the hand. The dealer stands
// on any 17, soft or hard.
func (t *Table) dealerStep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.phase != PhaseDealerTurn {
		return
	}

	if t.dealer.BestTotal() < 17 {
		card := t.shoe.Draw()
		t.dealer.Add(card)
		t.emit(EventDealerTurnUpdate, DealerUpdate{Card: card, Hand: handState(t.dealer)})
		t.sched.Schedule(t.cfg.ID, TimerDealerDraw, t.cfg.DealerDrawDelay, t.dealerStep)
		return
	}

	t.settle()
}

// settle compares every betting seat against the dealer, applies credits, and
// opens the payout display window. One seat's failed credit never blocks the
// rest of the table from settling. Callers hold the lock.
func (t *Table) settle() {
	results := make([]SeatResult, 0, len(t.seats))
	for i, seat := range t.seats {
		if !seat.Occupied() || seat.Hand.Bet <= 0 {
			continue
		}

		credit, outcome := settleHand(seat.Hand, t.dealer)
		if credit > 0 {
			if _, err := t.wallet.Credit(seat.Email, credit, "blackjack payout"); err != nil {
				t.log.Errorf("table %s: credit of %d to %s failed: %v", t.cfg.ID, credit, seat.Email, err)
			}
		}

		results = append(results, SeatResult{
			Seat:    i,
			Email:   seat.Email,
			Bet:     seat.Hand.Bet,
			Credit:  credit,
			Total:   seat.Hand.BestTotal(),
			Outcome: outcome,
		})
	}

	t.phase = PhasePayout
	t.deadline = time.Now().Add(t.cfg.PayoutDelay)
	t.lastAction = time.Now()
	t.log.Infof("table %s: hand settled, %d seats paid out", t.cfg.ID, len(results))

	t.emit(EventDealerTurnEnd, handState(t.dealer))
	t.emit(EventPayouts, Payouts{Results: results})
	t.emitState()

	t.sched.Schedule(t.cfg.ID, TimerNextHand, t.cfg.PayoutDelay, t.nextHand)
}

// nextHand fires when the payout display window ends: hands are reset, the
// dealer is cleared, and betting restarts. A deferred close executes here
// instead of starting another hand.
func (t *Table) nextHand() {
	t.mu.Lock()

	if t.closed || t.phase != PhasePayout {
		t.mu.Unlock()
		return
	}

	if t.pendingClose {
		t.closeLocked()
		onAutoClose := t.onAutoClose
		t.mu.Unlock()
		if onAutoClose != nil {
			onAutoClose()
		}
		return
	}

	t.shoe.Discard(t.dealer.Reset())
	for _, seat := range t.seats {
		t.shoe.Discard(seat.Hand.Reset())
	}

	t.startBetting()
	t.mu.Unlock()
}
