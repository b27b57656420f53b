// Package ledger owns every participant account and is the only component
// that mutates them. Transactions are applied one at a time, in the order
// the matching engine produced them, immediately after each execute pass
// (never batched), so a later match in the same tick sees up-to-date cash
// and position.
package ledger

import (
	"fmt"
	"sync"

	"github.com/efreitasn/marketsim/internal/domain"
)

// Ledger holds all accounts plus the per-tick transaction counters the
// scheduler resets at the start of every tick.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	tickTransactions int64
	tickVolume       int64
	tickNotional     float64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*domain.Account)}
}

// CreateAccount registers a participant with an initial cash balance and
// position. Accounts are created once per participant at simulation start.
func (l *Ledger) CreateAccount(participantID string, cash float64, position int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[participantID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrParticipantExists, participantID)
	}
	l.accounts[participantID] = &domain.Account{
		ParticipantID: participantID,
		Cash:          cash,
		Position:      position,
	}
	return nil
}

// Account returns a snapshot copy of a participant's account.
func (l *Ledger) Account(participantID string) (domain.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[participantID]
	if !ok {
		return domain.Account{}, false
	}
	return *acct, true
}

// Apply settles one transaction: the buyer is debited cash and credited
// position, the seller symmetrically. Short reserves and average open prices
// are recomputed for any leg whose position crossed zero or deepened a
// short. A transaction referencing an unknown participant is a programming
// contract violation and returns an error the scheduler treats as fatal.
func (l *Ledger) Apply(tx domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.Quantity <= 0 {
		return fmt.Errorf("%w: transaction quantity %d", domain.ErrInvalidQuantity, tx.Quantity)
	}
	buyer, ok := l.accounts[tx.BuyerID]
	if !ok {
		return fmt.Errorf("%w: buyer %s", domain.ErrUnknownParticipant, tx.BuyerID)
	}
	seller, ok := l.accounts[tx.SellerID]
	if !ok {
		return fmt.Errorf("%w: seller %s", domain.ErrUnknownParticipant, tx.SellerID)
	}

	notional := tx.Notional()
	applyLeg(buyer, tx.Quantity, -notional, tx.Price)
	applyLeg(seller, -tx.Quantity, notional, tx.Price)

	l.tickTransactions++
	l.tickVolume += tx.Quantity
	l.tickNotional += notional
	return nil
}

// applyLeg mutates one side of a fill: cash delta, position delta, then the
// derived reserve and average open price.
func applyLeg(acct *domain.Account, qtyDelta int64, cashDelta, price float64) {
	oldPos := acct.Position
	acct.Cash += cashDelta
	acct.Position += qtyDelta
	updateReserve(acct, oldPos, price)
	updateAvgOpenPrice(acct, oldPos, price)
}

// updateReserve recomputes the short reserve. The reserve grows by
// price × newly-shorted quantity when a position crosses zero or deepens a
// short, stays put on a partial cover, and resets once the position returns
// to non-negative.
func updateReserve(acct *domain.Account, oldPos int64, price float64) {
	if acct.Position >= 0 {
		acct.ReservedCash = 0
		return
	}
	prevShort := int64(0)
	if oldPos < 0 {
		prevShort = -oldPos
	}
	if short := -acct.Position; short > prevShort {
		acct.ReservedCash += price * float64(short-prevShort)
	}
}

// updateAvgOpenPrice maintains the volume-weighted open price: rebased when
// a position is opened or flips sign, blended when it extends, cleared when
// it returns to flat, and left alone when it merely shrinks.
func updateAvgOpenPrice(acct *domain.Account, oldPos int64, price float64) {
	newPos := acct.Position
	switch {
	case newPos == 0:
		acct.AvgOpenPrice = 0
	case oldPos == 0 || (oldPos < 0) != (newPos < 0):
		acct.AvgOpenPrice = price
	case abs64(newPos) > abs64(oldPos):
		added := abs64(newPos) - abs64(oldPos)
		acct.AvgOpenPrice = (acct.AvgOpenPrice*float64(abs64(oldPos)) + price*float64(added)) / float64(abs64(newPos))
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ResetTickCounters zeroes the per-tick transaction, volume, and notional
// counters. The scheduler calls this at the start of every tick.
func (l *Ledger) ResetTickCounters() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tickTransactions = 0
	l.tickVolume = 0
	l.tickNotional = 0
}

// TickStats returns the tick's transaction count, traded quantity, and
// volume-weighted average trade price. ok is false when nothing traded.
func (l *Ledger) TickStats() (transactions, volume int64, vwap float64, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.tickVolume == 0 {
		return l.tickTransactions, 0, 0, false
	}
	return l.tickTransactions, l.tickVolume, l.tickNotional / float64(l.tickVolume), true
}

// GroupTotals is an aggregate of wealth, cash, and position over a set of
// participants, marked at a given price.
type GroupTotals struct {
	Wealth   float64
	Cash     float64
	Position int64
}

// Aggregate sums wealth, cash, and position across the given participants at
// lastPrice. Unknown IDs are skipped.
func (l *Ledger) Aggregate(participantIDs []string, lastPrice float64) GroupTotals {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var totals GroupTotals
	for _, id := range participantIDs {
		acct, ok := l.accounts[id]
		if !ok {
			continue
		}
		totals.Wealth += acct.Wealth(lastPrice)
		totals.Cash += acct.Cash
		totals.Position += acct.Position
	}
	return totals
}
