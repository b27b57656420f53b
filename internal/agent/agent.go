// Package agent implements the trading archetypes that populate a run: a
// market maker that keeps the book two-sided, fundamentalists that trade
// toward a private value estimate, and chartists that follow crowd opinion
// and price trend. Agents read market state through a View and submit orders
// back through the book; they have no write access to ledger internals.
package agent

import (
	"github.com/efreitasn/marketsim/internal/domain"
	"github.com/efreitasn/marketsim/internal/engine"
	"github.com/efreitasn/marketsim/internal/rng"
)

// View is the observable market state handed to an agent for one decision
// step: book queries, the tick's shock flag and magnitude, the closing-price
// history, and a snapshot of the agent's own account taken just before it
// acts.
type View struct {
	Book       *engine.OrderBook
	Account    domain.Account
	Prices     []float64 // closing price history, oldest first; never empty
	TickSize   float64
	Tick       int
	Shock      bool
	ShockValue float64
	RNG        *rng.RNG
}

// LastClose returns the most recent closing price.
func (v *View) LastClose() float64 {
	return v.Prices[len(v.Prices)-1]
}

// ReferencePrice returns the book's central price, falling back to the last
// close when the book is one-sided.
func (v *View) ReferencePrice() float64 {
	if mid, ok := v.Book.CentralPrice(); ok {
		return mid
	}
	return v.LastClose()
}

// Trader submits zero or more orders when its turn in the tick comes.
type Trader interface {
	ID() string
	Archetype() string
	Act(v *View) error
}

// LiquidityProvider is a trader that additionally repairs a one-sided book
// on demand and re-quotes at the end of every tick.
type LiquidityProvider interface {
	Trader
	Replenish(v *View) error
}
