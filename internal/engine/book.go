package engine

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/efreitasn/marketsim/internal/domain"
)

// BookEntry is a single order resting on one side of the book.
type BookEntry struct {
	Price    float64
	Sequence uint64
	Order    *domain.Order
}

// PriceLevel is an aggregated price level in the order book.
type PriceLevel struct {
	Price         float64 `json:"price"`
	TotalQuantity int64   `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
}

// CancelSide selects which side(s) CancelLimitOrders operates on.
type CancelSide string

const (
	CancelBids CancelSide = "bid"
	CancelAsks CancelSide = "ask"
	CancelBoth CancelSide = "both"
)

// bidLess defines ordering for the bid side: price descending, then sequence
// ascending. Min() returns the best bid (highest price, earliest submission).
func bidLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Sequence < b.Sequence
}

// askLess defines ordering for the ask side: price ascending, then sequence
// ascending. Min() returns the best ask (lowest price, earliest submission).
func askLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Sequence < b.Sequence
}

// OrderBook owns the bid queue, the ask queue, and the FIFO market-order
// queue, plus the matching pass that crosses them. It is stateless with
// respect to participants' finances; the ledger applies the transactions it
// produces.
//
// The simulation mutates the book from a single goroutine; the lock only
// exists so the observer API can take consistent read snapshots mid-run.
type OrderBook struct {
	mu      sync.RWMutex
	bids    *btree.BTreeG[BookEntry]
	asks    *btree.BTreeG[BookEntry]
	market  []*domain.Order // strict FIFO, fully drained on every execute pass
	nextSeq uint64
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	const degree = 32
	return &OrderBook{
		bids: btree.NewG[BookEntry](degree, bidLess),
		asks: btree.NewG[BookEntry](degree, askLess),
	}
}

// PlaceOrder validates and enqueues one intention to trade. Market actions
// join the FIFO market queue (price is informational and ignored for
// matching); limit actions rest on the appropriate side in price-time order;
// abstain is a no-op. A non-positive quantity or an unrecognized action tag
// is rejected and leaves the book untouched.
func (ob *OrderBook) PlaceOrder(participantID string, action domain.Action, price float64, quantity int64) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}
	if action == domain.ActionAbstain {
		return nil
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: participant %s submitted quantity %d", domain.ErrInvalidQuantity, participantID, quantity)
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.nextSeq++
	order := &domain.Order{
		ParticipantID: participantID,
		Action:        action,
		Price:         price,
		Quantity:      quantity,
		Sequence:      ob.nextSeq,
	}

	switch {
	case action.IsMarket():
		ob.market = append(ob.market, order)
	case action == domain.ActionLimitBuy:
		ob.bids.ReplaceOrInsert(BookEntry{Price: price, Sequence: order.Sequence, Order: order})
	default: // limit sell
		ob.asks.ReplaceOrInsert(BookEntry{Price: price, Sequence: order.Sequence, Order: order})
	}
	return nil
}

// CancelLimitOrders removes all resting limit orders owned by participantID
// on the requested side(s). Market-queue entries never rest and cannot be
// cancelled.
func (ob *OrderBook) CancelLimitOrders(participantID string, side CancelSide) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	switch side {
	case CancelBids:
		removeOwnedBy(ob.bids, participantID)
	case CancelAsks:
		removeOwnedBy(ob.asks, participantID)
	case CancelBoth:
		removeOwnedBy(ob.bids, participantID)
		removeOwnedBy(ob.asks, participantID)
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidSide, side)
	}
	return nil
}

// removeOwnedBy deletes every entry owned by participantID from tree.
// Collect first, delete after: btree iteration does not allow mutation.
func removeOwnedBy(tree *btree.BTreeG[BookEntry], participantID string) {
	var owned []BookEntry
	tree.Ascend(func(e BookEntry) bool {
		if e.Order.ParticipantID == participantID {
			owned = append(owned, e)
		}
		return true
	})
	for _, e := range owned {
		tree.Delete(e)
	}
}

// BestBid returns the highest-priority bid (highest price, earliest
// submission), or false if the bid side is empty.
func (ob *OrderBook) BestBid() (BookEntry, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.Min()
}

// BestAsk returns the highest-priority ask (lowest price, earliest
// submission), or false if the ask side is empty.
func (ob *OrderBook) BestAsk() (BookEntry, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.asks.Min()
}

// CentralPrice returns the midpoint of the best bid and best ask. It is
// undefined unless both sides are non-empty; callers must supply a fallback
// (typically the last close) when it is not.
func (ob *OrderBook) CentralPrice() (float64, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	bid, okBid := ob.bids.Min()
	ask, okAsk := ob.asks.Min()
	if !okBid || !okAsk {
		return 0, false
	}
	return 0.5 * (bid.Price + ask.Price), true
}

// BidCount returns the number of resting bid orders.
func (ob *OrderBook) BidCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.Len()
}

// AskCount returns the number of resting ask orders.
func (ob *OrderBook) AskCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.asks.Len()
}

// MarketCount returns the number of queued market orders.
func (ob *OrderBook) MarketCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return len(ob.market)
}

// OneSided reports whether either resting side is empty. The scheduler uses
// this to trigger liquidity-provider replenishment before a trader acts.
func (ob *OrderBook) OneSided() bool {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.Len() == 0 || ob.asks.Len() == 0
}

// TopBids returns up to n aggregated bid price levels, best first.
func (ob *OrderBook) TopBids(n int) []PriceLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return topLevels(ob.bids, n)
}

// TopAsks returns up to n aggregated ask price levels, best first.
func (ob *OrderBook) TopAsks(n int) []PriceLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return topLevels(ob.asks, n)
}

// topLevels iterates a side in priority order and aggregates entries into at
// most n price levels.
func topLevels(tree *btree.BTreeG[BookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(e BookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == e.Price {
			levels[len(levels)-1].TotalQuantity += e.Order.Quantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         e.Price,
			TotalQuantity: e.Order.Quantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}
