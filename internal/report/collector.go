// Package report collects the per-tick series a run produces: closing price,
// trade counters, book edges, shock flags, and per-archetype aggregates.
// The series is read-only derived output consumed by external tooling; it is
// not part of the matching engine's contract.
package report

import (
	"sync"

	"github.com/google/uuid"

	"github.com/efreitasn/marketsim/internal/ledger"
)

// TickRecord is one row of the per-tick series.
type TickRecord struct {
	Tick         int     `json:"tick"`
	Price        float64 `json:"price"`
	BestBid      float64 `json:"best_bid"` // 0 when the side is empty
	BestAsk      float64 `json:"best_ask"` // 0 when the side is empty
	Transactions int64   `json:"transactions"`
	Volume       int64   `json:"volume"`
	Shock        bool    `json:"shock"`
	ShockValue   float64 `json:"shock_value"`
	Optimists    int     `json:"optimists"`

	MarketMakers    ledger.GroupTotals `json:"market_makers"`
	Fundamentalists ledger.GroupTotals `json:"fundamentalists"`
	Chartists       ledger.GroupTotals `json:"chartists"`
}

// Collector accumulates the series for one run. Appends happen from the
// synchronous tick loop; the lock exists so the observer API can read a
// consistent copy mid-run.
type Collector struct {
	mu      sync.RWMutex
	runID   string
	records []TickRecord
}

// NewCollector creates a collector with a fresh run ID.
func NewCollector() *Collector {
	return &Collector{runID: uuid.New().String()}
}

// RunID returns the run's unique identifier.
func (c *Collector) RunID() string { return c.runID }

// Append adds one tick's record to the series.
func (c *Collector) Append(rec TickRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

// Records returns a copy of the full series in tick order.
func (c *Collector) Records() []TickRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]TickRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Latest returns the most recent record, or false if nothing has been
// collected yet.
func (c *Collector) Latest() (TickRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) == 0 {
		return TickRecord{}, false
	}
	return c.records[len(c.records)-1], true
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
