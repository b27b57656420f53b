package agent

import (
	"github.com/efreitasn/marketsim/internal/domain"
	"github.com/efreitasn/marketsim/internal/engine"
)

// ArchetypeMarketMaker tags the liquidity-provider archetype in reports.
const ArchetypeMarketMaker = "market_maker"

// MarketMaker keeps the book two-sided by quoting a fixed relative spread
// around the reference price. It quotes a fraction of its inventory per
// side, floored at a minimum size, so the book never starves.
type MarketMaker struct {
	id         string
	spread     float64
	quoteRatio float64
	minQuote   int64
}

// NewMarketMaker creates a market maker quoting the given relative spread.
func NewMarketMaker(id string, spread, quoteRatio float64, minQuote int64) *MarketMaker {
	return &MarketMaker{
		id:         id,
		spread:     spread,
		quoteRatio: quoteRatio,
		minQuote:   minQuote,
	}
}

func (m *MarketMaker) ID() string        { return m.id }
func (m *MarketMaker) Archetype() string { return ArchetypeMarketMaker }

// Replenish fills whichever book side is empty with a quote around the
// reference price. The scheduler calls this before a trader acts whenever
// the book is one-sided.
func (m *MarketMaker) Replenish(v *View) error {
	ref := v.ReferencePrice()
	qty := m.quoteQuantity(v)

	if v.Book.BidCount() == 0 {
		price := domain.RoundToTick(ref*(1-m.spread/2), v.TickSize)
		if err := v.Book.PlaceOrder(m.id, domain.ActionLimitBuy, price, qty); err != nil {
			return err
		}
	}
	if v.Book.AskCount() == 0 {
		price := domain.RoundToTick(ref*(1+m.spread/2), v.TickSize)
		if err := v.Book.PlaceOrder(m.id, domain.ActionLimitSell, price, qty); err != nil {
			return err
		}
	}
	return nil
}

// Act runs at the end of every tick: outstanding quotes are cancelled and
// both sides are re-quoted around the current reference price, sized off
// current inventory.
func (m *MarketMaker) Act(v *View) error {
	if err := v.Book.CancelLimitOrders(m.id, engine.CancelBoth); err != nil {
		return err
	}
	ref := v.ReferencePrice()
	qty := m.quoteQuantity(v)

	bid := domain.RoundToTick(ref*(1-m.spread/2), v.TickSize)
	ask := domain.RoundToTick(ref*(1+m.spread/2), v.TickSize)
	if err := v.Book.PlaceOrder(m.id, domain.ActionLimitBuy, bid, qty); err != nil {
		return err
	}
	return v.Book.PlaceOrder(m.id, domain.ActionLimitSell, ask, qty)
}

// quoteQuantity sizes a quote as a fraction of current inventory, floored at
// the configured minimum.
func (m *MarketMaker) quoteQuantity(v *View) int64 {
	qty := int64(float64(v.Account.Position) * m.quoteRatio)
	if qty < m.minQuote {
		qty = m.minQuote
	}
	return qty
}
