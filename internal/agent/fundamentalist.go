package agent

import (
	"math"

	"github.com/efreitasn/marketsim/internal/config"
	"github.com/efreitasn/marketsim/internal/domain"
	"github.com/efreitasn/marketsim/internal/engine"
	"github.com/efreitasn/marketsim/internal/rng"
)

// ArchetypeFundamentalist tags the fundamentalist archetype in reports.
const ArchetypeFundamentalist = "fundamentalist"

// Fundamentalist trades toward a private fundamental price estimate. The
// estimate follows a random walk driven by the tick's shock value and is
// pulled back toward the market price when it drifts further than the
// agent's herding threshold. The gap between estimate and best quotes picks
// the intention: wide gap trades at market, narrow gap rests a limit order,
// anything inside the band abstains.
type Fundamentalist struct {
	id               string
	fundamentalPrice float64
	chiMarket        float64 // band half-width separating market from limit intent
	chiOpinion       float64 // herding threshold
	priceVariance    float64
	orderFrac        float64
	sellCashCushion  float64
}

// NewFundamentalist draws the agent's private parameters from the run's RNG.
func NewFundamentalist(id string, cfg config.FundamentalistConfig, initialPrice float64, g *rng.RNG) *Fundamentalist {
	return &Fundamentalist{
		id: id,
		fundamentalPrice: g.Uniform(
			initialPrice*(1-cfg.PriceSpread),
			initialPrice*(1+cfg.PriceSpread),
		),
		chiMarket:       g.Uniform(cfg.ChiMarket.Min, cfg.ChiMarket.Max),
		chiOpinion:      g.Uniform(cfg.ChiOpinion.Min, cfg.ChiOpinion.Max),
		priceVariance:   cfg.PriceVariance,
		orderFrac:       g.Uniform(cfg.OrderAmountFrac.Min, cfg.OrderAmountFrac.Max),
		sellCashCushion: cfg.SellCashCushion,
	}
}

func (f *Fundamentalist) ID() string        { return f.id }
func (f *Fundamentalist) Archetype() string { return ArchetypeFundamentalist }

// FundamentalPrice returns the agent's current private value estimate.
func (f *Fundamentalist) FundamentalPrice() float64 { return f.fundamentalPrice }

// Act performs one decision step: bankrupt agents withdraw their quotes and
// stop; otherwise the fundamental price is updated, the stale side of the
// agent's own resting orders is cancelled, and the current intention is
// submitted.
func (f *Fundamentalist) Act(v *View) error {
	if v.Account.Bankrupt(v.LastClose()) {
		return v.Book.CancelLimitOrders(f.id, engine.CancelBoth)
	}

	f.updateFundamentalPrice(v)

	current := v.ReferencePrice()
	cancelSide := engine.CancelBids
	if f.fundamentalPrice > current {
		cancelSide = engine.CancelAsks
	}
	if err := v.Book.CancelLimitOrders(f.id, cancelSide); err != nil {
		return err
	}

	intention := f.intention(v)
	switch intention {
	case domain.ActionMarketBuy, domain.ActionMarketSell:
		qty := f.orderQuantity(v, intention, current)
		if qty > 0 {
			return v.Book.PlaceOrder(f.id, intention, 0, qty)
		}
	case domain.ActionLimitBuy, domain.ActionLimitSell:
		price := domain.RoundToTick(f.fundamentalPrice, v.TickSize)
		qty := f.orderQuantity(v, intention, price)
		if qty > 0 {
			return v.Book.PlaceOrder(f.id, intention, price, qty)
		}
	}
	return nil
}

// updateFundamentalPrice walks the estimate on a shock tick and applies the
// herding adjustment: an estimate further than chiOpinion from the market
// price is clamped to the edge of that band.
func (f *Fundamentalist) updateFundamentalPrice(v *View) {
	if v.Shock {
		f.fundamentalPrice += v.RNG.Normal(v.ShockValue, f.priceVariance)
	}

	market := v.ReferencePrice()
	if f.chiOpinion < math.Abs(1-f.fundamentalPrice/market) {
		if f.fundamentalPrice >= market {
			f.fundamentalPrice = market * (1 + f.chiOpinion)
		} else {
			f.fundamentalPrice = market * (1 - f.chiOpinion)
		}
	}
}

// intention maps the gap between the fundamental price and the best quotes
// onto one of the five actions.
func (f *Fundamentalist) intention(v *View) domain.Action {
	bestAsk, okAsk := v.Book.BestAsk()
	bestBid, okBid := v.Book.BestBid()
	fp := f.fundamentalPrice

	switch {
	case okAsk && fp > bestAsk.Price*(1+f.chiMarket):
		return domain.ActionMarketBuy
	case okAsk && bestAsk.Price < fp && fp <= bestAsk.Price*(1+f.chiMarket):
		return domain.ActionLimitBuy
	case okBid && fp < bestBid.Price*(1-f.chiMarket):
		return domain.ActionMarketSell
	case okBid && bestBid.Price*(1-f.chiMarket) <= fp && fp < bestBid.Price:
		return domain.ActionLimitSell
	}
	return domain.ActionAbstain
}

// orderQuantity sizes an order off wealth and buying power at the given
// price. Buys add enough to cover an open short; sells add the current long
// inventory, and respect the reserved-cash figure the ledger maintains.
func (f *Fundamentalist) orderQuantity(v *View, intention domain.Action, price float64) int64 {
	if price <= 0 {
		return 0
	}
	acct := v.Account
	wealth := acct.Wealth(v.LastClose())

	var qty int64
	if intention.Side() == domain.OrderSideBid {
		budget := math.Min(wealth*f.orderFrac, acct.Cash)
		qty = int64(budget / price)
		if qty == 0 && acct.Cash >= price {
			qty = 1
		}
		if acct.Position < 0 {
			qty += -acct.Position
		}
	} else {
		freeCash := (wealth - acct.ReservedCash) * f.sellCashCushion
		budget := math.Min(wealth*f.orderFrac, freeCash)
		qty = int64(budget / price)
		if qty == 0 && freeCash >= price {
			qty = 1
		}
		if acct.Position > 0 {
			qty += acct.Position
		}
	}
	if qty < 0 {
		return 0
	}
	return qty
}
