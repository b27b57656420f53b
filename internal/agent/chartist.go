package agent

import (
	"math"

	"github.com/efreitasn/marketsim/internal/config"
	"github.com/efreitasn/marketsim/internal/domain"
	"github.com/efreitasn/marketsim/internal/engine"
	"github.com/efreitasn/marketsim/internal/rng"
)

// ArchetypeChartist tags the chartist archetype in reports.
const ArchetypeChartist = "chartist"

// Crowd tracks the optimist headcount shared by every chartist in a run.
// It is read and mutated only inside the synchronous tick loop.
type Crowd struct {
	Chartists    int // number of chartists in the run
	Participants int // all trading participants, providers included
	optimists    int
}

// Optimists returns the current optimist headcount.
func (c *Crowd) Optimists() int { return c.optimists }

// Chartist follows crowd opinion and price trend. Each tick it reconsiders
// its optimism with a probability driven by the optimist majority and the
// latest return, dumps inventory (or covers a short) at market when opinion
// and position disagree, and otherwise rests a limit order at a Laplace draw
// around the central price.
type Chartist struct {
	id             string
	crowd          *Crowd
	optimistic     bool
	orderFrac      float64
	lambdaLimit    float64
	revalFreq      float64
	majorityWeight float64
	trendWeight    float64
}

// NewChartist creates a chartist and registers its initial opinion with the
// crowd.
func NewChartist(id string, cfg config.ChartistConfig, crowd *Crowd, g *rng.RNG) *Chartist {
	c := &Chartist{
		id:             id,
		crowd:          crowd,
		optimistic:     g.Bool(cfg.OptimisticRatio),
		orderFrac:      g.Uniform(cfg.OrderAmountFrac.Min, cfg.OrderAmountFrac.Max),
		lambdaLimit:    cfg.LambdaLimit,
		revalFreq:      cfg.RevaluationFreq,
		majorityWeight: cfg.MajorityWeight,
		trendWeight:    cfg.TrendWeight,
	}
	if c.optimistic {
		crowd.optimists++
	}
	return c
}

func (c *Chartist) ID() string        { return c.id }
func (c *Chartist) Archetype() string { return ArchetypeChartist }

// Optimistic returns the chartist's current opinion.
func (c *Chartist) Optimistic() bool { return c.optimistic }

// Act performs one decision step.
func (c *Chartist) Act(v *View) error {
	if err := c.evaluateOpinion(v); err != nil {
		return err
	}

	pos := v.Account.Position
	switch {
	case pos < 0 && c.optimistic:
		// Cover the short at market.
		return v.Book.PlaceOrder(c.id, domain.ActionMarketBuy, 0, -pos)
	case pos > 0 && !c.optimistic:
		// Dump inventory at market.
		return v.Book.PlaceOrder(c.id, domain.ActionMarketSell, 0, pos)
	}

	if v.Account.Bankrupt(v.LastClose()) {
		return nil
	}

	price := domain.RoundToTick(v.RNG.Laplace(v.ReferencePrice(), 1/c.lambdaLimit), v.TickSize)
	qty := c.orderQuantity(v, price)
	if qty <= 0 {
		return nil
	}
	if c.optimistic {
		return v.Book.PlaceOrder(c.id, domain.ActionLimitBuy, price, qty)
	}
	return v.Book.PlaceOrder(c.id, domain.ActionLimitSell, price, qty)
}

// evaluateOpinion flips the chartist's optimism with a probability driven by
// the optimist majority and the latest price trend. A flip withdraws the
// quotes resting on the now-stale side.
func (c *Chartist) evaluateOpinion(v *View) error {
	if c.crowd.Chartists == 0 || c.crowd.Participants == 0 {
		return nil
	}

	optimists := c.crowd.optimists
	pessimists := c.crowd.Chartists - optimists
	majority := float64(optimists-pessimists) / float64(c.crowd.Chartists)

	trend := 0.001
	if n := len(v.Prices); n > 1 {
		trend = (v.Prices[n-1] - v.Prices[n-2]) / v.Prices[n-2]
	}

	opinion := c.majorityWeight*majority + c.trendWeight*trend/c.revalFreq
	sign := 1.0
	if !c.optimistic {
		sign = -1.0
	}
	p := c.revalFreq * float64(c.crowd.Chartists) / float64(c.crowd.Participants) * math.Exp(opinion*sign)
	if p > 1 {
		p = 1
	}

	if !v.RNG.Bool(p) {
		return nil
	}

	staleSide := engine.CancelAsks
	if c.optimistic {
		staleSide = engine.CancelBids
		c.crowd.optimists--
	} else {
		c.crowd.optimists++
	}
	c.optimistic = !c.optimistic
	return v.Book.CancelLimitOrders(c.id, staleSide)
}

// orderQuantity sizes a limit order off wealth: buys are capped by cash on
// hand, sells are not (shorting is allowed; the ledger reserves against it).
func (c *Chartist) orderQuantity(v *View, price float64) int64 {
	if price <= 0 {
		return 0
	}
	wealth := v.Account.Wealth(v.LastClose())

	var budget float64
	if c.optimistic {
		budget = math.Min(wealth*c.orderFrac, v.Account.Cash)
	} else {
		budget = wealth * c.orderFrac
	}
	qty := int64(budget / price)
	if qty < 0 {
		return 0
	}
	return qty
}
