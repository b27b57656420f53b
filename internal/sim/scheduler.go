package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/efreitasn/marketsim/internal/agent"
	"github.com/efreitasn/marketsim/internal/domain"
	"github.com/efreitasn/marketsim/internal/report"
)

// Run drives the simulation to its configured step count. ctx is only
// observed between ticks; a tick always runs to completion once started.
// A degenerate closing price aborts the run with an error; every tick is
// deterministic given the seed, so retrying would reproduce the failure.
func (s *Simulation) Run(ctx context.Context) error {
	for !s.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	s.log.Info("run finished",
		zap.String("run_id", s.collector.RunID()),
		zap.Int("ticks", s.steps),
		zap.Float64("final_price", s.Snapshot().LastPrice),
	)
	return nil
}

// Step executes one simulation tick: shock check, randomized trader
// order-submission rounds with a matching pass after every participant,
// liquidity-provider re-quoting, settlement of the closing price, and the
// per-tick record.
func (s *Simulation) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return nil
	}

	// Shock check: counters and the shock flag reset every tick; shocks
	// arrive at exponentially distributed intervals.
	s.state = StateShockCheck
	s.ledger.ResetTickCounters()
	s.shock = false
	s.shockValue = 0
	if s.tick == s.nextShock {
		s.shock = true
		s.shockValue = s.g.Normal(s.shockCfg.Mean, s.shockCfg.Stddev)
		s.nextShock = s.tick + int(math.Ceil(s.g.Exponential(s.shockCfg.Rate)))
		s.log.Debug("shock event",
			zap.Int("tick", s.tick),
			zap.Float64("value", s.shockValue),
			zap.Int("next_shock", s.nextShock),
		)
	}

	// Trading: a fresh uniform permutation fixes the tick's acting order.
	// The matching pass runs after every participant so later agents see the
	// trades of earlier ones.
	s.state = StateTrading
	for _, idx := range s.g.Perm(len(s.traders)) {
		trader := s.traders[idx]
		if s.book.OneSided() {
			if err := s.replenish(); err != nil {
				return err
			}
		}
		if err := trader.Act(s.viewFor(trader.ID())); err != nil {
			return fmt.Errorf("trader %s: %w", trader.ID(), err)
		}
		if err := s.settleTransactions(); err != nil {
			return err
		}
	}

	// Liquidity provision: providers re-quote, then one final matching pass.
	s.state = StateLiquidityProvision
	for _, p := range s.providers {
		if err := p.Act(s.viewFor(p.ID())); err != nil {
			return fmt.Errorf("provider %s: %w", p.ID(), err)
		}
	}
	if err := s.settleTransactions(); err != nil {
		return err
	}

	// Settle: close at the central price, falling back to the tick's VWAP,
	// falling back to the previous close.
	s.state = StateSettle
	prev := s.prices[len(s.prices)-1]
	transactions, volume, vwap, traded := s.ledger.TickStats()
	close := prev
	if mid, ok := s.book.CentralPrice(); ok {
		close = mid
	} else if traded {
		close = vwap
	}
	if close <= 0 {
		s.log.Error("degenerate closing price",
			zap.Int("tick", s.tick),
			zap.Float64("price", close),
			zap.Int("bids", s.book.BidCount()),
			zap.Int("asks", s.book.AskCount()),
		)
		return fmt.Errorf("%w: tick %d closed at %g", domain.ErrDegeneratePrice, s.tick, close)
	}
	close = math.Round(close*1e4) / 1e4
	s.prices = append(s.prices, close)

	rec := s.record(close, transactions, volume)
	s.collector.Append(rec)
	if s.onTick != nil {
		s.onTick(rec)
	}

	s.tick++
	if s.tick >= s.steps {
		s.state = StateFinished
	} else {
		s.state = StateIdle
	}
	return nil
}

// replenish asks every liquidity provider to repair the one-sided book.
func (s *Simulation) replenish() error {
	for _, p := range s.providers {
		if err := p.Replenish(s.viewFor(p.ID())); err != nil {
			return fmt.Errorf("provider %s replenish: %w", p.ID(), err)
		}
	}
	return nil
}

// settleTransactions runs one matching pass and applies every resulting
// transaction through the ledger, in order, before anyone else acts.
func (s *Simulation) settleTransactions() error {
	for _, tx := range s.book.ExecuteOrders() {
		if err := s.ledger.Apply(tx); err != nil {
			return fmt.Errorf("apply transaction: %w", err)
		}
	}
	return nil
}

// viewFor builds the observable market state for one participant's decision
// step. The account snapshot is taken at call time, so every agent sees the
// settled effects of all earlier actions in the tick.
func (s *Simulation) viewFor(participantID string) *agent.View {
	acct, _ := s.ledger.Account(participantID)
	return &agent.View{
		Book:       s.book,
		Account:    acct,
		Prices:     s.prices,
		TickSize:   s.tickSize,
		Tick:       s.tick,
		Shock:      s.shock,
		ShockValue: s.shockValue,
		RNG:        s.g,
	}
}

// record assembles the tick's report row.
func (s *Simulation) record(close float64, transactions, volume int64) report.TickRecord {
	rec := report.TickRecord{
		Tick:         s.tick,
		Price:        close,
		Transactions: transactions,
		Volume:       volume,
		Shock:        s.shock,
		ShockValue:   s.shockValue,
		Optimists:    s.crowd.Optimists(),

		MarketMakers:    s.ledger.Aggregate(s.makerIDs, close),
		Fundamentalists: s.ledger.Aggregate(s.fundIDs, close),
		Chartists:       s.ledger.Aggregate(s.chartIDs, close),
	}
	if bid, ok := s.book.BestBid(); ok {
		rec.BestBid = bid.Price
	}
	if ask, ok := s.book.BestAsk(); ok {
		rec.BestAsk = ask.Price
	}
	return rec
}
