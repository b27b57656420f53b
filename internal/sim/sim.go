// Package sim wires the order book, ledger, and agents into a seeded
// discrete-event simulation and drives it tick by tick. The run is
// single-threaded and fully synchronous; a fixed seed reproduces an
// identical tick-by-tick trace.
package sim

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/efreitasn/marketsim/internal/agent"
	"github.com/efreitasn/marketsim/internal/config"
	"github.com/efreitasn/marketsim/internal/engine"
	"github.com/efreitasn/marketsim/internal/ledger"
	"github.com/efreitasn/marketsim/internal/report"
	"github.com/efreitasn/marketsim/internal/rng"
)

// State is the scheduler's phase within (or across) ticks.
type State string

const (
	StateIdle               State = "idle"
	StateShockCheck         State = "shock_check"
	StateTrading            State = "trading"
	StateLiquidityProvision State = "liquidity_provision"
	StateSettle             State = "settle"
	StateFinished           State = "finished"
)

// Simulation owns all mutable run state: book, ledger, agents, price
// history, and the shock process. Mutation happens only inside Step, from a
// single goroutine; the lock lets the observer API read consistent
// snapshots while a run is in flight.
type Simulation struct {
	log       *zap.Logger
	g         *rng.RNG
	book      *engine.OrderBook
	ledger    *ledger.Ledger
	collector *report.Collector
	crowd     *agent.Crowd

	traders   []agent.Trader
	providers []agent.LiquidityProvider

	// participant IDs by archetype, for reporting aggregates
	makerIDs []string
	fundIDs  []string
	chartIDs []string

	tickSize float64
	steps    int
	shockCfg config.ShockConfig
	onTick   func(report.TickRecord)

	mu         sync.RWMutex
	state      State
	tick       int
	prices     []float64
	nextShock  int
	shock      bool
	shockValue float64
}

// New builds a simulation from config: one seeded RNG, an empty book, one
// account per participant, and the configured agent population. Participant
// parameter draws happen here, so the whole trace is a pure function of the
// seed.
func New(cfg *config.Config, log *zap.Logger) (*Simulation, error) {
	g := rng.New(cfg.Seed)
	s := &Simulation{
		log:       log,
		g:         g,
		book:      engine.NewOrderBook(),
		ledger:    ledger.NewLedger(),
		collector: report.NewCollector(),
		crowd:     &agent.Crowd{},
		tickSize:  cfg.TickSize,
		steps:     cfg.Steps,
		shockCfg:  cfg.Shock,
		state:     StateIdle,
		prices:    []float64{cfg.InitialPrice},
		nextShock: int(math.Round(g.Exponential(cfg.Shock.Rate))),
	}

	mm := agent.NewMarketMaker("mm-1", cfg.MarketMaker.Spread, cfg.MarketMaker.QuoteRatio, cfg.MarketMaker.MinQuote)
	if err := s.ledger.CreateAccount(mm.ID(), cfg.MarketMaker.Cash, cfg.MarketMaker.Inventory); err != nil {
		return nil, err
	}
	s.providers = append(s.providers, mm)
	s.makerIDs = append(s.makerIDs, mm.ID())

	for i := 0; i < cfg.Fundamentalists.Count; i++ {
		id := fmt.Sprintf("fund-%d", i+1)
		cash := g.LogNormal(cfg.Fundamentalists.CashMu, cfg.Fundamentalists.CashSigma) * cfg.Fundamentalists.CashScale
		if err := s.ledger.CreateAccount(id, cash, 0); err != nil {
			return nil, err
		}
		s.traders = append(s.traders, agent.NewFundamentalist(id, cfg.Fundamentalists, cfg.InitialPrice, g))
		s.fundIDs = append(s.fundIDs, id)
	}

	s.crowd.Chartists = cfg.Chartists.Count
	for i := 0; i < cfg.Chartists.Count; i++ {
		id := fmt.Sprintf("chart-%d", i+1)
		cash := g.LogNormal(cfg.Chartists.CashMu, cfg.Chartists.CashSigma) * cfg.Chartists.CashScale
		if err := s.ledger.CreateAccount(id, cash, 0); err != nil {
			return nil, err
		}
		s.traders = append(s.traders, agent.NewChartist(id, cfg.Chartists, s.crowd, g))
		s.chartIDs = append(s.chartIDs, id)
	}

	s.crowd.Participants = len(s.traders) + len(s.providers)

	log.Info("simulation initialized",
		zap.String("run_id", s.collector.RunID()),
		zap.Uint64("seed", cfg.Seed),
		zap.Int("steps", cfg.Steps),
		zap.Int("fundamentalists", cfg.Fundamentalists.Count),
		zap.Int("chartists", cfg.Chartists.Count),
	)
	return s, nil
}

// SetOnTick registers a callback invoked with each tick's record after
// settlement. Set it before Run; it is called from the run goroutine.
func (s *Simulation) SetOnTick(fn func(report.TickRecord)) {
	s.onTick = fn
}

// Book returns the order book for read-only observation.
func (s *Simulation) Book() *engine.OrderBook { return s.book }

// Collector returns the run's per-tick series collector.
func (s *Simulation) Collector() *report.Collector { return s.collector }

// Ledger returns the run's account ledger for read-only observation.
func (s *Simulation) Ledger() *ledger.Ledger { return s.ledger }

// Prices returns a copy of the closing-price history, initial price first.
func (s *Simulation) Prices() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, len(s.prices))
	copy(out, s.prices)
	return out
}

// Snapshot is a point-in-time summary of run progress.
type Snapshot struct {
	RunID     string  `json:"run_id"`
	State     State   `json:"state"`
	Tick      int     `json:"tick"`
	Steps     int     `json:"steps"`
	LastPrice float64 `json:"last_price"`
}

// Snapshot returns the current run progress.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		RunID:     s.collector.RunID(),
		State:     s.state,
		Tick:      s.tick,
		Steps:     s.steps,
		LastPrice: s.prices[len(s.prices)-1],
	}
}

// Finished reports whether the run has reached its configured step count.
func (s *Simulation) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateFinished
}
