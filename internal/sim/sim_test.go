package sim

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/efreitasn/marketsim/internal/config"
	"github.com/efreitasn/marketsim/internal/report"
)

// testConfig returns a small reference parameterization that runs fast.
func testConfig(seed uint64) *config.Config {
	cfg := config.Default()
	cfg.Seed = seed
	cfg.Steps = 25
	cfg.Fundamentalists.Count = 10
	cfg.Chartists.Count = 10
	return cfg
}

func newTestSim(t *testing.T, seed uint64) *Simulation {
	t.Helper()
	s, err := New(testConfig(seed), zap.NewNop())
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func TestNew_CreatesAccounts(t *testing.T) {
	s := newTestSim(t, 42)

	acct, ok := s.Ledger().Account("mm-1")
	if !ok {
		t.Fatal("expected market maker account")
	}
	if acct.Cash != 1e6 || acct.Position != 1000 {
		t.Errorf("market maker account: cash=%v pos=%d", acct.Cash, acct.Position)
	}

	for _, id := range []string{"fund-1", "fund-10", "chart-1", "chart-10"} {
		acct, ok := s.Ledger().Account(id)
		if !ok {
			t.Fatalf("expected account %s", id)
		}
		if acct.Cash <= 0 {
			t.Errorf("%s: expected positive starting cash, got %v", id, acct.Cash)
		}
		if acct.Position != 0 {
			t.Errorf("%s: expected flat starting position, got %d", id, acct.Position)
		}
	}

	if _, ok := s.Ledger().Account("fund-11"); ok {
		t.Error("unexpected extra fundamentalist account")
	}
}

func TestStep_AdvancesOneTick(t *testing.T) {
	s := newTestSim(t, 42)

	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	snap := s.Snapshot()
	if snap.Tick != 1 {
		t.Errorf("expected tick 1, got %d", snap.Tick)
	}
	if snap.State != StateIdle {
		t.Errorf("expected state idle, got %s", snap.State)
	}
	if prices := s.Prices(); len(prices) != 2 {
		t.Errorf("expected 2 prices (initial + 1 close), got %d", len(prices))
	}
	if s.Collector().Len() != 1 {
		t.Errorf("expected 1 collected record, got %d", s.Collector().Len())
	}
}

func TestRun_CompletesAllSteps(t *testing.T) {
	s := newTestSim(t, 42)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !s.Finished() {
		t.Fatal("expected run to be finished")
	}

	snap := s.Snapshot()
	if snap.Tick != 25 {
		t.Errorf("expected tick 25, got %d", snap.Tick)
	}
	if snap.State != StateFinished {
		t.Errorf("expected state finished, got %s", snap.State)
	}

	prices := s.Prices()
	if len(prices) != 26 {
		t.Fatalf("expected 26 prices, got %d", len(prices))
	}
	for i, p := range prices {
		if p <= 0 {
			t.Errorf("price %d is non-positive: %v", i, p)
		}
	}
	if s.Collector().Len() != 25 {
		t.Errorf("expected 25 records, got %d", s.Collector().Len())
	}

	// Ticks are recorded in order, starting at 0.
	records := s.Collector().Records()
	for i, rec := range records {
		if rec.Tick != i {
			t.Fatalf("record %d carries tick %d", i, rec.Tick)
		}
	}
}

func TestRun_SameSeedSameTrace(t *testing.T) {
	a := newTestSim(t, 7)
	b := newTestSim(t, 7)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("run b: %v", err)
	}

	pa, pb := a.Prices(), b.Prices()
	if len(pa) != len(pb) {
		t.Fatalf("price series lengths differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("price %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}

	ra, rb := a.Collector().Records(), b.Collector().Records()
	for i := range ra {
		if ra[i].Transactions != rb[i].Transactions || ra[i].Volume != rb[i].Volume {
			t.Fatalf("record %d differs: %+v vs %+v", i, ra[i], rb[i])
		}
	}
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	a := newTestSim(t, 1)
	b := newTestSim(t, 2)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("run b: %v", err)
	}

	pa, pb := a.Prices(), b.Prices()
	same := true
	for i := range pa {
		if pa[i] != pb[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different seeds to produce different traces")
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	s := newTestSim(t, 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); err == nil {
		t.Fatal("expected context error")
	}
	if s.Finished() {
		t.Error("cancelled run must not report finished")
	}
}

func TestStep_NoOpAfterFinished(t *testing.T) {
	s := newTestSim(t, 42)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	ticks := s.Snapshot().Tick
	if err := s.Step(); err != nil {
		t.Fatalf("step after finish: %v", err)
	}
	if s.Snapshot().Tick != ticks {
		t.Error("step after finish advanced the tick")
	}
}

func TestStep_BookRepairedBeforeTrading(t *testing.T) {
	s := newTestSim(t, 42)

	// The book starts empty; the first trader to act forces a replenish, and
	// the end-of-tick provider pass re-quotes both sides.
	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if s.Book().BidCount() == 0 && s.Book().AskCount() == 0 {
		t.Error("expected provider quotes on the book after a tick")
	}
}

func TestOnTick_CallbackReceivesRecords(t *testing.T) {
	s := newTestSim(t, 42)

	var ticks []int
	s.SetOnTick(func(rec report.TickRecord) {
		ticks = append(ticks, rec.Tick)
	})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(ticks) != 25 {
		t.Fatalf("expected 25 callbacks, got %d", len(ticks))
	}
	for i, tick := range ticks {
		if tick != i {
			t.Fatalf("callback %d carried tick %d", i, tick)
		}
	}
}
