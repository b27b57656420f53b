package config

import (
	"fmt"
)

// Range is a closed interval parameters are drawn from uniformly.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Config is the root configuration for one simulation run.
type Config struct {
	Seed         uint64  `yaml:"seed"`
	Steps        int     `yaml:"steps"`
	InitialPrice float64 `yaml:"initial_price"`
	TickSize     float64 `yaml:"tick_size"`
	LogLevel     string  `yaml:"log_level"`

	Shock           ShockConfig          `yaml:"shock"`
	MarketMaker     MarketMakerConfig    `yaml:"market_maker"`
	Fundamentalists FundamentalistConfig `yaml:"fundamentalists"`
	Chartists       ChartistConfig       `yaml:"chartists"`
	Observer        ObserverConfig       `yaml:"observer"`
	Output          OutputConfig         `yaml:"output"`
}

// ShockConfig controls the exogenous shock process: exponential inter-arrival
// at the given rate, normally distributed magnitude.
type ShockConfig struct {
	Rate   float64 `yaml:"rate"`
	Mean   float64 `yaml:"mean"`
	Stddev float64 `yaml:"stddev"`
}

// MarketMakerConfig parameterizes the liquidity provider.
type MarketMakerConfig struct {
	Cash       float64 `yaml:"cash"`
	Inventory  int64   `yaml:"inventory"`
	Spread     float64 `yaml:"spread"`
	QuoteRatio float64 `yaml:"quote_ratio"` // fraction of inventory quoted per side
	MinQuote   int64   `yaml:"min_quote"`
}

// FundamentalistConfig parameterizes the fundamentalist archetype. Cash is
// drawn lognormal(mu, sigma) × scale per agent; the remaining fields are
// per-agent uniform draws.
type FundamentalistConfig struct {
	Count           int     `yaml:"count"`
	CashMu          float64 `yaml:"cash_mu"`
	CashSigma       float64 `yaml:"cash_sigma"`
	CashScale       float64 `yaml:"cash_scale"`
	ChiMarket       Range   `yaml:"chi_market"`
	ChiOpinion      Range   `yaml:"chi_opinion"`
	PriceSpread     float64 `yaml:"price_spread"`   // initial fundamental price band
	PriceVariance   float64 `yaml:"price_variance"` // fundamental walk stddev
	OrderAmountFrac Range   `yaml:"order_amount_frac"`
	SellCashCushion float64 `yaml:"sell_cash_cushion"` // fraction of free cash usable when shorting
}

// ChartistConfig parameterizes the chartist archetype.
type ChartistConfig struct {
	Count           int     `yaml:"count"`
	CashMu          float64 `yaml:"cash_mu"`
	CashSigma       float64 `yaml:"cash_sigma"`
	CashScale       float64 `yaml:"cash_scale"`
	OptimisticRatio float64 `yaml:"optimistic_ratio"`
	RevaluationFreq float64 `yaml:"revaluation_freq"`
	MajorityWeight  float64 `yaml:"majority_weight"`
	TrendWeight     float64 `yaml:"trend_weight"`
	OrderAmountFrac Range   `yaml:"order_amount_frac"`
	LambdaLimit     float64 `yaml:"lambda_limit"` // Laplace limit-price concentration
}

// ObserverConfig controls the optional read-only HTTP API.
type ObserverConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// OutputConfig controls where the per-tick series is written.
type OutputConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// applyDefaults fills zero values with the defaults of the reference
// parameterization.
func (c *Config) applyDefaults() {
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Steps == 0 {
		c.Steps = 500
	}
	if c.InitialPrice == 0 {
		c.InitialPrice = 100
	}
	if c.TickSize == 0 {
		c.TickSize = 0.05
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Shock.Rate == 0 {
		c.Shock.Rate = 0.5
	}
	if c.Shock.Stddev == 0 {
		c.Shock.Stddev = 1
	}

	if c.MarketMaker.Cash == 0 {
		c.MarketMaker.Cash = 1e6
	}
	if c.MarketMaker.Inventory == 0 {
		c.MarketMaker.Inventory = 1000
	}
	if c.MarketMaker.Spread == 0 {
		c.MarketMaker.Spread = 0.1
	}
	if c.MarketMaker.QuoteRatio == 0 {
		c.MarketMaker.QuoteRatio = 0.3
	}
	if c.MarketMaker.MinQuote == 0 {
		c.MarketMaker.MinQuote = 20
	}

	f := &c.Fundamentalists
	if f.Count == 0 {
		f.Count = 100
	}
	if f.CashMu == 0 {
		f.CashMu = 1.0
	}
	if f.CashSigma == 0 {
		f.CashSigma = 0.4
	}
	if f.CashScale == 0 {
		f.CashScale = 1000
	}
	if f.ChiMarket == (Range{}) {
		f.ChiMarket = Range{Min: 0.02, Max: 0.15}
	}
	if f.ChiOpinion == (Range{}) {
		f.ChiOpinion = Range{Min: 0.03, Max: 0.1}
	}
	if f.PriceSpread == 0 {
		f.PriceSpread = 0.03
	}
	if f.PriceVariance == 0 {
		f.PriceVariance = 0.2
	}
	if f.OrderAmountFrac == (Range{}) {
		f.OrderAmountFrac = Range{Min: 0.025, Max: 0.10}
	}
	if f.SellCashCushion == 0 {
		f.SellCashCushion = 0.95
	}

	ch := &c.Chartists
	if ch.Count == 0 {
		ch.Count = 100
	}
	if ch.CashMu == 0 {
		ch.CashMu = 0.9
	}
	if ch.CashSigma == 0 {
		ch.CashSigma = 0.3
	}
	if ch.CashScale == 0 {
		ch.CashScale = 1000
	}
	if ch.OptimisticRatio == 0 {
		ch.OptimisticRatio = 0.51
	}
	if ch.RevaluationFreq == 0 {
		ch.RevaluationFreq = 0.5
	}
	if ch.MajorityWeight == 0 {
		ch.MajorityWeight = -1
	}
	if ch.TrendWeight == 0 {
		ch.TrendWeight = -2.5
	}
	if ch.OrderAmountFrac == (Range{}) {
		ch.OrderAmountFrac = Range{Min: 0.03, Max: 0.17}
	}
	if ch.LambdaLimit == 0 {
		ch.LambdaLimit = 3
	}

	if c.Observer.Port == 0 {
		c.Observer.Port = 8080
	}
}

// Validate checks the configuration and returns an error for any value that
// would make the run meaningless or non-terminating.
func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be > 0, got %d", c.Steps)
	}
	if c.InitialPrice <= 0 {
		return fmt.Errorf("initial_price must be > 0, got %g", c.InitialPrice)
	}
	if c.TickSize <= 0 {
		return fmt.Errorf("tick_size must be > 0, got %g", c.TickSize)
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level: %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.Shock.Rate <= 0 {
		return fmt.Errorf("shock.rate must be > 0, got %g", c.Shock.Rate)
	}
	if c.Fundamentalists.Count < 0 {
		return fmt.Errorf("fundamentalists.count must be >= 0, got %d", c.Fundamentalists.Count)
	}
	if c.Chartists.Count < 0 {
		return fmt.Errorf("chartists.count must be >= 0, got %d", c.Chartists.Count)
	}
	if r := c.Chartists.OptimisticRatio; r < 0 || r > 1 {
		return fmt.Errorf("chartists.optimistic_ratio must be in [0, 1], got %g", r)
	}
	if c.MarketMaker.Spread <= 0 {
		return fmt.Errorf("market_maker.spread must be > 0, got %g", c.MarketMaker.Spread)
	}
	if c.Observer.Enabled && (c.Observer.Port < 1 || c.Observer.Port > 65535) {
		return fmt.Errorf("observer.port must be a valid port, got %d", c.Observer.Port)
	}
	for _, rg := range []struct {
		name string
		r    Range
	}{
		{"fundamentalists.chi_market", c.Fundamentalists.ChiMarket},
		{"fundamentalists.chi_opinion", c.Fundamentalists.ChiOpinion},
		{"fundamentalists.order_amount_frac", c.Fundamentalists.OrderAmountFrac},
		{"chartists.order_amount_frac", c.Chartists.OrderAmountFrac},
	} {
		if rg.r.Min > rg.r.Max {
			return fmt.Errorf("%s: min %g > max %g", rg.name, rg.r.Min, rg.r.Max)
		}
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
