package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar in the shape the fake broker serves from /candles.
type Candle struct {
	Symbol string  `json:"symbol"`
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Quote is a bid/ask snapshot as served from /quotations.
type Quote struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   string  `json:"time"`
}

// DataGenerator generates deterministic market data for the fake broker and tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// InitialPrice is the opening price of the first bar
	InitialPrice float64
	// Volatility controls price movement per bar (0.001 = 0.1%)
	Volatility float64
	// Spread is the ask minus bid distance of generated quotes
	Spread float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// MaxBars caps a single GenerateCandles result
	MaxBars int
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		InitialPrice: 1.1,
		Volatility:   0.001,
		Spread:       0.0002,
		VolumeBase:   100,
		MaxBars:      5000,
	}
}

// ParseInterval converts a platform interval such as "M1", "M15", "H4" or "D1" to a duration.
func ParseInterval(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	n, err := strconv.Atoi(interval[1:])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	switch interval[0] {
	case 'M':
		return time.Duration(n) * time.Minute, nil
	case 'H':
		return time.Duration(n) * time.Hour, nil
	case 'D':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'W':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
}

// GenerateCandles returns the bars of symbol in [from, to) spaced by interval.
// Prices follow a random walk: every bar opens at the previous close.
func (g *DataGenerator) GenerateCandles(config GeneratorConfig, symbol, interval string, from, to time.Time) ([]Candle, error) {
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	if !to.After(from) {
		return []Candle{}, nil
	}

	candles := make([]Candle, 0)
	price := config.InitialPrice

	for t := from; t.Before(to); t = t.Add(step) {
		if config.MaxBars > 0 && len(candles) >= config.MaxBars {
			break
		}

		open := price

		// Box-Muller transform for a normal step
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, closePrice) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (0.5 + g.rng.Float64())

		candles = append(candles, Candle{
			Symbol: symbol,
			Time:   t.UTC().Format(time.RFC3339),
			Open:   round(open, 5),
			High:   round(high, 5),
			Low:    round(low, 5),
			Close:  round(closePrice, 5),
			Volume: round(volume, 2),
		})

		price = closePrice
	}

	return candles, nil
}

// GenerateQuote returns a quote for symbol around a randomized mid price.
func (g *DataGenerator) GenerateQuote(config GeneratorConfig, symbol string, at time.Time) Quote {
	mid := config.InitialPrice * (1 + config.Volatility*(g.rng.Float64()*2-1))

	return Quote{
		Symbol: symbol,
		Bid:    round(mid-config.Spread/2, 5),
		Ask:    round(mid+config.Spread/2, 5),
		Time:   at.UTC().Format(time.RFC3339),
	}
}

// GenerateQuotes returns one quote per symbol keyed by symbol.
func (g *DataGenerator) GenerateQuotes(config GeneratorConfig, symbols []string, at time.Time) map[string]Quote {
	quotes := make(map[string]Quote, len(symbols))
	for _, symbol := range symbols {
		quotes[symbol] = g.GenerateQuote(config, symbol, at)
	}

	return quotes
}

func round(val float64, places int32) float64 {
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}
