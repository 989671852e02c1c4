package market

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ksred/papertrade-api/pkg/money"
)

const (
	candleInterval = 5 * time.Minute
	candleCount    = 36
	bookSpread     = 0.2
	bookTick       = 0.1
)

// QuoteProvider resolves a symbol to its current tradable price. A false
// second return means the symbol is unknown.
type QuoteProvider interface {
	Quote(symbol string) (Quote, bool)
}

type Quote struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LivePrice   float64 `json:"livePrice"`
	ChangePct   float64 `json:"changePct"`
}

type Candle struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

type OrderBook struct {
	Bid []BookLevel `json:"bid"`
	Ask []BookLevel `json:"ask"`
}

type Fundamentals struct {
	MarketCapCr float64 `json:"marketCapCr"`
	PE          float64 `json:"pe"`
	EPS         float64 `json:"eps"`
}

type TechnicalIndicators struct {
	RSI14 float64 `json:"rsi14"`
	SMA20 float64 `json:"sma20"`
	EMA20 float64 `json:"ema20"`
}

// Snapshot is the full market view of one symbol
type Snapshot struct {
	Quote
	OrderBook           OrderBook           `json:"orderBook"`
	Fundamentals        Fundamentals        `json:"fundamentals"`
	TechnicalIndicators TechnicalIndicators `json:"technicalIndicators"`
	Historical          []Candle            `json:"historical"`
}

type SymbolInfo struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	CompanyName   string `json:"companyName"`
}

// Provider generates synthetic intraday data as a pure function of the
// symbol and the clock. It holds no mutable state and is safe for
// concurrent use.
type Provider struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Provider)

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithLocation sets the zone used for candle labels
func WithLocation(loc *time.Location) Option {
	return func(p *Provider) { p.loc = loc }
}

func NewProvider(opts ...Option) *Provider {
	p := &Provider{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Normalize trims, upper-cases and maps '&' to '_' (M&M -> M_M).
func Normalize(input string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(input)), "&", "_")
}

// Display reverses the '&' mapping of Normalize for presentation.
func Display(symbol string) string {
	return strings.ReplaceAll(symbol, "_", "&")
}

// Quote returns the live price for symbol
func (p *Provider) Quote(symbol string) (Quote, bool) {
	symbol = Normalize(symbol)
	listing, ok := Lookup(symbol)
	if !ok {
		return Quote{}, false
	}
	candles, live := p.candles(symbol, listing.BasePrice)
	return p.quote(symbol, listing, candles, live), true
}

func (p *Provider) quote(symbol string, listing Listing, candles []Candle, live float64) Quote {
	changePct := 0.0
	if dayOpen := candles[0].Open; dayOpen != 0 {
		changePct = money.Round2((live - dayOpen) / dayOpen * 100)
	}
	return Quote{
		Symbol:      symbol,
		CompanyName: listing.CompanyName,
		LivePrice:   live,
		ChangePct:   changePct,
	}
}

// Snapshot returns the full market view for symbol
func (p *Provider) Snapshot(symbol string) (*Snapshot, bool) {
	symbol = Normalize(symbol)
	listing, ok := Lookup(symbol)
	if !ok {
		return nil, false
	}

	candles, live := p.candles(symbol, listing.BasePrice)
	bid := money.Round2(live - bookSpread)
	ask := money.Round2(live + bookSpread)

	return &Snapshot{
		Quote: p.quote(symbol, listing, candles, live),
		OrderBook: OrderBook{
			Bid: []BookLevel{{Price: bid, Quantity: 120}, {Price: money.Round2(bid - bookTick), Quantity: 80}},
			Ask: []BookLevel{{Price: ask, Quantity: 110}, {Price: money.Round2(ask + bookTick), Quantity: 95}},
		},
		Fundamentals: Fundamentals{
			MarketCapCr: listing.MarketCapCr,
			PE:          listing.PE,
			EPS:         listing.EPS,
		},
		TechnicalIndicators: indicators(symbol, candles),
		Historical:          candles,
	}, true
}

// Symbols lists every tradable symbol ordered by company name
func (p *Provider) Symbols() []SymbolInfo {
	out := make([]SymbolInfo, 0, len(listings))
	for symbol, l := range listings {
		out = append(out, SymbolInfo{
			Symbol:        symbol,
			DisplaySymbol: Display(symbol),
			CompanyName:   l.CompanyName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].CompanyName) < strings.ToLower(out[j].CompanyName)
	})
	return out
}

// Closes returns the close series of the current intraday candles
func (p *Provider) Closes(symbol string) ([]float64, bool) {
	symbol = Normalize(symbol)
	listing, ok := Lookup(symbol)
	if !ok {
		return nil, false
	}
	candles, _ := p.candles(symbol, listing.BasePrice)
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes, true
}

func seedOf(symbol string) float64 {
	sum := 0
	for _, r := range symbol {
		sum += int(r)
	}
	return float64(sum)
}

// seededUnit maps (seed, step) to a repeatable value in [0, 1)
func seededUnit(seed, step float64) float64 {
	v := math.Sin(seed*12.9898+step*78.233) * 43758.5453
	return v - math.Floor(v)
}

// candles builds the last candleCount five-minute candles ending at the
// current bucket. The final close carries a small intra-bucket jitter so the
// live price moves between bucket boundaries.
func (p *Provider) candles(symbol string, basePrice float64) ([]Candle, float64) {
	seed := seedOf(symbol)
	now := p.now()
	nowMs := now.UnixMilli()
	intervalMs := candleInterval.Milliseconds()

	currentBucket := nowMs / intervalMs
	startBucket := currentBucket - candleCount + 1

	candles := make([]Candle, 0, candleCount)
	prevClose := basePrice * (1 + (seededUnit(seed, float64(startBucket))-0.5)*0.01)

	for i := int64(0); i < candleCount; i++ {
		bucket := startBucket + i
		b := float64(bucket)

		trend := math.Sin((seed+b)/13) * 0.0009
		drift := math.Cos((seed+b)/5) * 0.0006
		shock := (seededUnit(seed, b) - 0.5) * 0.0022

		open := prevClose
		closePrice := open * (1 + trend + drift + shock)
		wick := open * (0.0008 + seededUnit(seed+19, b)*0.0025)
		high := math.Max(open, closePrice) + wick
		low := math.Min(open, closePrice) - wick*0.95
		volume := int64(math.Floor(150000 + seededUnit(seed+31, b)*600000))

		ts := time.UnixMilli(bucket * intervalMs).In(p.loc)

		candles = append(candles, Candle{
			Time:   ts.Format("15:04"),
			Open:   money.Round2(open),
			High:   money.Round2(high),
			Low:    money.Round2(math.Max(0.01, low)),
			Close:  money.Round2(closePrice),
			Price:  money.Round2(closePrice),
			Volume: volume,
		})

		prevClose = closePrice
	}

	last := &candles[len(candles)-1]
	progress := float64(nowMs%intervalMs) / float64(intervalMs)
	jitter := math.Sin((float64(nowMs)/1000+seed)/8)*0.0008 + (progress-0.5)*0.0006
	live := money.Round2(last.Close * (1 + jitter))

	last.Close = live
	last.Price = live
	last.High = money.Round2(math.Max(last.High, live))
	last.Low = money.Round2(math.Min(last.Low, live))

	return candles, live
}

func indicators(symbol string, candles []Candle) TechnicalIndicators {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	window := 20
	if len(closes) < window {
		window = len(closes)
	}

	sma := 0.0
	if window > 0 {
		for _, v := range closes[len(closes)-window:] {
			sma += v
		}
		sma /= float64(window)
	}

	ema := 0.0
	if len(closes) > 0 {
		factor := 2 / float64(window+1)
		ema = closes[0]
		for _, v := range closes {
			ema += factor * (v - ema)
		}
	}

	return TechnicalIndicators{
		RSI14: float64(45 + len(symbol)%20),
		SMA20: money.Round2(sma),
		EMA20: money.Round2(ema),
	}
}
