package advisory

import (
	"strings"

	"github.com/ksred/papertrade-api/pkg/money"
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"

	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"

	smaPeriod   = 20
	rsiPeriod   = 14
	trendWindow = 10
)

// Indicators are computed over the intraday close series. Nil means the
// series was too short.
type Indicators struct {
	SMA20 *float64 `json:"sma20"`
	RSI14 *float64 `json:"rsi14"`
	Trend string   `json:"trend"`
}

// Recommendation is the advisory verdict for one symbol
type Recommendation struct {
	Stock          string     `json:"stock"`
	Recommendation string     `json:"recommendation"`
	Confidence     float64    `json:"confidence"`
	Reasoning      []string   `json:"reasoning"`
	Indicators     Indicators `json:"indicators"`
	News           []Headline `json:"news"`
	NewsSentiment  string     `json:"newsSentiment"`
}

func sma(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	sum := 0.0
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	v := money.Round2(sum / float64(period))
	return &v
}

// rsi is the simple-average relative strength index over the last period
// changes. A flat series reads 50.
func rsi(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	var gains, losses float64
	n := len(closes)
	for i := 1; i <= period; i++ {
		change := closes[n-i] - closes[n-i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	var v float64
	switch {
	case gains == 0 && losses == 0:
		v = 50
	case losses == 0:
		v = 100
	default:
		rs := gains / losses
		v = money.Round2(100 - 100/(1+rs))
	}
	return &v
}

func trend(closes []float64) string {
	if len(closes) < 2 {
		return TrendNeutral
	}
	recent := closes
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	if recent[len(recent)-1] > recent[0] {
		return TrendUp
	}
	return TrendDown
}

func computeIndicators(closes []float64) Indicators {
	return Indicators{
		SMA20: sma(closes, smaPeriod),
		RSI14: rsi(closes, rsiPeriod),
		Trend: trend(closes),
	}
}

var (
	newsPositiveWords = []string{"growth", "profit", "rise", "increase", "expansion", "success", "strong", "bullish", "upgrade"}
	newsNegativeWords = []string{"loss", "decline", "fall", "drop", "crisis", "weak", "bearish", "downgrade", "scandal"}
)

// newsSentiment counts keyword occurrences per headline title
func newsSentiment(headlines []Headline) string {
	var positive, negative int
	for _, h := range headlines {
		title := strings.ToLower(h.Title)
		for _, w := range newsPositiveWords {
			if strings.Contains(title, w) {
				positive++
			}
		}
		for _, w := range newsNegativeWords {
			if strings.Contains(title, w) {
				negative++
			}
		}
	}
	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// recommend combines trend, RSI and news sentiment into a verdict. Each
// signal moves the confidence from a 0.5 base; the result is clamped to
// [0, 1].
func recommend(symbol string, ind Indicators, news []Headline) *Recommendation {
	action := ActionHold
	confidence := 0.5
	var reasoning []string

	switch ind.Trend {
	case TrendUp:
		reasoning = append(reasoning, "Strong upward trend detected in recent price movements")
		confidence += 0.2
	case TrendDown:
		reasoning = append(reasoning, "Downward trend observed in recent trading sessions")
		confidence -= 0.2
	default:
		reasoning = append(reasoning, "Price movement appears stable with no clear trend")
	}

	switch {
	case ind.RSI14 != nil && *ind.RSI14 < 30:
		reasoning = append(reasoning, "RSI indicates oversold conditions - potential buying opportunity")
		action = ActionBuy
		confidence += 0.3
	case ind.RSI14 != nil && *ind.RSI14 > 70:
		reasoning = append(reasoning, "RSI shows overbought levels - consider taking profits")
		action = ActionSell
		confidence += 0.3
	default:
		reasoning = append(reasoning, "RSI in neutral zone suggesting balanced market conditions")
	}

	sentiment := newsSentiment(news)
	switch sentiment {
	case SentimentPositive:
		reasoning = append(reasoning, "Recent news coverage is predominantly positive")
		if action == ActionHold {
			action = ActionBuy
		}
		confidence += 0.15
	case SentimentNegative:
		reasoning = append(reasoning, "News sentiment appears cautious or negative")
		if action == ActionHold {
			action = ActionSell
		}
		confidence -= 0.15
	default:
		reasoning = append(reasoning, "News coverage shows mixed or neutral sentiment")
	}

	switch {
	case action == ActionBuy && confidence > 0.7:
		reasoning = append(reasoning, "Strong buy signal: technicals and news align for potential upside")
	case action == ActionSell && confidence > 0.7:
		reasoning = append(reasoning, "Consider selling: multiple indicators suggest caution")
	case action == ActionHold:
		reasoning = append(reasoning, "Hold position: wait for clearer market signals before action")
	}

	return &Recommendation{
		Stock:          symbol,
		Recommendation: action,
		Confidence:     money.Round2(clamp01(confidence)),
		Reasoning:      reasoning,
		Indicators:     ind,
		News:           news,
		NewsSentiment:  sentiment,
	}
}
