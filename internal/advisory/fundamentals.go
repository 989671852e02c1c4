package advisory

import "github.com/ksred/papertrade-api/internal/market"

const (
	RatingExcellent = "Excellent"
	RatingStrong    = "Strong"
	RatingGood      = "Good"
	RatingAverage   = "Average"
	RatingWeak      = "Weak"
)

// FundamentalAnalysis scores a company's financial health from 0 to 100
type FundamentalAnalysis struct {
	Stock       string            `json:"stock"`
	HealthScore int               `json:"healthScore"`
	Rating      string            `json:"rating"`
	Insights    []string          `json:"insights"`
	Financials  market.Financials `json:"financials"`
}

func healthScore(f market.Financials) int {
	score := 50

	if f.RevenueCr > 0 {
		score += 10
	}

	if f.RevenueCr > 0 && f.NetIncomeCr != 0 {
		margin := f.NetIncomeCr / f.RevenueCr
		switch {
		case margin > 0.1:
			score += 15
		case margin > 0:
			score += 5
		}
	}

	// Instruments without a balance sheet carry no leverage data
	if f.RevenueCr > 0 {
		switch {
		case f.DebtToEquity < 0.5:
			score += 15
		case f.DebtToEquity < 1:
			score += 10
		default:
			score -= 10
		}
	}

	switch {
	case f.ReturnOnEquity > 0.15:
		score += 15
	case f.ReturnOnEquity > 0.1:
		score += 10
	}

	if f.EPS > 0 {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func rating(score int) string {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 70:
		return RatingStrong
	case score >= 60:
		return RatingGood
	case score >= 50:
		return RatingAverage
	default:
		return RatingWeak
	}
}

func insights(f market.Financials) []string {
	var out []string
	if f.RevenueCr > 0 {
		out = append(out, "Consistent revenue growth")
	}
	if f.NetIncomeCr > 0 {
		out = append(out, "Profitable operations")
	}
	if f.RevenueCr > 0 && f.DebtToEquity < 0.5 {
		out = append(out, "Low debt ratio")
	}
	if f.ReturnOnEquity > 0.15 {
		out = append(out, "High return on equity")
	}
	if f.EPS > 0 {
		out = append(out, "Positive earnings per share")
	}
	if len(out) == 0 {
		out = append(out, "Limited fundamental data available")
	}
	return out
}

func analyzeFundamentals(symbol string, f market.Financials) *FundamentalAnalysis {
	score := healthScore(f)
	return &FundamentalAnalysis{
		Stock:       symbol,
		HealthScore: score,
		Rating:      rating(score),
		Insights:    insights(f),
		Financials:  f,
	}
}
