package market

import "github.com/ksred/papertrade-api/pkg/money"

// Financials is a synthetic annual statement for a listing. Net income is
// implied by market cap and P/E; the remaining ratios are repeatable per
// symbol. Values are in crores except the ratios.
type Financials struct {
	MarketCapCr    float64 `json:"marketCapCr"`
	PE             float64 `json:"pe"`
	EPS            float64 `json:"eps"`
	RevenueCr      float64 `json:"revenueCr"`
	NetIncomeCr    float64 `json:"netIncomeCr"`
	DebtToEquity   float64 `json:"debtToEquity"`
	ReturnOnEquity float64 `json:"returnOnEquity"`
}

// Financials returns the statement for symbol. Instruments without earnings
// (P/E of zero) report no revenue or income.
func (p *Provider) Financials(symbol string) (Financials, bool) {
	symbol = Normalize(symbol)
	l, ok := Lookup(symbol)
	if !ok {
		return Financials{}, false
	}

	f := Financials{MarketCapCr: l.MarketCapCr, PE: l.PE, EPS: l.EPS}
	if l.PE <= 0 {
		return f, true
	}

	seed := seedOf(symbol)
	margin := 0.04 + seededUnit(seed, 101)*0.22
	f.NetIncomeCr = money.Round2(l.MarketCapCr / l.PE)
	f.RevenueCr = money.Round2(f.NetIncomeCr / margin)
	f.DebtToEquity = money.Round2(seededUnit(seed, 202) * 1.4)
	f.ReturnOnEquity = money.Round2(0.06 + seededUnit(seed, 303)*0.22)
	return f, true
}
