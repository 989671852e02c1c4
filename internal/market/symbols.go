package market

// Listing is the static reference data for one tradable symbol
type Listing struct {
	CompanyName string
	BasePrice   float64
	ChangePct   float64 // previous session change, informational
	PE          float64
	EPS         float64
	MarketCapCr float64 // market capitalisation in crores
}

var listings = map[string]Listing{
	"INFY":       {CompanyName: "Infosys", BasePrice: 1555.45, ChangePct: -1.6, PE: 28.4, EPS: 54.7, MarketCapCr: 645000},
	"RELIANCE":   {CompanyName: "Reliance Industries", BasePrice: 2112.4, ChangePct: 1.44, PE: 24.1, EPS: 87.1, MarketCapCr: 1875000},
	"TCS":        {CompanyName: "Tata Consultancy Services", BasePrice: 3194.8, ChangePct: -0.25, PE: 31.2, EPS: 102.4, MarketCapCr: 1165000},
	"WIPRO":      {CompanyName: "Wipro", BasePrice: 577.75, ChangePct: 0.32, PE: 21.8, EPS: 26.5, MarketCapCr: 318000},
	"HDFCBANK":   {CompanyName: "HDFC Bank", BasePrice: 1522.35, ChangePct: 0.11, PE: 19.2, EPS: 79.3, MarketCapCr: 1290000},
	"ICICIBANK":  {CompanyName: "ICICI Bank", BasePrice: 987.65, ChangePct: -0.85, PE: 18.6, EPS: 53.1, MarketCapCr: 702000},
	"HINDUNILVR": {CompanyName: "Hindustan Unilever", BasePrice: 2417.4, ChangePct: 0.21, PE: 61.4, EPS: 39.4, MarketCapCr: 571000},
	"ITC":        {CompanyName: "ITC", BasePrice: 207.9, ChangePct: 0.8, PE: 23.4, EPS: 8.9, MarketCapCr: 258000},
	"KOTAKBANK":  {CompanyName: "Kotak Mahindra Bank", BasePrice: 1789.25, ChangePct: -0.45, PE: 20.1, EPS: 88.9, MarketCapCr: 356000},
	"LT":         {CompanyName: "Larsen & Toubro", BasePrice: 3456.78, ChangePct: 2.15, PE: 33.4, EPS: 103.5, MarketCapCr: 474000},
	"BAJFINANCE": {CompanyName: "Bajaj Finance", BasePrice: 6789.12, ChangePct: 1.75, PE: 34.6, EPS: 196.2, MarketCapCr: 420000},
	"MARUTI":     {CompanyName: "Maruti Suzuki", BasePrice: 9876.54, ChangePct: -0.95, PE: 29.1, EPS: 339.4, MarketCapCr: 298000},
	"AXISBANK":   {CompanyName: "Axis Bank", BasePrice: 876.43, ChangePct: 0.65, PE: 14.2, EPS: 61.7, MarketCapCr: 270000},
	"M_M":        {CompanyName: "Mahindra & Mahindra", BasePrice: 779.8, ChangePct: -0.01, PE: 22.6, EPS: 34.1, MarketCapCr: 97000},
	"NTPC":       {CompanyName: "NTPC", BasePrice: 234.56, ChangePct: -0.35, PE: 13.8, EPS: 17.0, MarketCapCr: 228000},
	"POWERGRID":  {CompanyName: "Power Grid Corporation", BasePrice: 312.45, ChangePct: 0.75, PE: 14.5, EPS: 21.6, MarketCapCr: 289000},
	"ONGC":       {CompanyName: "ONGC", BasePrice: 116.8, ChangePct: -0.09, PE: 7.8, EPS: 15.2, MarketCapCr: 147000},
	"COALINDIA":  {CompanyName: "Coal India", BasePrice: 445.67, ChangePct: 1.25, PE: 8.7, EPS: 51.2, MarketCapCr: 275000},
	"TATAMOTORS": {CompanyName: "Tata Motors", BasePrice: 678.9, ChangePct: -2.15, PE: 16.1, EPS: 42.2, MarketCapCr: 250000},
	"SUNPHARMA":  {CompanyName: "Sun Pharma", BasePrice: 1234.56, ChangePct: 0.95, PE: 36.2, EPS: 34.1, MarketCapCr: 297000},
	"SBIN":       {CompanyName: "State Bank of India", BasePrice: 430.2, ChangePct: -0.34, PE: 11.1, EPS: 38.7, MarketCapCr: 385000},
	"BHARTIARTL": {CompanyName: "Bharti Airtel", BasePrice: 541.15, ChangePct: 2.99, PE: 52.3, EPS: 10.6, MarketCapCr: 305000},
	"KPITTECH":   {CompanyName: "KPIT Technologies", BasePrice: 266.45, ChangePct: 3.54, PE: 66.5, EPS: 4.0, MarketCapCr: 73000},
	"SGBMAY29":   {CompanyName: "SGB May 2029", BasePrice: 4719.0, ChangePct: 0.15, PE: 0, EPS: 0, MarketCapCr: 12000},
	"TATAPOWER":  {CompanyName: "Tata Power", BasePrice: 124.15, ChangePct: -0.24, PE: 24.7, EPS: 5.0, MarketCapCr: 39600},
	"EVEREADY":   {CompanyName: "Eveready Industries", BasePrice: 312.35, ChangePct: -1.24, PE: 31.8, EPS: 9.8, MarketCapCr: 2300},
	"JUBLFOOD":   {CompanyName: "Jubilant FoodWorks", BasePrice: 3082.65, ChangePct: -1.35, PE: 95.3, EPS: 32.4, MarketCapCr: 203000},
}

// Lookup returns the listing for an already normalized symbol
func Lookup(symbol string) (Listing, bool) {
	l, ok := listings[symbol]
	return l, ok
}
