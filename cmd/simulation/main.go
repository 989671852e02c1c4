package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/papertrade-api/internal/cache"
	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/database"
	"github.com/ksred/papertrade-api/internal/market"
	"github.com/ksred/papertrade-api/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	numTraders      = 5
	minOrders       = 10
	maxOrders       = 60
	initialBalance  = 500000.0
	requestTimeout  = 10 * time.Second
	simulationEmail = "trader-%s@simulation.local"
)

var (
	symbols = []string{"INFY", "TCS", "RELIANCE", "HDFCBANK", "M_M", "ITC"}
	sides   = []string{"BUY", "SELL"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	mu         sync.Mutex
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

func (rs *routeStats) record(d time.Duration, failed bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
	if failed {
		rs.failures++
	}
}

// calculate computes min, max, mean, median, p95 and p99 durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// simulationClient drives the trading API over HTTP
type simulationClient struct {
	baseURL string
	client  *http.Client
	stats   map[string]*routeStats
}

func newSimulationClient(baseURL string) *simulationClient {
	return &simulationClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		stats: map[string]*routeStats{
			"signup":    {name: "Signup"},
			"quote":     {name: "Market Quote"},
			"execute":   {name: "Execute Trade"},
			"portfolio": {name: "Portfolio"},
			"dashboard": {name: "Dashboard"},
		},
	}
}

// call sends one request and decodes the envelope. HTTP 4xx responses are
// returned with their envelope and no error.
func (sc *simulationClient) call(route, method, path, token string, body interface{}) (int, *envelope, error) {
	start := time.Now()
	status := 0
	defer func() {
		sc.stats[route].record(time.Since(start), status == 0 || status >= http.StatusInternalServerError)
	}()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("route", route).Str("response", string(respBody)).Msg("API response")

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return status, nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	if status >= http.StatusInternalServerError {
		return status, &env, fmt.Errorf("%s failed with status %d: %s", route, status, env.Message)
	}
	return status, &env, nil
}

// signup creates a fresh trader and returns its token
func (sc *simulationClient) signup() (string, error) {
	id := uuid.New().String()[:8]
	status, env, err := sc.call("signup", http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    fmt.Sprintf(simulationEmail, id),
		"password": "simulation",
		"username": "trader-" + id,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("signup failed with status %d: %s", status, env.Message)
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		return "", err
	}
	return session.Token, nil
}

func (sc *simulationClient) quote(token, symbol string) (float64, error) {
	status, env, err := sc.call("quote", http.MethodGet, "/api/market/"+symbol, token, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("quote failed with status %d: %s", status, env.Message)
	}

	var q market.Quote
	if err := json.Unmarshal(env.Data, &q); err != nil {
		return 0, err
	}
	return q.LivePrice, nil
}

// simulationStats aggregates trade outcomes across traders
type simulationStats struct {
	mu         sync.Mutex
	executed   int
	rejected   int
	failed     int
	totalValue float64
	symbols    map[string]int
	sides      map[string]int
	reasons    map[string]int
}

func (s *simulationStats) add(symbol, side string, status int, message string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case status == http.StatusOK:
		s.executed++
		s.totalValue += value
		s.symbols[symbol]++
		s.sides[side]++
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		s.rejected++
		s.reasons[message]++
	default:
		s.failed++
	}
}

// trade runs numOrders random orders for one trader
func trade(workerID, numOrders int, sc *simulationClient, token string, stats *simulationStats) {
	logger := log.With().Int("worker_id", workerID).Logger()

	for i := 0; i < numOrders; i++ {
		symbol := symbols[rand.Intn(len(symbols))]
		side := sides[rand.Intn(len(sides))]
		quantity := rand.Intn(20) + 1

		price, err := sc.quote(token, symbol)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch quote")
			stats.add(symbol, side, 0, "", 0)
			continue
		}

		status, env, err := sc.call("execute", http.MethodPost, "/api/trades/execute", token, map[string]interface{}{
			"symbol":   symbol,
			"type":     side,
			"quantity": quantity,
			"price":    price,
		})
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to execute trade")
			stats.add(symbol, side, status, "", 0)
			continue
		}
		stats.add(symbol, side, status, env.Message, price*float64(quantity))

		logger.Info().
			Str("symbol", symbol).
			Str("side", side).
			Int("quantity", quantity).
			Float64("price", price).
			Int("status", status).
			Str("message", env.Message).
			Msg("Trade submitted")

		// Random sleep between orders
		time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
	}

	if _, _, err := sc.call("portfolio", http.MethodGet, "/api/portfolio", token, nil); err != nil {
		logger.Error().Err(err).Msg("Failed to load portfolio")
	}
	if _, _, err := sc.call("dashboard", http.MethodGet, "/api/dashboard/summary", token, nil); err != nil {
		logger.Error().Err(err).Msg("Failed to load dashboard")
	}
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, key := range []string{"signup", "quote", "execute", "portfolio", "dashboard"} {
		stats := sc.stats[key]
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

func printDistribution(title string, counts map[string]int) {
	fmt.Printf("\n%s\n%s\n", title, strings.Repeat("-", len(title)))

	maxCount := 0
	keys := make([]string, 0, len(counts))
	for k, count := range counts {
		keys = append(keys, k)
		if count > maxCount {
			maxCount = count
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		barLength := int(float64(counts[k]) / float64(maxCount) * 20)
		fmt.Printf("%-40s: %s (%d)\n", k, strings.Repeat("#", barLength), counts[k])
	}
}

// startServer runs the API in-process on a random local port against an
// in-memory database
func startServer() (string, error) {
	cfg, err := config.Load("")
	if err != nil {
		return "", err
	}
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: "file:simulation?mode=memory&cache=shared"}
	cfg.Trading.InitialBalance = initialBalance
	cfg.Server.RateLimit = false
	cfg.Payments.SuccessRate = 1

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return "", fmt.Errorf("failed to initialize database: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return "", err
	}
	services, err := server.NewServices(cfg, db, market.NewProvider(market.WithLocation(loc)), cache.NewMemory())
	if err != nil {
		return "", err
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(cfg.Server, services)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	go func() {
		if err := http.Serve(listener, router); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	return "http://" + listener.Addr().String(), nil
}

// main runs the trading simulation against an in-process API server
func main() {
	baseURL, err := startServer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	sc := newSimulationClient(baseURL)
	stats := &simulationStats{
		symbols: make(map[string]int),
		sides:   make(map[string]int),
		reasons: make(map[string]int),
	}
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < numTraders; i++ {
		token, err := sc.signup()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign up trader")
		}

		numOrders := rand.Intn(maxOrders-minOrders) + minOrders
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			trade(workerID, numOrders, sc, token, stats)
		}(i)
	}
	wg.Wait()

	duration := time.Since(start)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TRADING SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf(`
Traders:          %d
Executed:         %d
Rejected:         %d
Failed:           %d
Total Value:      %.2f
Duration:         %v
`, numTraders, stats.executed, stats.rejected, stats.failed, stats.totalValue, duration.Round(time.Millisecond))

	printDistribution("Symbol Distribution", stats.symbols)
	printDistribution("Side Distribution", stats.sides)
	printDistribution("Rejection Reasons", stats.reasons)
	fmt.Println("\n" + strings.Repeat("=", 80))

	total := stats.executed + stats.rejected + stats.failed
	successRate := 0.0
	if total > 0 {
		successRate = float64(stats.executed) / float64(total) * 100
	}
	log.Info().
		Float64("success_rate", successRate).
		Int("executed", stats.executed).
		Int("rejected", stats.rejected).
		Float64("total_value", stats.totalValue).
		Dur("duration", duration).
		Msg("Simulation completed")

	sc.printPerformanceStats()
}
