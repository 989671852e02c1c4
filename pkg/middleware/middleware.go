package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/auth"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limitRule struct {
	prefix string
	limit  rate.Limit
	burst  int
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.RWMutex

	// Configure limits per endpoint type, first matching prefix wins
	rules = []limitRule{
		{prefix: "/auth", limit: rate.Limit(10.0 / 60.0), burst: 5},         // 10 requests per minute
		{prefix: "/api/trades", limit: rate.Limit(100.0 / 60.0), burst: 20}, // 100 requests per minute
		{prefix: "/api/payments", limit: rate.Limit(30.0 / 60.0), burst: 5}, // 30 requests per minute
		{prefix: "/api/ai", limit: rate.Limit(60.0 / 60.0), burst: 10},      // 60 requests per minute
		{prefix: "/api", limit: rate.Limit(1000.0 / 60.0), burst: 100},      // 1000 requests per minute
	}
)

// Cleanup old visitors periodically
func init() {
	go cleanupVisitors()
}

func getLimiter(path, clientIP string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	key := clientIP + ":" + path
	v, exists := visitors[key]

	if !exists {
		limit, burst := rate.Inf, 1 // No limit for other paths
		for _, r := range rules {
			if strings.HasPrefix(path, r.prefix) {
				limit, burst = r.limit, r.burst
				break
			}
		}

		v = &visitor{
			limiter:  rate.NewLimiter(limit, burst),
			lastSeen: time.Now(),
		}
		visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimit throttles requests per client IP and route
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := getLimiter(c.FullPath(), c.ClientIP())
		if !limiter.Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// JWTAuth resolves the session token from the cookie or a bearer header and
// stores the user on the context
func JWTAuth(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := service.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		auth.SetUser(c, user)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
		return cookie
	}

	bearerToken := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(bearerToken) == 2 && strings.EqualFold(bearerToken[0], "bearer") {
		return strings.TrimSpace(bearerToken[1])
	}
	return ""
}

// CORS allows credentialed requests from the configured origins. A "*" entry
// allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Uint("user_id", auth.UserID(c)).
			Msg("request")
	}
}
