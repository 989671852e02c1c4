package market

import (
	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/pkg/response"
)

// GinHandlers contains HTTP handlers for market data endpoints
type GinHandlers struct {
	provider *Provider
}

func NewGinHandlers(provider *Provider) *GinHandlers {
	return &GinHandlers{provider: provider}
}

// ListSymbolsHandler handles GET /api/market
func (h *GinHandlers) ListSymbolsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.provider.Symbols())
	}
}

// SnapshotHandler handles GET /api/market/:symbol
func (h *GinHandlers) SnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, ok := h.provider.Snapshot(c.Param("symbol"))
		if !ok {
			response.NotFound(c, "Stock symbol not found.")
			return
		}
		response.Success(c, snapshot)
	}
}
