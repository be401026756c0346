package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/models"
	"github.com/codyseavey/card-flip-checker/internal/services"
)

type SearchHandler struct {
	marketService *services.MarketService
	logger        *zap.Logger
}

func NewSearchHandler(marketService *services.MarketService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		marketService: marketService,
		logger:        logger.Named("search"),
	}
}

// Home is the liveness banner
func (h *SearchHandler) Home(c *gin.Context) {
	c.String(http.StatusOK, "Pokemon Card Price Checker API is running!")
}

// Search returns market stats for card_name. Lookup failures are reported
// with 200 and success=false so that the caller always has something to show.
func (h *SearchHandler) Search(c *gin.Context) {
	cardName := c.Query("card_name")

	pagePrice := 0.0
	if raw := c.Query("page_price"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page price"})
			return
		}
		if !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
			pagePrice = parsed
		}
	}

	stats, analysis, err := h.marketService.Search(c.Request.Context(), cardName, pagePrice)
	if err != nil {
		resp := models.SearchResponse{Success: false, Error: "Unexpected error", Details: err.Error()}
		var searchErr *services.SearchError
		if errors.As(err, &searchErr) {
			resp.Error = searchErr.Kind
			resp.Details = searchErr.Details
		}
		h.logger.Warn("Search failed",
			zap.String("card", cardName), zap.String("error", resp.Error), zap.String("details", resp.Details))
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, models.SearchResponse{
		Success:  true,
		Data:     stats,
		Analysis: analysis,
	})
}
