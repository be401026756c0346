package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/card-flip-checker/internal/services"
)

type QuotaHandler struct {
	ebayService *services.EbayFindingService
}

func NewQuotaHandler(ebayService *services.EbayFindingService) *QuotaHandler {
	return &QuotaHandler{
		ebayService: ebayService,
	}
}

// QuotaStatus is the eBay API budget for today
type QuotaStatus struct {
	RequestsRemaining int `json:"requests_remaining"`
	DailyLimit        int `json:"daily_limit"`
}

// GetQuotaStatus returns the current eBay API quota status
func (h *QuotaHandler) GetQuotaStatus(c *gin.Context) {
	if h.ebayService == nil {
		c.JSON(http.StatusOK, QuotaStatus{})
		return
	}
	c.JSON(http.StatusOK, QuotaStatus{
		RequestsRemaining: h.ebayService.GetRequestsRemaining(),
		DailyLimit:        h.ebayService.GetDailyLimit(),
	})
}
