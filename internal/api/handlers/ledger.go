package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/card-flip-checker/internal/models"
	"github.com/codyseavey/card-flip-checker/internal/services"
)

type LedgerHandler struct {
	ledger *services.Ledger
}

func NewLedgerHandler(ledger *services.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RecordProfitRequest is the body of POST /api/ledger/record
type RecordProfitRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

// GetToday returns today's running total
func (h *LedgerHandler) GetToday(c *gin.Context) {
	total, err := h.ledger.TodayTotal()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// RecordProfit adds a purchase's profit to today's total
func (h *LedgerHandler) RecordProfit(c *gin.Context) {
	var req RecordProfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	if math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a finite number"})
		return
	}

	total, err := h.ledger.RecordProfit(c.Request.Context(), *req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// GetHistory returns every recorded day
func (h *LedgerHandler) GetHistory(c *gin.Context) {
	entries, err := h.ledger.History()
	if err != nil {
		h.respondError(c, err)
		return
	}

	var total float64
	for _, e := range entries {
		total += e.Profit
	}
	c.JSON(http.StatusOK, models.LedgerHistoryResponse{Entries: entries, Total: total})
}

func (h *LedgerHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidAmount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, services.ErrLedgerNotLoaded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
