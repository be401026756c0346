package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

// DefaultPricingURL is the pricing server the checker talks to
const DefaultPricingURL = "http://localhost:8080"

const networkErrorMessage = "Network or parsing error"

// LookupFailure is a lookup that could not produce market stats.
// Both fields are meant for display.
type LookupFailure struct {
	Message string `json:"error"`
	Details string `json:"details"`
}

// LookupResult is either Stats (with the server's Analysis) or Failure
type LookupResult struct {
	CardName string
	Stats    *models.MarketStats
	Analysis string
	Failure  *LookupFailure
}

// OK reports whether the lookup produced stats
func (r LookupResult) OK() bool {
	return r.Failure == nil && r.Stats != nil
}

// PricingClient asks the pricing server for market statistics.
// One attempt per call: no retry, no client-side timeout.
type PricingClient struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewPricingClient creates a pricing client for baseURL
func NewPricingClient(baseURL string, logger *zap.Logger) *PricingClient {
	if baseURL == "" {
		baseURL = DefaultPricingURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingClient{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("pricing"),
	}
}

// searchEnvelope tolerates both the {success,data} envelope and a bare
// MarketStats body
type searchEnvelope struct {
	Success  *bool           `json:"success"`
	Data     json.RawMessage `json:"data"`
	Analysis string          `json:"analysis"`
	Error    string          `json:"error"`
	Details  string          `json:"details"`
}

// FetchMarketStats performs one lookup. It never returns an error: every
// failure is reported through LookupResult.Failure.
func (c *PricingClient) FetchMarketStats(ctx context.Context, cardName string, pagePrice float64) LookupResult {
	result := LookupResult{CardName: cardName}

	params := url.Values{}
	params.Set("card_name", cardName)
	params.Set("page_price", strconv.FormatFloat(pagePrice, 'f', -1, 64))
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return c.networkFailure(result, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.networkFailure(result, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.networkFailure(result, fmt.Errorf("failed to read response: %w", err))
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.networkFailure(result, fmt.Errorf("failed to decode response: %w", err))
	}

	succeeded := env.Success != nil && *env.Success
	if !succeeded && (env.Success != nil || env.Error != "") {
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		c.logger.Warn("Pricing server reported failure",
			zap.String("card", cardName), zap.String("error", msg), zap.String("details", env.Details))
		result.Failure = &LookupFailure{Message: msg, Details: env.Details}
		return result
	}

	if !succeeded && resp.StatusCode != http.StatusOK {
		return c.networkFailure(result, fmt.Errorf("pricing server error: status %d", resp.StatusCode))
	}

	payload := body
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		payload = env.Data
	}
	var stats models.MarketStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return c.networkFailure(result, fmt.Errorf("failed to decode market stats: %w", err))
	}
	if stats.CardName == "" {
		stats.CardName = cardName
	}

	result.Stats = &stats
	result.Analysis = env.Analysis
	c.logger.Debug("Lookup succeeded", zap.String("card", cardName), zap.Any("stats", stats))
	return result
}

func (c *PricingClient) networkFailure(result LookupResult, err error) LookupResult {
	c.logger.Error("Error fetching or parsing data", zap.String("card", result.CardName), zap.Error(err))
	result.Failure = &LookupFailure{Message: networkErrorMessage, Details: err.Error()}
	return result
}
