package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/codyseavey/card-flip-checker/internal/metrics"
)

const (
	ebayFindingURL       = "https://svcs.ebay.com/services/search/FindingService/v1"
	ebayFindingNamespace = "http://www.ebay.com/marketplace/search/v1/services"
	ebayDefaultTimeout   = 15 * time.Second

	// PokemonCardCategoryID is eBay's "Pokémon Individual Cards" category
	PokemonCardCategoryID = "183454"
	ebayEntriesPerPage    = 100
	ebayEndTimeLayout     = "2006-01-02T15:04:05.000Z"
)

// ErrQuotaExceeded is returned once the daily eBay call budget is spent
var ErrQuotaExceeded = errors.New("eBay daily request limit exceeded")

// Search failure kinds, shown to the user as the error headline
const (
	SearchErrXMLParse    = "XML Parsing error"
	SearchErrAPI         = "eBay API error"
	SearchErrNoResults   = "No results"
	SearchErrNoValidData = "No valid data"
	SearchErrConnection  = "eBay API Connection error"
	SearchErrRateLimited = "Rate limit exceeded"
	SearchErrUnexpected  = "Unexpected error"
)

// SearchError is a search failure carrying a headline and details
type SearchError struct {
	Kind    string
	Details string
	Err     error
}

func (e *SearchError) Error() string {
	return e.Kind + ": " + e.Details
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// EbayItem is the subset of a Finding API item the market stats need
type EbayItem struct {
	Title        string `xml:"title"`
	CurrentPrice string `xml:"sellingStatus>currentPrice"`
	EndTime      string `xml:"listingInfo>endTime"`
}

type findItemsAdvancedRequest struct {
	XMLName         xml.Name         `xml:"findItemsAdvancedRequest"`
	Xmlns           string           `xml:"xmlns,attr"`
	Keywords        string           `xml:"keywords"`
	CategoryID      string           `xml:"categoryId"`
	ItemFilters     []ebayItemFilter `xml:"itemFilter"`
	SortOrder       string           `xml:"sortOrder"`
	PaginationInput struct {
		EntriesPerPage int `xml:"entriesPerPage"`
	} `xml:"paginationInput"`
}

type ebayItemFilter struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type findItemsAdvancedResponse struct {
	Ack          string `xml:"ack"`
	ErrorMessage struct {
		Errors []struct {
			Message string `xml:"message"`
		} `xml:"error"`
	} `xml:"errorMessage"`
	SearchResult struct {
		Items []EbayItem `xml:"item"`
	} `xml:"searchResult"`
}

// EbayFindingService calls the eBay Finding API for active listings
type EbayFindingService struct {
	client     *http.Client
	appID      string
	endpoint   string
	limiter    *rate.Limiter
	dailyLimit int
	logger     *zap.Logger

	mu             sync.Mutex
	requestsToday  int
	lastRequestDay time.Time
}

// NewEbayFindingService creates a Finding API client. rps bounds the call
// rate; dailyLimit bounds calls per local calendar day.
func NewEbayFindingService(appID, endpoint string, rps float64, dailyLimit int, logger *zap.Logger) *EbayFindingService {
	if endpoint == "" {
		endpoint = ebayFindingURL
	}
	if rps <= 0 {
		rps = 1
	}
	if dailyLimit <= 0 {
		dailyLimit = 5000 // Finding API default allowance
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.EbayQuotaLimit.Set(float64(dailyLimit))
	metrics.EbayQuotaRemaining.Set(float64(dailyLimit))

	return &EbayFindingService{
		client:     &http.Client{Timeout: ebayDefaultTimeout},
		appID:      appID,
		endpoint:   endpoint,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		dailyLimit: dailyLimit,
		logger:     logger.Named("ebay"),
	}
}

// checkDailyLimit reserves one request from today's budget
func (s *EbayFindingService) checkDailyLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Reset counter if new day
	if s.lastRequestDay.Before(today) {
		s.requestsToday = 0
		s.lastRequestDay = today
	}

	if s.requestsToday >= s.dailyLimit {
		return false
	}

	s.requestsToday++
	metrics.EbayQuotaRemaining.Set(float64(s.dailyLimit - s.requestsToday))
	return true
}

// GetRequestsRemaining returns the number of requests remaining today
func (s *EbayFindingService) GetRequestsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if s.lastRequestDay.Before(today) {
		return s.dailyLimit
	}

	remaining := s.dailyLimit - s.requestsToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetDailyLimit returns the configured daily limit
func (s *EbayFindingService) GetDailyLimit() int {
	return s.dailyLimit
}

// FindItems runs findItemsAdvanced for used cards in the Pokémon category,
// soonest-ending first, one page of 100.
func (s *EbayFindingService) FindItems(ctx context.Context, keywords string) ([]EbayItem, error) {
	if !s.checkDailyLimit() {
		return nil, &SearchError{Kind: SearchErrRateLimited, Details: ErrQuotaExceeded.Error(), Err: ErrQuotaExceeded}
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &SearchError{Kind: SearchErrConnection, Details: err.Error(), Err: err}
	}

	reqBody := findItemsAdvancedRequest{
		Xmlns:       ebayFindingNamespace,
		Keywords:    keywords,
		CategoryID:  PokemonCardCategoryID,
		ItemFilters: []ebayItemFilter{{Name: "Condition", Value: "Used"}},
		SortOrder:   "EndTimeSoonest",
	}
	reqBody.PaginationInput.EntriesPerPage = ebayEntriesPerPage

	payload, err := xml.Marshal(reqBody)
	if err != nil {
		return nil, &SearchError{Kind: SearchErrUnexpected, Details: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, &SearchError{Kind: SearchErrUnexpected, Details: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("X-EBAY-SOA-OPERATION-NAME", "findItemsAdvanced")
	req.Header.Set("X-EBAY-SOA-SERVICE-VERSION", "1.13.0")
	req.Header.Set("X-EBAY-SOA-SECURITY-APPNAME", s.appID)
	req.Header.Set("X-EBAY-SOA-GLOBAL-ID", "EBAY-US")
	req.Header.Set("X-EBAY-SOA-REQUEST-DATA-FORMAT", "XML")
	req.Header.Set("X-EBAY-SOA-RESPONSE-DATA-FORMAT", "XML")

	metrics.EbayRequestsTotal.Inc()
	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.EbayRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("eBay API connection error", zap.Error(err))
		return nil, &SearchError{Kind: SearchErrConnection, Details: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SearchError{Kind: SearchErrConnection, Details: err.Error(), Err: err}
	}
	s.logger.Debug("eBay API response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	return parseFindingResponse(body)
}

// parseFindingResponse checks the ack and returns the items of a
// findItemsAdvanced response
func parseFindingResponse(body []byte) ([]EbayItem, error) {
	var parsed findItemsAdvancedResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, &SearchError{Kind: SearchErrXMLParse, Details: err.Error(), Err: err}
	}

	if parsed.Ack == "" {
		return nil, &SearchError{Kind: SearchErrAPI, Details: "No acknowledgement in response"}
	}
	if parsed.Ack != "Success" {
		msg := "Unknown error"
		if errs := parsed.ErrorMessage.Errors; len(errs) > 0 && errs[0].Message != "" {
			msg = errs[0].Message
		}
		return nil, &SearchError{Kind: SearchErrAPI, Details: msg}
	}

	if len(parsed.SearchResult.Items) == 0 {
		return nil, &SearchError{Kind: SearchErrNoResults, Details: "No items found matching the search criteria"}
	}
	return parsed.SearchResult.Items, nil
}

// Price parses the item's current price; ok is false when it is missing
func (i EbayItem) Price() (float64, bool) {
	text := strings.TrimSpace(i.CurrentPrice)
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Ended parses the listing end time; ok is false when it is missing
func (i EbayItem) Ended() (time.Time, bool) {
	text := strings.TrimSpace(i.EndTime)
	if text == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(ebayEndTimeLayout, text)
	if err != nil {
		t, err = time.Parse(time.RFC3339, text)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t.UTC(), true
}
