package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/metrics"
	"github.com/codyseavey/card-flip-checker/internal/models"
)

const (
	// EbayFeeRate is eBay's final value fee (12.55%)
	EbayFeeRate = 0.1255
	// DefaultShippingCost assumes a standard envelope
	DefaultShippingCost = 0.55

	recentSalesWindow = 7 * 24 * time.Hour
	recentSalesLimit  = 5
	saleDateLayout    = "2006-01-02 15:04:05"
)

var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// ItemFinder looks up marketplace listings by keywords
type ItemFinder interface {
	FindItems(ctx context.Context, keywords string) ([]EbayItem, error)
}

// MarketService turns marketplace listings into MarketStats
type MarketService struct {
	finder ItemFinder
	cache  *expirable.LRU[string, models.MarketStats]
	now    func() time.Time
	logger *zap.Logger
}

// NewMarketService creates a market service. A cacheSize of 0 disables caching.
func NewMarketService(finder ItemFinder, cacheSize int, cacheTTL time.Duration, logger *zap.Logger) *MarketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MarketService{
		finder: finder,
		now:    time.Now,
		logger: logger.Named("market"),
	}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, models.MarketStats](cacheSize, nil, cacheTTL)
	}
	return s
}

// SanitizeKeywords strips everything but word characters and whitespace
func SanitizeKeywords(keywords string) string {
	return strings.TrimSpace(nonWordRegex.ReplaceAllString(keywords, ""))
}

// Search returns market stats for cardName, stamped with the caller's page
// price, along with a human-readable analysis.
func (s *MarketService) Search(ctx context.Context, cardName string, pagePrice float64) (*models.MarketStats, string, error) {
	keywords := SanitizeKeywords(cardName)
	s.logger.Info("Searching eBay", zap.String("keywords", keywords))

	stats, err := s.lookup(ctx, keywords)
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("failed").Inc()
		return nil, "", err
	}

	stats.CardName = cardName
	stats.PagePrice = pagePrice
	metrics.LookupsTotal.WithLabelValues("success").Inc()
	return &stats, BuildAnalysis(&stats), nil
}

func (s *MarketService) lookup(ctx context.Context, keywords string) (models.MarketStats, error) {
	key := strings.ToLower(keywords)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			metrics.MarketCacheHits.Inc()
			return cached, nil
		}
		metrics.MarketCacheMisses.Inc()
	}

	items, err := s.finder.FindItems(ctx, keywords)
	if err != nil {
		return models.MarketStats{}, err
	}

	stats, err := ComputeStats(items, s.now())
	if err != nil {
		s.logger.Warn("No valid prices found", zap.String("keywords", keywords))
		return models.MarketStats{}, err
	}

	if s.cache != nil {
		s.cache.Add(key, stats)
	}
	return stats, nil
}

// ComputeStats aggregates listing prices: average, median (upper middle),
// range, count, estimated fees on the average, and sales velocity from
// listings that ended within the last week.
func ComputeStats(items []EbayItem, now time.Time) (models.MarketStats, error) {
	var prices []float64
	var recent []models.RecentSale
	weekAgo := now.UTC().Add(-recentSalesWindow)

	for _, item := range items {
		price, ok := item.Price()
		if !ok {
			continue
		}
		prices = append(prices, price)

		if ended, ok := item.Ended(); ok && ended.After(weekAgo) {
			title := item.Title
			if title == "" {
				title = "Unknown"
			}
			recent = append(recent, models.RecentSale{
				Price: price,
				Date:  ended.Format(saleDateLayout),
				Title: title,
			})
		}
	}

	if len(prices) == 0 {
		return models.MarketStats{}, &SearchError{Kind: SearchErrNoValidData, Details: "No valid price data found"}
	}

	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	avg := sum / float64(len(prices))

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > recentSalesLimit {
		recent = recent[:recentSalesLimit]
	}

	return models.MarketStats{
		AveragePrice:  models.Float64Ptr(avg),
		MedianPrice:   models.Float64Ptr(sorted[len(sorted)/2]),
		LowestPrice:   models.Float64Ptr(sorted[0]),
		HighestPrice:  models.Float64Ptr(sorted[len(sorted)-1]),
		NumListings:   models.IntPtr(len(prices)),
		EstimatedFees: models.Float64Ptr(EstimateEbayFees(avg)),
		SalesVelocity: models.Float64Ptr(float64(len(recent)) / 7),
		RecentSales:   recent,
	}, nil
}

// EstimateEbayFees returns the final value fee on price
func EstimateEbayFees(price float64) float64 {
	return price * EbayFeeRate
}

// FormatPrice renders an optional price as "$1.23" or "N/A"
func FormatPrice(price *float64) string {
	if price == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *price)
}

// BuildAnalysis renders the plain-text market summary returned by /search
func BuildAnalysis(stats *models.MarketStats) string {
	var avg, fees float64
	if stats.AveragePrice != nil {
		avg = *stats.AveragePrice
	}
	if stats.EstimatedFees != nil {
		fees = *stats.EstimatedFees
	}
	result := Recalculate(NewProfitInputs(stats.PagePrice, avg, fees, DefaultShippingCost))
	profit, _ := result.Profit.Float64()

	listings := "N/A"
	if stats.NumListings != nil {
		listings = fmt.Sprintf("%d", *stats.NumListings)
	}
	velocity := "N/A"
	if stats.SalesVelocity != nil {
		velocity = fmt.Sprintf("%.2f", *stats.SalesVelocity)
	}

	var sales []string
	for _, sale := range stats.RecentSales {
		sales = append(sales, fmt.Sprintf("$%.2f on %s", sale.Price, sale.Date))
	}
	recentSales := "No recent sales data available"
	if len(sales) > 0 {
		recentSales = strings.Join(sales, "\n    ")
	}

	cardName := stats.CardName
	if cardName == "" {
		cardName = "Unknown"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nCard: %s\n\n", cardName)
	sb.WriteString("Current Market:\n")
	fmt.Fprintf(&sb, "  Page Price: %s\n", FormatPrice(&stats.PagePrice))
	fmt.Fprintf(&sb, "  eBay Average: %s\n", FormatPrice(stats.AveragePrice))
	fmt.Fprintf(&sb, "  eBay Median: %s\n", FormatPrice(stats.MedianPrice))
	fmt.Fprintf(&sb, "  eBay Range: %s - %s\n\n", FormatPrice(stats.LowestPrice), FormatPrice(stats.HighestPrice))
	sb.WriteString("Profit Analysis:\n")
	fmt.Fprintf(&sb, "  Estimated eBay Fees: %s\n", FormatPrice(stats.EstimatedFees))
	fmt.Fprintf(&sb, "  Estimated Shipping: $%.2f\n", DefaultShippingCost)
	fmt.Fprintf(&sb, "  Potential Profit: %s\n", FormatPrice(&profit))
	fmt.Fprintf(&sb, "  ROI: %s\n\n", result.ROI)
	sb.WriteString("Market Insights:\n")
	fmt.Fprintf(&sb, "  Number of Listings: %s\n", listings)
	fmt.Fprintf(&sb, "  Estimated Sales/Day: %s\n", velocity)
	fmt.Fprintf(&sb, "  Market Saturation: %s\n\n", stats.Saturation())
	sb.WriteString("Recent Sales:\n")
	fmt.Fprintf(&sb, "    %s\n", recentSales)
	return sb.String()
}
