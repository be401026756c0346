package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// LookupService runs one end-to-end price check: load the page, detect its
// price, then ask the pricing server.
type LookupService struct {
	source   PageSource
	detector *PriceDetector
	client   *PricingClient
	logger   *zap.Logger
}

// NewLookupService creates a lookup service. source may be nil when lookups
// never carry a page.
func NewLookupService(source PageSource, detector *PriceDetector, client *PricingClient, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		source:   source,
		detector: detector,
		client:   client,
		logger:   logger.Named("lookup"),
	}
}

// DetectPagePrice loads target and returns its detected price. Any failure
// to load the page degrades to 0.
func (s *LookupService) DetectPagePrice(ctx context.Context, target string) float64 {
	if target == "" || s.source == nil {
		return 0
	}
	doc, err := s.source.Fetch(ctx, target)
	if err != nil {
		s.logger.Warn("Could not load page, using price 0", zap.String("page", target), zap.Error(err))
		return 0
	}
	return s.detector.DetectPrice(doc)
}

// Lookup checks prices for the trimmed card name against the page at target
func (s *LookupService) Lookup(ctx context.Context, cardName, target string) LookupResult {
	cardName = strings.TrimSpace(cardName)
	pagePrice := s.DetectPagePrice(ctx, target)
	s.logger.Info("Page price detected", zap.String("card", cardName), zap.Float64("price", pagePrice))
	return s.client.FetchMarketStats(ctx, cardName, pagePrice)
}
