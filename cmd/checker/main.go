// Command checker looks up market prices for a card against a product page
// and opens the interactive profit panel.
//
//	checker -page https://shop.example/charizard "Charizard VMAX"
//	checker -page ./saved.html -detect
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/config"
	"github.com/codyseavey/card-flip-checker/internal/logging"
	"github.com/codyseavey/card-flip-checker/internal/services"
	"github.com/codyseavey/card-flip-checker/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	page := flag.String("page", "", "product page URL or saved HTML file to detect the price from")
	detectOnly := flag.Bool("detect", false, "print the detected page price and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The panel owns the terminal, so logs only go to the file
	logCfg := logging.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	logCfg.Console = false
	logger := logging.New(logCfg)
	defer logging.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := services.NewPageSource(cfg.PageRenderer, logger)
	detector := services.NewPriceDetector(logger)
	client := services.NewPricingClient(cfg.PricingURL, logger)
	lookups := services.NewLookupService(source, detector, client, logger)

	if *detectOnly {
		fmt.Printf("%.2f\n", lookups.DetectPagePrice(ctx, *page))
		return
	}

	cardName := strings.TrimSpace(strings.Join(flag.Args(), " "))
	ledger := services.NewLedger(services.NewFileLedgerStore(cfg.LedgerFile), logger)

	lookup := func(ctx context.Context, name string) services.LookupResult {
		return lookups.Lookup(ctx, name, *page)
	}
	panel := ui.NewPanel(ctx, cardName, lookup, ledger, cfg.ShippingDefault, logger)

	if _, err := tea.NewProgram(panel, tea.WithContext(ctx)).Run(); err != nil {
		logger.Error("Panel exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "checker: %v\n", err)
		os.Exit(1)
	}
}
