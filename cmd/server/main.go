package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codyseavey/card-flip-checker/internal/api"
	"github.com/codyseavey/card-flip-checker/internal/config"
	"github.com/codyseavey/card-flip-checker/internal/database"
	"github.com/codyseavey/card-flip-checker/internal/logging"
	"github.com/codyseavey/card-flip-checker/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	importPath := flag.String("import-profit-data", "", "add a browser-extension profitData JSON export to the ledger before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet; zap's example logger writes to stdout
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logCfg := logging.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	logger := logging.New(logCfg)
	defer logging.Sync(logger)

	if !cfg.DebugLogging {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, logger, cfg.DebugLogging)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.EbayAppID == "" {
		logger.Warn("ebay_app_id is not set; eBay searches will be rejected")
	}
	ebayService := services.NewEbayFindingService(cfg.EbayAppID, cfg.EbayEndpoint, cfg.EbayRPS, cfg.EbayDailyLimit, logger)
	marketService := services.NewMarketService(ebayService, cfg.CacheSize, cfg.CacheTTL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *importPath != "" {
		if _, err := os.Stat(*importPath); err != nil {
			logger.Fatal("profitData export not found", zap.String("path", *importPath), zap.Error(err))
		}
		profitData, err := services.NewFileLedgerStore(*importPath).Load(ctx)
		if err != nil {
			logger.Fatal("Failed to read profitData export", zap.String("path", *importPath), zap.Error(err))
		}
		if _, err := database.ImportProfitData(ctx, db, profitData, logger); err != nil {
			logger.Fatal("Failed to import profitData", zap.Error(err))
		}
	}

	// Load the ledger before serving so no record can race the initial read
	ledger := services.NewLedger(services.NewGormLedgerStore(db), logger)
	today, err := ledger.LoadTodayTotal(ctx)
	if err != nil {
		logger.Fatal("Failed to load ledger", zap.Error(err))
	}
	logger.Info("Ledger loaded", zap.Float64("today", today))

	router := api.SetupRouter(marketService, ebayService, ledger, cfg.CORSAllowedOrigins, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// Give outstanding requests a deadline to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited")
}
