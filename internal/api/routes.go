package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/api/handlers"
	"github.com/codyseavey/card-flip-checker/internal/services"
)

// SetupRouter wires the pricing endpoint, the ledger API, health and metrics
func SetupRouter(marketService *services.MarketService, ebayService *services.EbayFindingService, ledger *services.Ledger, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger), Metrics())

	// The browser add-on calls from arbitrary page origins
	config := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	searchHandler := handlers.NewSearchHandler(marketService, logger)
	quotaHandler := handlers.NewQuotaHandler(ebayService)
	ledgerHandler := handlers.NewLedgerHandler(ledger)

	router.GET("/", searchHandler.Home)
	router.GET("/search", searchHandler.Search)

	api := router.Group("/api")
	{
		ledgerRoutes := api.Group("/ledger")
		{
			ledgerRoutes.GET("/today", ledgerHandler.GetToday)
			ledgerRoutes.POST("/record", ledgerHandler.RecordProfit)
			ledgerRoutes.GET("/history", ledgerHandler.GetHistory)
		}

		api.GET("/quota", quotaHandler.GetQuotaStatus)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
