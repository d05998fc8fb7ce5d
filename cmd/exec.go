package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"storefront/config"
	"storefront/handlers"
	"storefront/internal/services/gateway"
	"storefront/internal/services/gateway/wompi"
	_ "storefront/migrations"
	"storefront/monitoring"
	"storefront/security"
	"storefront/services"
	"storefront/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub (customer-facing status events)
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the payment gateway
	factory := gateway.NewFactory()
	gw, err := factory.CreateGateway(ctx, gateway.Provider(cfg.GatewayProvider), &cfg.WompiConfig)
	if err != nil {
		return err
	}
	defer gw.Close(context.Background())

	// Initialize monitoring
	monitor := monitoring.NewMonitor(redisClient)

	// Initialize services
	catalogService := services.NewCatalogService(app)
	cartService := services.NewCartService(redisClient, catalogService, cfg.CartTTL)
	transactionService := services.NewTransactionService(
		app, redisClient, services.NewPubNubPublisher(pn), gw, monitor, cfg,
	)
	checkoutService := services.NewCheckoutService(transactionService, cartService, monitor, cfg)

	monitor.SetFlowCounter(checkoutService)

	// Consume asynchronous settlement events from the gateway
	eventCh := make(chan *gateway.Event, 16)
	gw.SetEventChannel(eventCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-eventCh:
				slog.Info("gateway settlement event", "transaction", evt.TransactionID, "status", evt.Status)

				evtCtx, evtCancel := context.WithTimeout(ctx, 10*time.Second)
				if err := transactionService.HandleGatewayEvent(evtCtx, evt); err != nil {
					slog.Error("failed to apply gateway event", "transaction", evt.TransactionID, "error", err)
				}
				evtCancel()
			}
		}
	}()

	// Initialize handlers
	productHandler := handlers.NewProductHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	checkoutService.StartJanitor(ctx)
	monitor.StartCollector(ctx)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Ops server: metrics, health and the gateway webhook
	if cfg.EnableMetrics {
		opsServer := monitoring.NewServer(monitoring.ServerConfig{
			Port: cfg.MetricsPort,
			VerifySecret: func(secret string) bool {
				if cfg.WebhookSecretHash == "" {
					return true
				}
				return wompi.CompareSecretHash([]byte(cfg.WebhookSecretHash), []byte(secret))
			},
			VerifyChecksum: func(transactionID, status, amount, checksum string) bool {
				if cfg.WompiConfig.EventsKey == "" {
					return true
				}
				return wompi.VerifyEventChecksum(transactionID, status, amount, checksum, []byte(cfg.WompiConfig.EventsKey))
			},
			RateLimit: rateLimiter.WebhookRateLimit(),
		}, transactionService, monitoring.NewRedisPinger(func() error {
			return utils.RedisHealthCheck(redisClient)
		}))

		go func() {
			if err := opsServer.Start(); err != nil {
				slog.Error("ops server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			opsServer.Shutdown(shutdownCtx)
		}()
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Catalog endpoints
		e.Router.GET("/api/v1/products", productHandler.List)
		e.Router.GET("/api/v1/products/{id}", productHandler.Get)

		// Cart endpoints
		e.Router.GET("/api/v1/cart", cartHandler.Get)
		e.Router.POST("/api/v1/cart/items", cartHandler.AddItem)
		e.Router.PATCH("/api/v1/cart/items/{productId}", cartHandler.UpdateItem)
		e.Router.DELETE("/api/v1/cart", cartHandler.Clear)

		// Checkout endpoints
		e.Router.POST("/api/v1/checkout", checkoutHandler.Submit).BindFunc(rateLimiter.AntiBot())
		e.Router.GET("/api/v1/checkout/{flowId}", checkoutHandler.GetFlow)
		e.Router.POST("/api/v1/checkout/{flowId}/close", checkoutHandler.CloseFlow)

		// Transaction endpoints
		e.Router.GET("/api/v1/transactions/{id}", transactionHandler.Get)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
