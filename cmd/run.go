package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stakeforge/api"
	"stakeforge/config"
	"stakeforge/database"
	"stakeforge/events"
	"stakeforge/github"
	"stakeforge/repository"
	"stakeforge/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting stakeforge...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	// Initialize event bus and audit subscriber
	eventBus := events.NewBus()
	registerAuditSubscribers(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize GitHub client
	githubClient := github.NewClient(cfg.GitHubTimeout)

	// Initialize services
	log.Info("Initializing services...")
	userService := service.NewUserService(uowFactory, githubClient, cfg.StartingCoins)
	stakeService := service.NewStakeService(uowFactory)
	analysisService := service.NewAnalysisService(githubClient)
	summaryService, err := service.NewSummaryService(githubClient, cfg.GitHubToken, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to initialize summary service: %w", err)
	}

	// Build the HTTP server
	handlers := api.NewHandlers(userService, stakeService, analysisService, summaryService, cfg.JWTSecret, cfg.TokenExpiry)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":        cfg.Port,
			"environment": cfg.Environment,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		db.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Warn("HTTP server shutdown error")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

// registerAuditSubscribers logs every economic effect for after-the-fact
// reconciliation
func registerAuditSubscribers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		change, ok := event.(events.BalanceChangeEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"userID":       change.UserID,
			"changeAmount": change.ChangeAmount,
			"reason":       change.Reason,
			"stakeID":      change.StakeID,
		}).Info("Balance changed")
	})

	bus.Subscribe(events.EventTypeStakeResolved, func(ctx context.Context, event events.Event) {
		resolved, ok := event.(events.StakeResolvedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"stakeID":     resolved.StakeID,
			"userID":      resolved.UserID,
			"status":      resolved.Status,
			"xpEarned":    resolved.XPEarned,
			"coinsEarned": resolved.CoinsEarned,
		}).Info("Stake resolved")
	})
}
