package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paper-trade-bot-go/internal/analytics"
	"paper-trade-bot-go/internal/config"
	"paper-trade-bot-go/internal/database"
	"paper-trade-bot-go/internal/executor"
	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/logger"
	"paper-trade-bot-go/internal/market"
	"paper-trade-bot-go/internal/strategy"
	"paper-trade-bot-go/internal/trader"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize market-data client and tracker
	client := market.NewClient(&cfg.Exchange, log)
	if _, err := client.GetServerTime(); err != nil {
		log.Fatal("Failed to connect to exchange API", zap.Error(err))
	}
	log.Info("Successfully connected to exchange API.")

	store := ledger.NewStore(db)
	tracker := market.NewTracker(store, client, log, cfg.Exchange.Timeframe, cfg.Exchange.CandleLimit)

	// Ledger, executor, strategy, analytics
	book, err := ledger.NewLedger(store, tracker, log, cfg.Trading.StartingBalance, cfg.Trading.FeeRate)
	if err != nil {
		log.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	exec := executor.NewExecutor(book, tracker, log)
	strat := strategy.NewRsiEma(cfg.Strategy, log)
	perf := analytics.NewPerformance(store, cfg.Trading.StartingBalance)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the trading engine
	tradeEngine := trader.NewEngine(log, &cfg, tracker, book, exec, strat, perf)
	tradeEngine.Run(ctx)

	log.Info("Bot has been shut down.")
}
