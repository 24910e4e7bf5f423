package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"turtleword/internal/config"
	"turtleword/internal/database"
	"turtleword/internal/game"
	"turtleword/internal/handlers"
	"turtleword/internal/lightning"
	"turtleword/internal/payment"
	"turtleword/internal/repository"
	"turtleword/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load word lists
	words, err := game.LoadWordLists(cfg.WordsPath)
	if err != nil {
		log.Fatalf("Failed to load word lists: %v", err)
	}

	log.Printf("Word lists loaded for languages: %v", words.Languages())

	// Initialize the payment provider client and orchestrator. No wallet
	// capability is configured server-side; payments settle via QR.
	invoices := lightning.NewClient(cfg.BlinkServer, cfg.BlinkAPIKey, cfg.BlinkWalletID).
		WithPreimageVerification()
	orchestrator := payment.NewOrchestrator(invoices, payment.WalletUnavailable(),
		cfg.PaymentPollInterval, cfg.PaymentTimeout)

	// Initialize repositories
	playerRepo := repository.NewPlayerRepository(db)

	// Initialize the game engine and session controller
	engine := game.NewEngine(words, cfg.DictionaryCheckEnabled)
	policy, err := session.NewPolicy(cfg.GatePolicy, cfg.FreePlays)
	if err != nil {
		log.Fatalf("Failed to configure gate policy: %v", err)
	}
	tokens := session.NewTokenIssuer(cfg.PlayTokenSecret, cfg.PlayTokenTTL)
	mirror := session.NewStatsMirror(cfg.StatsMirrorURL)
	if mirror != nil {
		log.Printf("Mirroring stats to %s", cfg.StatsMirrorURL)
	}
	controller := session.NewController(engine, orchestrator, playerRepo, tokens, policy, mirror, cfg.GamePriceSats)

	// Initialize handlers
	invoiceHandler := handlers.NewInvoiceHandler(invoices)
	playerHandler := handlers.NewPlayerHandler(controller, playerRepo)
	sessionHandler := handlers.NewSessionHandler(controller)

	router := handlers.NewRouter(invoiceHandler, playerHandler, sessionHandler)

	// Start server. The write timeout must outlast the payment wait so
	// await-payment requests can block until settlement.
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PaymentTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}
