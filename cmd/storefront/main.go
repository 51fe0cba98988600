package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/funmbia/Novelty/internal/engine"
	"github.com/funmbia/Novelty/internal/httpapi"
	"github.com/funmbia/Novelty/internal/localstore"
	"github.com/funmbia/Novelty/internal/remote"
	"github.com/funmbia/Novelty/internal/session"
	"github.com/funmbia/Novelty/internal/stock"
)

type Config struct {
	HTTPPort        string
	CartServiceURL  string
	InventoryURL    string
	LocalCartPath   string
	RequestTimeout  time.Duration
	RemoteTimeout   time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CartServiceURL:  getEnv("CART_SERVICE_URL", "http://localhost:8081"),
		InventoryURL:    getEnv("INVENTORY_URL", ""),
		LocalCartPath:   getEnv("LOCAL_CART_PATH", "storefront-cart.db"),
		RequestTimeout:  30 * time.Second,
		RemoteTimeout:   10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	local, err := localstore.OpenSQLite(cfg.LocalCartPath)
	if err != nil {
		log.Fatalf("Failed to open local cart store: %v", err)
	}
	defer local.Close()
	log.Printf("Local cart store at %s", cfg.LocalCartPath)

	remoteClient := remote.NewHTTPClient(cfg.CartServiceURL, cfg.RemoteTimeout)
	log.Printf("Remote cart service at %s", cfg.CartServiceURL)

	var oracle stock.Oracle = stock.CatalogOracle{}
	if cfg.InventoryURL != "" {
		oracle = stock.NewInventoryOracle(cfg.InventoryURL)
		log.Printf("Inventory service at %s", cfg.InventoryURL)
	}

	provider := session.NewMemoryProvider()
	eng := engine.New(local, remoteClient, oracle, provider)

	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()
	go eng.Run(engineCtx)

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     httpapi.NewRouter(eng, provider, cfg.RequestTimeout),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the cart event stream stays open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopEngine()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
