package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	c "github.com/funmbia/Novelty/internal/cartserv/cache"
	"github.com/funmbia/Novelty/internal/cartserv/httpserv"
	"github.com/funmbia/Novelty/internal/cartserv/poller"
	"github.com/funmbia/Novelty/internal/cartserv/repository"
	s "github.com/funmbia/Novelty/internal/cartserv/service"
	"github.com/funmbia/Novelty/internal/stock"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	MongoMaxPool    uint64
	RedisAddr       string
	RedisPassword   string
	CatalogURL      string
	InventoryURL    string
	KafkaBrokers    string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "noveltydb"),
		MongoMaxPool:    getEnvUint("MONGO_MAX_POOL", 100),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CatalogURL:      getEnv("CATALOG_URL", ""),
		InventoryURL:    getEnv("INVENTORY_URL", ""),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value, err := strconv.ParseUint(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func main() {
	cfg := loadConfig()

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName, cfg.MongoMaxPool)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	repo := repository.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	if idx, ok := repo.(interface{ CreateIndexes(context.Context) error }); ok {
		if err := idx.CreateIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cache := c.NewRedisCache(redisClient)

	var books s.BookSource
	if cfg.CatalogURL != "" {
		books = s.NewHTTPCatalog(cfg.CatalogURL)
		log.Printf("Catalog service at %s", cfg.CatalogURL)
	}
	var oracle stock.Oracle
	if cfg.InventoryURL != "" {
		oracle = stock.NewInventoryOracle(cfg.InventoryURL)
		log.Printf("Inventory service at %s", cfg.InventoryURL)
	}

	service := s.NewCartService(repo, cache, books, oracle)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if cfg.KafkaBrokers != "" {
		p := poller.NewPoller(repo, cache, strings.Split(cfg.KafkaBrokers, ",")...)
		defer p.Close()
		go p.Run(pollerCtx)
		log.Printf("Order-completed poller consuming from %s", cfg.KafkaBrokers)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpserv.NewRouter(service),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Cart service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down cart service...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	mongoDB.Client().Disconnect(ctx)
	log.Println("Cart service stopped")
}
