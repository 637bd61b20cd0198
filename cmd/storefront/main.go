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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/dkoval/storefront/internal/auth"
	"github.com/dkoval/storefront/internal/cart"
	"github.com/dkoval/storefront/internal/cart/cache"
	"github.com/dkoval/storefront/internal/cart/repository"
	"github.com/dkoval/storefront/internal/catalog"
	"github.com/dkoval/storefront/internal/config"
	"github.com/dkoval/storefront/internal/consumer"
	"github.com/dkoval/storefront/internal/httpapi"
	"github.com/dkoval/storefront/internal/upstream"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Durable cart slot
	repo, err := newCartRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up cart storage: %v", err)
	}
	defer repo.Close(ctx)

	// Redis: cart cache and token store
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

	cartCache := cache.NewRedisCache(redisClient)
	carts := cart.NewService(repo, cartCache)
	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)

	// Upstream REST client and catalog pipeline
	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.RequestTimeout)
	cat := catalog.NewService(client, client)
	log.Printf("Upstream API at %s", cfg.UpstreamBaseURL)

	// Handlers
	cartHandler := httpapi.NewCartHandler(carts, cfg.RequestTimeout)
	productHandler := httpapi.NewProductHandler(cat, client, cfg.RequestTimeout)
	authHandler := httpapi.NewAuthHandler(client, tokens, cfg.RequestTimeout)
	orderHandler := httpapi.NewOrderHandler(client, tokens, cfg.RequestTimeout)
	checkoutHandler := httpapi.NewCheckoutHandler(carts, client, tokens, cfg.RequestTimeout)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler)
	r.Use(httpapi.RequestIDMiddleware)
	r.Use(httpapi.SessionMiddleware)
	r.Use(httpapi.RateLimitMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	r.Use(httpapi.TokenMiddleware(tokens))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.List)
		r.Get("/products/{idOrSlug}", productHandler.Get)
		r.Get("/categories", productHandler.Categories)
		r.Get("/filters/{slug}", productHandler.Filters)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.Clear)
		})

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{orderID}", orderHandler.Get)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/signup", authHandler.Signup)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// Checkout event consumer (optional: requires brokers)
	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	if len(cfg.KafkaBrokers) > 0 {
		c := consumer.NewConsumer(carts, cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
		defer c.Close()
		go c.Run(consumerCtx)
		log.Printf("Checkout consumer listening on %s", cfg.KafkaTopic)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront gateway starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancelConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped")
}

func newCartRepository(ctx context.Context, cfg *config.Config) (repository.CartRepository, error) {
	switch cfg.CartStore {
	case "mongo":
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			return nil, err
		}
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
		return repo, nil
	default:
		repo, err := repository.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			return nil, err
		}
		log.Printf("Using SQLite cart store at %s", cfg.SQLitePath)
		return repo, nil
	}
}
