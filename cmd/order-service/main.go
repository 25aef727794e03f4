package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"storefront/internal/auth"
	"storefront/internal/clock"
	"storefront/internal/config"
	"storefront/internal/order/api"
	"storefront/internal/order/client"
	"storefront/internal/order/idempotency"
	"storefront/internal/order/repository"
	"storefront/internal/order/service"
	"storefront/migrations"
)

func connectDB(dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				return db, nil
			}
		}
		log.Printf("Retry %d: failed to connect to DB: %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB after retries: %v", err)
}

func main() {
	dsn := config.MySQLDSN(
		config.Getenv("DB_USER", "root"),
		config.Getenv("DB_PASS", ""),
		config.Getenv("DB_HOST", "127.0.0.1"),
		config.Getenv("DB_PORT", "3306"),
		config.Getenv("DB_NAME", "order-db"),
	)
	db, err := connectDB(dsn)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrateOrders(3, db); err != nil {
		log.Fatalf("Failed to migrate orders table: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.Getenv("REDIS_ADDR", "localhost:6379"),
	})

	secret := []byte(config.Getenv("JWT_SECRET", "secret"))
	callTimeout := config.GetenvDuration("DEPENDENCY_TIMEOUT", 5*time.Second)
	idemTTL := config.GetenvDuration("IDEMPOTENCY_TTL", 24*time.Hour)

	inventoryURL := config.Getenv("INVENTORY_SERVICE_URL", "http://localhost:8081")
	userURL := config.Getenv("USER_SERVICE_URL", "http://localhost:8080")

	verifier := auth.NewVerifier(secret)
	orderRepo := repository.NewOrderRepository(db)
	orderService := service.NewOrderService(
		verifier,
		client.NewInventory(inventoryURL, callTimeout),
		client.NewUsers(userURL, callTimeout),
		orderRepo,
		idempotency.NewStore(rdb, idemTTL),
		clock.NewSystem(),
	)
	orderHandler := api.NewOrderHandler(orderService, orderRepo, verifier)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     60,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	orderHandler.Register(e)

	e.GET("/orders/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "order-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.Logger.Fatal(e.Start(":" + config.Getenv("HTTP_PORT", "8082")))
}
