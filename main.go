package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"store-backend/internal/auth"
	"store-backend/internal/bill"
	"store-backend/internal/bill/bill_api"
	billdb "store-backend/internal/bill/db"
	"store-backend/internal/cart"
	"store-backend/internal/cart/cart_api"
	cartdb "store-backend/internal/cart/db"
	"store-backend/internal/catalog"
	"store-backend/internal/catalog/catalog_api"
	catalogdb "store-backend/internal/catalog/db"
	"store-backend/internal/config"
	"store-backend/internal/database/migrations"
	"store-backend/internal/gateway/vnpay"
	"store-backend/internal/inventory"
	invdb "store-backend/internal/inventory/db"
	"store-backend/internal/inventory/inventory_api"
	"store-backend/internal/logger"
	"store-backend/internal/order"
	orderdb "store-backend/internal/order/db"
	"store-backend/internal/order/order_api"
	orderredis "store-backend/internal/order/redis"
	"store-backend/internal/order/template"
	"store-backend/internal/promotion"
	promodb "store-backend/internal/promotion/db"
	"store-backend/internal/promotion/promotion_api"
)

func verifyConnections(ctx context.Context, cfg config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting store backend initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	log.Info("DATABASE", "Migrations applied")

	catalogDB := &catalogdb.DB{Bun: bunDB}
	cartDB := &cartdb.DB{Bun: bunDB}
	inventoryDB := &invdb.DB{Bun: bunDB}
	promoDB := &promodb.DB{Bun: bunDB}
	orderDB := &orderdb.DB{Bun: bunDB}
	billDB := &billdb.DB{Bun: bunDB}

	countCache := catalog.NewCountCache(redisClient, cfg.Catalog.CountCacheTTL)
	checkoutLock := orderredis.NewLock(redisClient, cfg.Checkout.LockTTL)

	catalogService := catalog.NewService(catalogDB, countCache, log)
	cartService := cart.NewService(cartDB, catalogDB, log)
	inventoryService := inventory.NewService(inventoryDB, catalogDB, log)
	promoService := promotion.NewService(promoDB, log)
	orderService := order.NewService(orderDB, cartDB, catalogDB, inventoryDB, promoService, checkoutLock, log)
	billService := bill.NewService(billDB, log)

	vnpayClient := vnpay.NewClient(cfg.VNPay)

	catalogHandler := catalog_api.NewHandler(catalogService, log)
	cartHandler := cart_api.NewHandler(cartService, log)
	inventoryHandler := inventory_api.NewHandler(inventoryService, log)
	promoHandler := promotion_api.NewHandler(promoService, log)
	orderHandler := order_api.NewHandler(orderService, template.NewInvoicePDFGenerator(), log)
	billHandler := bill_api.NewHandler(billService, log)
	vnpayHandler := vnpay.NewHandler(vnpayClient, orderService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/products", catalogHandler.ListProducts)
	r.Get("/api/products/count", catalogHandler.CountProducts)
	r.Post("/api/promotion/apply", promoHandler.Apply)
	r.Get("/api/vnpay/callback", vnpayHandler.Callback)
	log.Info("ROUTER", "Public catalog, promotion and gateway callback endpoints registered")

	// --- Customer Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		r.Use(auth.RequireCustomer)

		r.Route("/api/customer", func(r chi.Router) {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItem)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
				r.Delete("/", cartHandler.ClearCart)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/preview", orderHandler.Preview)
				r.Post("/checkout", orderHandler.Checkout)
				r.Get("/", orderHandler.ListMyOrders)
				r.Get("/{orderId}", orderHandler.GetOrder)
				r.Get("/{orderId}/invoice-pdf", orderHandler.InvoicePDF)
			})

			r.Route("/bills", func(r chi.Router) {
				r.Get("/", billHandler.ListMyBills)
				r.Get("/{billId}", billHandler.GetMyBill)
			})

			r.Get("/vnpay/create-payment-url", vnpayHandler.CreatePaymentURL)

			r.Post("/validate-cart", inventoryHandler.ValidateCart)
		})
	})
	log.Info("ROUTER", "Customer routes registered under /api/customer")

	// --- Staff Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		r.Use(auth.RequireStaff)

		r.Route("/api/promotion", func(r chi.Router) {
			r.Get("/", promoHandler.List)
			r.Get("/{promoId}", promoHandler.Get)
			r.Post("/", promoHandler.Create)
			r.Put("/{promoId}", promoHandler.Update)
			r.Delete("/{promoId}", promoHandler.Delete)
		})

		r.Route("/api/inventory", func(r chi.Router) {
			r.Get("/", inventoryHandler.ListInventories)
			r.Get("/product/{productId}", inventoryHandler.GetByProduct)
			r.Post("/validate-cart", inventoryHandler.ValidateCart)
		})

		r.Route("/api/order", func(r chi.Router) {
			r.Get("/", orderHandler.ListAll)
			r.Get("/{orderId}", orderHandler.GetOrderStaff)
			r.Put("/{orderId}/cancel", orderHandler.Cancel)
			r.Post("/{orderId}/payments", orderHandler.RecordPayment)
		})

		r.Route("/api/bill", func(r chi.Router) {
			r.Get("/{billId}", billHandler.GetBill)
			r.Put("/{billId}/status", billHandler.UpdateStatus)
		})
	})
	log.Info("ROUTER", "Staff routes registered under /api")

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "Store backend running on :"+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Store backend shutdown complete")
	}
}
