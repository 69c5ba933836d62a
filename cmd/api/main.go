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

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"
	orderrepo "storefront/internal/repository/order"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
	ratingsvc "storefront/internal/service/rating"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var pool *pgxpool.Pool
	var catalogRepo catalogrepo.Repository
	var cartRepo cartrepo.Repository
	var orderRepo orderrepo.Repository

	switch cfg.StoreBackend {
	case "memory":
		logger.Printf("using in-memory stores")
		catalogRepo = catalogrepo.NewMemory()
		cartRepo = cartrepo.NewMemory()
		orderRepo = orderrepo.NewMemory()
	default:
		var err error
		pool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		catalogRepo = catalogrepo.NewPostgres(pool, logger)
		cartRepo = cartrepo.NewPostgres(pool)
		orderRepo = orderrepo.NewPostgres(pool, logger)
	}

	catalogService := catalogsvc.New(catalogRepo)
	ratingService := ratingsvc.New(catalogRepo)
	cartService := cartsvc.New(cartRepo, catalogRepo, cfg.Policy())
	orderService := ordersvc.New(orderRepo, cartRepo, catalogRepo, ordersvc.Config{
		Policy:             cfg.Policy(),
		Coupons:            cfg.Coupons,
		ReservationTimeout: cfg.ReservationTimeout,
		ReturnWindow:       cfg.ReturnWindow,
	}, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, pool, httpserver.Deps{
		Catalog: catalogService,
		Ratings: ratingService,
		Carts:   cartService,
		Orders:  orderService,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	// Pending orders hold reserved stock; release it when payment never
	// confirms within the reservation timeout.
	expiryCtx, stopExpiry := context.WithCancel(ctx)
	go runExpiry(expiryCtx, logger, orderService, cfg.ExpiryInterval)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	stopExpiry()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func runExpiry(ctx context.Context, logger *log.Logger, orders *ordersvc.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := orders.ExpirePendingOrders(ctx); err != nil {
				logger.Printf("expire pending orders: %v", err)
			}
		}
	}
}
