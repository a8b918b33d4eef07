package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения: репозитории и движки.
type Dependencies struct {
	Catalog   domain.CatalogRepository
	Orders    domain.OrderRepository
	Carts     domain.CartRepository
	Movements domain.MovementRepository
	Outbox    domain.OutboxRepository

	Ledger      *stock.Ledger
	Lifecycle   *order.Lifecycle
	Reservation *cart.Reservation

	// Store не nil только при работе поверх PostgreSQL.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies собирает зависимости приложения. При пустом DSN работает
// in-memory хранилище, иначе открывается PostgreSQL и применяются миграции.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN == "" {
		logger.Info("using in-memory storage")
		deps.Catalog = memory.NewCatalogRepository()
		deps.Orders = memory.NewOrderRepository()
		deps.Carts = memory.NewCartRepository()
		deps.Movements = memory.NewMovementRepository()
		deps.Outbox = memory.NewOutboxRepository()
	} else {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("using postgres storage")

		deps.Store = store
		deps.Catalog = postgres.NewCatalogRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Carts = postgres.NewCartRepository(store)
		deps.Movements = postgres.NewMovementRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
	}

	deps.Ledger = stock.NewLedger(deps.Catalog, deps.Movements, deps.Outbox, logger.WithField("component", "stock-ledger"))
	deps.Lifecycle = order.NewLifecycle(deps.Orders, deps.Catalog, deps.Ledger, deps.Outbox, logger.WithField("component", "order-lifecycle"))
	deps.Reservation = cart.NewReservation(deps.Carts, deps.Catalog, deps.Ledger, deps.Outbox, logger.WithField("component", "cart-reservation"))

	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
