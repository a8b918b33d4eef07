package stock

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// Ledger — единственный путь изменения остатка товара. Каждое успешное
// изменение сопровождается ровно одной записью в append-only журнале движений.
type Ledger struct {
	catalog   domain.CatalogRepository
	movements domain.MovementRepository
	outbox    domain.OutboxRepository // опциональный outbox для событий движений
	logger    *log.Entry
	metrics   *metrics.StockMetrics
}

// NewLedger создаёт рабочий экземпляр stock-движка.
func NewLedger(
	catalog domain.CatalogRepository,
	movements domain.MovementRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "stock-ledger")
	}
	return &Ledger{
		catalog:   catalog,
		movements: movements,
		outbox:    outbox,
		logger:    logger,
		metrics:   metrics.NewStockMetrics(),
	}
}

// NewLedgerWithoutMetrics создаёт stock-движок без метрик (для тестов).
func NewLedgerWithoutMetrics(
	catalog domain.CatalogRepository,
	movements domain.MovementRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Ledger {
	ledger := NewLedger(catalog, movements, outbox, logger)
	ledger.metrics = nil
	return ledger
}

// Adjust атомарно применяет знаковую дельту к остатку товара.
// Атомарность per-product обеспечивается optimistic locking: read-modify-write
// повторяется с exponential backoff при конфликте версий, поэтому два
// конкурентных списания не могут прочитать один и тот же устаревший остаток.
// Дельта, опускающая остаток ниже нуля, отклоняется с ErrInsufficientStock,
// и состояние товара не меняется — это единственная точка, где инвариант
// stock >= 0 принудительно соблюдается.
func (l *Ledger) Adjust(productID string, delta int64, source domain.MovementSource, sourceID string) (domain.Product, error) {
	start := time.Now()
	defer func() {
		if l.metrics != nil {
			l.metrics.RecordAdjustDuration(time.Since(start))
		}
	}()

	if !source.Valid() {
		return domain.Product{}, domain.ErrSourceInvalid
	}
	if sourceID == "" {
		return domain.Product{}, domain.ErrSourceIDRequired
	}

	const maxRetries = 5
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		product, err := l.catalog.Get(productID)
		if err != nil {
			return domain.Product{}, err
		}

		newStock := product.Stock + delta
		if newStock < 0 {
			l.logger.WithFields(log.Fields{
				"product_id": productID,
				"stock":      product.Stock,
				"delta":      delta,
				"source":     source,
			}).Warn("insufficient stock")
			if l.metrics != nil {
				l.metrics.RecordInsufficientStock()
			}
			return domain.Product{}, domain.ErrInsufficientStock
		}

		product.Stock = newStock
		product.UpdatedAt = time.Now().UTC()
		prevVersion := product.Version

		if err := l.catalog.Save(product); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				l.logger.WithFields(log.Fields{
					"product_id": productID,
					"attempt":    attempt + 1,
				}).Warn("version conflict detected, retrying")
				if l.metrics != nil {
					l.metrics.RecordConflictRetry()
				}
				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			l.logger.WithError(err).WithField("product_id", productID).Error("failed to persist stock")
			return domain.Product{}, err
		}
		product.Version = prevVersion + 1

		movement := domain.Movement{
			ID:        uuid.NewString(),
			ProductID: productID,
			Delta:     delta,
			Source:    source,
			SourceID:  sourceID,
			Occurred:  product.UpdatedAt,
		}
		if err := l.movements.Append(movement); err != nil {
			// Остаток уже обновлён: потерянная запись журнала ломает сверку,
			// поэтому ошибку не глотаем.
			l.logger.WithError(err).WithField("product_id", productID).Error("failed to append movement")
			return domain.Product{}, err
		}

		if l.metrics != nil {
			l.metrics.RecordMovement(string(source))
		}
		l.emitMovementEvent(product, movement)

		return product, nil
	}

	return domain.Product{}, domain.ErrProductVersionConflict
}

// GoodsIn приходует amount единиц товара на склад.
func (l *Ledger) GoodsIn(productID string, amount int64) (domain.Product, error) {
	if amount <= 0 {
		return domain.Product{}, domain.ErrAmountInvalid
	}
	l.logger.WithFields(log.Fields{
		"product_id": productID,
		"amount":     amount,
	}).Info("goods in")
	return l.Adjust(productID, amount, domain.MovementSourceGoodsIn, productID)
}

// GoodsOut списывает amount единиц товара со склада.
// Нехватка стока возвращается как ErrInsufficientStock.
func (l *Ledger) GoodsOut(productID string, amount int64) (domain.Product, error) {
	if amount <= 0 {
		return domain.Product{}, domain.ErrAmountInvalid
	}
	l.logger.WithFields(log.Fields{
		"product_id": productID,
		"amount":     amount,
	}).Info("goods out")
	return l.Adjust(productID, -amount, domain.MovementSourceGoodsOut, productID)
}

// ReleaseReserved вручную возвращает на склад amount ранее зарезервированных
// единиц — единственный способ снять резерв корзины вне обычного цикла заказа.
func (l *Ledger) ReleaseReserved(productID string, amount int64) (domain.Product, error) {
	if amount <= 0 {
		return domain.Product{}, domain.ErrAmountInvalid
	}
	l.logger.WithFields(log.Fields{
		"product_id": productID,
		"amount":     amount,
	}).Info("releasing reserved stock")
	return l.Adjust(productID, amount, domain.MovementSourceReleaseStock, productID)
}

func (l *Ledger) emitMovementEvent(product domain.Product, movement domain.Movement) {
	if l.outbox == nil {
		return
	}

	payload, err := json.Marshal(kafka.NewStockMovementEvent(movement, product.Stock))
	if err != nil {
		l.logger.WithError(err).WithField("product_id", product.ID).Error("marshal movement event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "product",
		AggregateID:   product.ID,
		EventType:     string(kafka.EventTypeStockMovement),
		Payload:       payload,
	}
	if _, err := l.outbox.Enqueue(msg); err != nil {
		l.logger.WithError(err).WithField("product_id", product.ID).Error("enqueue movement event failed")
	} else if l.metrics != nil {
		l.metrics.RecordOutboxEvent()
	}
}
