package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
)

// Lifecycle управляет жизненным циклом заказа. Все изменения остатка идут
// через stock.Ledger, поэтому каждое размещение, отмена и возврат оставляют
// след в журнале движений.
type Lifecycle struct {
	orders  domain.OrderRepository
	catalog domain.CatalogRepository
	ledger  *stock.Ledger
	outbox  domain.OutboxRepository // опциональный outbox для событий заказа
	logger  *log.Entry
	metrics *metrics.StockMetrics
}

// NewLifecycle создаёт движок жизненного цикла заказов.
func NewLifecycle(
	orders domain.OrderRepository,
	catalog domain.CatalogRepository,
	ledger *stock.Ledger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Lifecycle {
	if logger == nil {
		logger = log.New().WithField("component", "order-lifecycle")
	}
	return &Lifecycle{
		orders:  orders,
		catalog: catalog,
		ledger:  ledger,
		outbox:  outbox,
		logger:  logger,
		metrics: metrics.NewStockMetrics(),
	}
}

// NewLifecycleWithoutMetrics создаёт движок без метрик (для тестов).
func NewLifecycleWithoutMetrics(
	orders domain.OrderRepository,
	catalog domain.CatalogRepository,
	ledger *stock.Ledger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Lifecycle {
	lc := NewLifecycle(orders, catalog, ledger, outbox, logger)
	lc.metrics = nil
	return lc
}

// Place размещает заказ: проверяет все позиции, списывает сток по каждой и
// сохраняет заказ со снимками товаров. Политика all-or-nothing: при нехватке
// стока по любой позиции ни одна позиция не списывается. Если конкурентное
// списание всё же провалило позицию посреди применения, уже списанные позиции
// компенсируются возвратом резерва.
func (l *Lifecycle) Place(orderID string, lines []domain.OrderLine, initialStatus domain.OrderStatus) (domain.Order, error) {
	if orderID == "" {
		orderID = uuid.NewString()
	}
	if initialStatus == "" {
		initialStatus = domain.OrderStatusProcessing
	}
	if !initialStatus.Valid() {
		return domain.Order{}, domain.ErrStatusInvalid
	}
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}
	for _, line := range lines {
		if line.Qty <= 0 {
			return domain.Order{}, domain.ErrItemQtyInvalid
		}
	}

	// Предварительная проверка: все товары существуют и стока хватает на
	// суммарное количество по каждому товару (дубли позиций складываются).
	required := make(map[string]int64)
	for _, line := range lines {
		required[line.ProductID] += int64(line.Qty)
	}
	for productID, qty := range required {
		product, err := l.catalog.Get(productID)
		if err != nil {
			return domain.Order{}, err
		}
		if product.Stock < qty {
			l.logger.WithFields(log.Fields{
				"order_id":   orderID,
				"product_id": productID,
				"stock":      product.Stock,
				"required":   qty,
			}).Warn("insufficient stock for order")
			return domain.Order{}, domain.ErrInsufficientStock
		}
	}

	// Применение: списываем по позициям, снимки берём из возвращённого
	// состояния товара.
	items := make([]domain.OrderItem, 0, len(lines))
	applied := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, err := l.ledger.Adjust(line.ProductID, -int64(line.Qty), domain.MovementSourcePlaceOrder, orderID)
		if err != nil {
			l.compensate(orderID, applied)
			return domain.Order{}, err
		}
		applied = append(applied, line)
		items = append(items, domain.OrderItem{Product: product, Qty: line.Qty})
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        orderID,
		Items:     items,
		Status:    initialStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		l.compensate(orderID, applied)
		return domain.Order{}, errs[0]
	}
	if err := l.orders.Create(order); err != nil {
		l.compensate(orderID, applied)
		return domain.Order{}, err
	}

	l.logger.WithFields(log.Fields{
		"order_id":    orderID,
		"items":       len(items),
		"total_minor": order.TotalMinor(),
	}).Info("order placed")
	if l.metrics != nil {
		l.metrics.RecordOrderPlaced()
	}
	l.emitOrderEvent(kafka.EventTypeOrderPlaced, order)

	return order, nil
}

// UpdateStatus — административная смена статуса. Граф переходов сознательно
// не проверяется; сток не трогается.
func (l *Lifecycle) UpdateStatus(orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusInvalid
	}

	order, err := l.persistStatus(orderID, func(o *domain.Order) error {
		o.Status = status
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	l.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("order status updated")
	l.emitOrderEvent(kafka.EventTypeOrderStatusChanged, order)

	return order, nil
}

// UpdateItemQty меняет количество во всех позициях заказа с данным товаром.
// Чистая правка содержимого: остаток на складе не пересчитывается.
func (l *Lifecycle) UpdateItemQty(orderID, productID string, qty int32) (domain.Order, error) {
	return l.persistStatus(orderID, func(o *domain.Order) error {
		return o.SetItemQty(productID, qty)
	})
}

// Cancel отменяет заказ в обработке и возвращает сток по всем позициям.
// Отменить можно только processing-заказ: повторная отмена или отмена
// завершённого заказа отклоняется, поэтому сток не может вернуться дважды.
func (l *Lifecycle) Cancel(orderID string) (domain.Order, error) {
	// Статус переводится первым под optimistic locking: из двух конкурентных
	// отмен только одна пройдёт guard, и restock выполняется ровно один раз.
	order, err := l.persistStatus(orderID, func(o *domain.Order) error {
		if !o.Status.CanTransitionTo(domain.OrderStatusCanceled) {
			return domain.ErrOrderNotCancelable
		}
		o.Status = domain.OrderStatusCanceled
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	l.restock(order, domain.MovementSourceCancelOrder)

	l.logger.WithField("order_id", orderID).Info("order canceled")
	if l.metrics != nil {
		l.metrics.RecordOrderCanceled()
	}
	l.emitOrderEvent(kafka.EventTypeOrderCanceled, order)

	return order, nil
}

// Refund оформляет возврат по завершённому заказу и возвращает сток.
// Повторный возврат отклоняется с ErrAlreadyRefunded, возврат незавершённого
// заказа — с ErrOrderNotRefundable.
func (l *Lifecycle) Refund(orderID string) (domain.Order, error) {
	order, err := l.persistStatus(orderID, func(o *domain.Order) error {
		if o.Status == domain.OrderStatusRefunded {
			return domain.ErrAlreadyRefunded
		}
		if !o.Status.CanTransitionTo(domain.OrderStatusRefunded) {
			return domain.ErrOrderNotRefundable
		}
		o.Status = domain.OrderStatusRefunded
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	l.restock(order, domain.MovementSourceRefundOrder)

	l.logger.WithField("order_id", orderID).Info("order refunded")
	if l.metrics != nil {
		l.metrics.RecordOrderRefunded()
	}
	l.emitOrderEvent(kafka.EventTypeOrderRefunded, order)

	return order, nil
}

// Get возвращает заказ по идентификатору.
func (l *Lifecycle) Get(orderID string) (domain.Order, error) {
	return l.orders.Get(orderID)
}

// ListByStatus возвращает заказы с данным статусом, новые первыми.
func (l *Lifecycle) ListByStatus(status domain.OrderStatus) ([]domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrStatusInvalid
	}
	return l.orders.ListByStatus(status)
}

// ListAll возвращает все заказы, новые первыми.
func (l *Lifecycle) ListAll() ([]domain.Order, error) {
	return l.orders.ListAll()
}

// persistStatus выполняет read-modify-write заказа под optimistic locking.
// mutate вызывается на свежепрочитанном заказе на каждой попытке, поэтому
// guard-проверки внутри mutate видят актуальный статус.
func (l *Lifecycle) persistStatus(orderID string, mutate func(*domain.Order) error) (domain.Order, error) {
	const maxRetries = 5
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		order, err := l.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}

		if err := mutate(&order); err != nil {
			return domain.Order{}, err
		}
		order.UpdatedAt = time.Now().UTC()
		prevVersion := order.Version

		if err := l.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				l.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt + 1,
				}).Warn("version conflict detected, retrying")
				if l.metrics != nil {
					l.metrics.RecordConflictRetry()
				}
				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			l.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist order")
			return domain.Order{}, err
		}
		order.Version = prevVersion + 1

		return order, nil
	}

	return domain.Order{}, domain.ErrOrderVersionConflict
}

// restock возвращает сток по всем позициям заказа. Статус к этому моменту уже
// сохранён, поэтому ошибка отдельной позиции логируется, но не откатывает
// отмену: недовозвращённый сток чинится вручную через GoodsIn.
func (l *Lifecycle) restock(order domain.Order, source domain.MovementSource) {
	for _, item := range order.Items {
		if _, err := l.ledger.Adjust(item.Product.ID, int64(item.Qty), source, order.ID); err != nil {
			l.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": item.Product.ID,
				"qty":        item.Qty,
			}).Error("failed to restock order item")
		}
	}
}

// compensate возвращает резерв по уже списанным позициям при провале
// размещения посреди применения.
func (l *Lifecycle) compensate(orderID string, applied []domain.OrderLine) {
	for _, line := range applied {
		if _, err := l.ledger.Adjust(line.ProductID, int64(line.Qty), domain.MovementSourceReleaseStock, orderID); err != nil {
			l.logger.WithError(err).WithFields(log.Fields{
				"order_id":   orderID,
				"product_id": line.ProductID,
				"qty":        line.Qty,
			}).Error("failed to compensate order line")
		}
	}
}

func (l *Lifecycle) emitOrderEvent(eventType kafka.EventType, order domain.Order) {
	if l.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, string(order.Status), map[string]interface{}{
		"total_minor": order.TotalMinor(),
	})
	event.Timestamp = order.UpdatedAt

	payload, err := json.Marshal(event)
	if err != nil {
		l.logger.WithError(err).WithField("order_id", order.ID).Error("marshal order event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}
	if _, err := l.outbox.Enqueue(msg); err != nil {
		l.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue order event failed")
	} else if l.metrics != nil {
		l.metrics.RecordOutboxEvent()
	}
}
