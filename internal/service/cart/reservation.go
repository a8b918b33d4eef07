package cart

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

// Reservation резервирует товары под корзину: сток списывается в момент
// сохранения корзины, а не в момент заказа. Автоматического освобождения
// резерва нет, снять его можно только вручную через ReleaseReserved.
type Reservation struct {
	carts   domain.CartRepository
	catalog domain.CatalogRepository
	ledger  *stock.Ledger
	outbox  domain.OutboxRepository // опциональный outbox для событий корзины
	logger  *log.Entry
	metrics *metrics.StockMetrics
}

// NewReservation создаёт движок резервирования корзин.
func NewReservation(
	carts domain.CartRepository,
	catalog domain.CatalogRepository,
	ledger *stock.Ledger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Reservation {
	if logger == nil {
		logger = log.New().WithField("component", "cart-reservation")
	}
	return &Reservation{
		carts:   carts,
		catalog: catalog,
		ledger:  ledger,
		outbox:  outbox,
		logger:  logger,
		metrics: metrics.NewStockMetrics(),
	}
}

// NewReservationWithoutMetrics создаёт движок без метрик (для тестов).
func NewReservationWithoutMetrics(
	carts domain.CartRepository,
	catalog domain.CatalogRepository,
	ledger *stock.Ledger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Reservation {
	r := NewReservation(carts, catalog, ledger, outbox, logger)
	r.metrics = nil
	return r
}

// Reserve резервирует все позиции корзины и сохраняет её. Политика та же,
// что при размещении заказа: либо резервируются все позиции, либо ни одна.
// Уже списанные позиции компенсируются при провале посреди применения.
func (r *Reservation) Reserve(cartID string, items []domain.CartItem) (domain.Cart, error) {
	if cartID == "" {
		cartID = uuid.NewString()
	}
	if len(items) == 0 {
		return domain.Cart{}, domain.ErrItemsRequired
	}
	for _, item := range items {
		if errs := item.Validate(); len(errs) > 0 {
			return domain.Cart{}, errs[0]
		}
	}

	required := make(map[string]int64)
	for _, item := range items {
		required[item.ProductID] += int64(item.Qty)
	}
	for productID, qty := range required {
		product, err := r.catalog.Get(productID)
		if err != nil {
			return domain.Cart{}, err
		}
		if product.Stock < qty {
			r.logger.WithFields(log.Fields{
				"cart_id":    cartID,
				"product_id": productID,
				"stock":      product.Stock,
				"required":   qty,
			}).Warn("insufficient stock for cart")
			return domain.Cart{}, domain.ErrInsufficientStock
		}
	}

	applied := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if _, err := r.ledger.Adjust(item.ProductID, -int64(item.Qty), domain.MovementSourceReserveCart, cartID); err != nil {
			r.release(cartID, applied)
			return domain.Cart{}, err
		}
		applied = append(applied, item)
	}

	cart := domain.Cart{
		ID:        cartID,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.carts.Create(cart); err != nil {
		r.release(cartID, applied)
		return domain.Cart{}, err
	}

	r.logger.WithFields(log.Fields{
		"cart_id": cartID,
		"items":   len(items),
	}).Info("cart reserved")
	if r.metrics != nil {
		r.metrics.RecordCartReserved()
	}
	r.emitCartEvent(cart)

	return cart, nil
}

// Get возвращает корзину по идентификатору.
func (r *Reservation) Get(cartID string) (domain.Cart, error) {
	return r.carts.Get(cartID)
}

// Total считает сумму позиций по текущим ценам каталога в минорных единицах.
// Чистая операция: сток и корзины не меняются.
func (r *Reservation) Total(items []domain.CartItem) (int64, error) {
	var total int64
	for _, item := range items {
		if errs := item.Validate(); len(errs) > 0 {
			return 0, errs[0]
		}
		product, err := r.catalog.Get(item.ProductID)
		if err != nil {
			return 0, err
		}
		total += product.PriceMinor * int64(item.Qty)
	}
	return total, nil
}

// Search ищет товары по ключевому слову в имени и описании.
func (r *Reservation) Search(keyword string) ([]domain.Product, error) {
	return r.catalog.Search(keyword)
}

// release компенсирует уже списанные позиции при провале резервирования.
func (r *Reservation) release(cartID string, applied []domain.CartItem) {
	for _, item := range applied {
		if _, err := r.ledger.Adjust(item.ProductID, int64(item.Qty), domain.MovementSourceReleaseStock, cartID); err != nil {
			r.logger.WithError(err).WithFields(log.Fields{
				"cart_id":    cartID,
				"product_id": item.ProductID,
				"qty":        item.Qty,
			}).Error("failed to release cart item")
		}
	}
}

func (r *Reservation) emitCartEvent(cart domain.Cart) {
	if r.outbox == nil {
		return
	}

	payload, err := json.Marshal(kafka.NewCartReservedEvent(cart))
	if err != nil {
		r.logger.WithError(err).WithField("cart_id", cart.ID).Error("marshal cart event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "cart",
		AggregateID:   cart.ID,
		EventType:     string(kafka.EventTypeCartReserved),
		Payload:       payload,
	}
	if _, err := r.outbox.Enqueue(msg); err != nil {
		r.logger.WithError(err).WithField("cart_id", cart.ID).Error("enqueue cart event failed")
	} else if r.metrics != nil {
		r.metrics.RecordOutboxEvent()
	}
}
