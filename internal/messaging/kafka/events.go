package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// EventType определяет тип публикуемого события.
type EventType string

const (
	// События склада
	EventTypeStockMovement EventType = "stock.movement"

	// События заказа
	EventTypeOrderPlaced        EventType = "order.placed"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderCanceled      EventType = "order.canceled"
	EventTypeOrderRefunded      EventType = "order.refunded"

	// События корзины
	EventTypeCartReserved EventType = "cart.reserved"
)

// Topics для Kafka
const (
	TopicStockMovements = "shop.stock.movements"
	TopicOrderEvents    = "shop.order.events"
)

// StockMovementEvent — событие одного движения склада.
type StockMovementEvent struct {
	EventType  EventType `json:"event_type"`
	MovementID string    `json:"movement_id"`
	ProductID  string    `json:"product_id"`
	Delta      int64     `json:"delta"`
	Source     string    `json:"source"`
	SourceID   string    `json:"source_id"`
	Stock      int64     `json:"stock"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewStockMovementEvent собирает событие движения из записи журнала
// и остатка товара после применения дельты.
func NewStockMovementEvent(movement domain.Movement, stockAfter int64) *StockMovementEvent {
	return &StockMovementEvent{
		EventType:  EventTypeStockMovement,
		MovementID: movement.ID,
		ProductID:  movement.ProductID,
		Delta:      movement.Delta,
		Source:     string(movement.Source),
		SourceID:   movement.SourceID,
		Stock:      stockAfter,
		Timestamp:  movement.Occurred,
	}
}

// OrderEvent — событие жизненного цикла заказа.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создаёт новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// CartLine — позиция корзины внутри события резервирования.
type CartLine struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

// CartReservedEvent — событие резервирования стока под корзину.
type CartReservedEvent struct {
	EventType EventType  `json:"event_type"`
	CartID    string     `json:"cart_id"`
	Items     []CartLine `json:"items"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewCartReservedEvent собирает событие по созданной корзине.
func NewCartReservedEvent(cart domain.Cart) *CartReservedEvent {
	lines := make([]CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, CartLine{ProductID: item.ProductID, Qty: item.Qty})
	}
	return &CartReservedEvent{
		EventType: EventTypeCartReserved,
		CartID:    cart.ID,
		Items:     lines,
		Timestamp: cart.CreatedAt,
	}
}
