package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusProcessing — заказ размещён, сток списан, заказ в обработке.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted — заказ исполнен и доставлен.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCanceled — заказ отменён до завершения, сток возвращён.
	OrderStatusCanceled OrderStatus = "canceled"
	// OrderStatusRefunded — по завершённому заказу оформлен возврат.
	OrderStatusRefunded OrderStatus = "refunded"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusCompleted, OrderStatusCanceled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// Terminal сообщает, является ли статус конечным: из него нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCanceled || s == OrderStatusRefunded
}

// CanTransitionTo проверяет переход по графу статусов:
// processing -> completed -> refunded и processing -> canceled.
// Проверяемые переходы использует движок жизненного цикла; административная
// смена статуса (UpdateStatus) этот граф сознательно обходит.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return next == OrderStatusCompleted || next == OrderStatusCanceled
	case OrderStatusCompleted:
		return next == OrderStatusRefunded
	default:
		return false
	}
}

// OrderItem — позиция заказа: снимок товара на момент размещения плюс количество.
// Последующие изменения цены или имени товара исторический заказ не меняют.
type OrderItem struct {
	Product Product
	Qty     int32
}

// OrderLine — ссылка на товар с количеством, вход для размещения заказа.
type OrderLine struct {
	ProductID string
	Qty       int32
}

// Order агрегирует позиции заказа и его текущий статус.
// Заказы никогда не удаляются: отмена и возврат — это статусы.
type Order struct {
	ID     string
	Items  []OrderItem
	Status OrderStatus
	// Version нужен для optimistic locking при сохранении.
	Version int64
	// CreatedAt фиксируется при размещении и больше не меняется.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}

	return errs
}

// TotalMinor возвращает сумму заказа по зафиксированным в снимках ценам.
func (o *Order) TotalMinor() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Product.PriceMinor * int64(item.Qty)
	}
	return total
}

// SetItemQty заменяет количество у всех позиций с данным товаром.
// Остаток на складе при этом не трогается: это чистая правка содержимого заказа.
func (o *Order) SetItemQty(productID string, qty int32) error {
	if qty <= 0 {
		return ErrItemQtyInvalid
	}

	found := false
	for i := range o.Items {
		if o.Items[i].Product.ID == productID {
			o.Items[i].Qty = qty
			found = true
		}
	}
	if !found {
		return ErrItemNotInOrder
	}
	return nil
}
