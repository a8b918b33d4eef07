package domain

import "time"

// CartItem — позиция корзины: ссылка на товар и количество.
type CartItem struct {
	ProductID string
	Qty       int32
}

// Validate проверяет корректность позиции корзины.
func (i *CartItem) Validate() []error {
	var errs []error

	if i.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if i.Qty <= 0 {
		errs = append(errs, ErrItemQtyInvalid)
	}

	return errs
}

// Cart — корзина с зарезервированным стоком.
// После создания корзина не меняется; резерв снимается только вручную
// через ReleaseReserved в stock-движке.
type Cart struct {
	ID        string
	Items     []CartItem
	CreatedAt time.Time
}
