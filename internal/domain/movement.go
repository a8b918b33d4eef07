package domain

import "time"

// MovementSource помечает причину изменения остатка.
type MovementSource string

const (
	MovementSourcePlaceOrder   MovementSource = "PlaceOrder"
	MovementSourceCancelOrder  MovementSource = "CancelOrder"
	MovementSourceRefundOrder  MovementSource = "RefundOrder"
	MovementSourceGoodsIn      MovementSource = "GoodsIn"
	MovementSourceGoodsOut     MovementSource = "GoodsOut"
	MovementSourceReserveCart  MovementSource = "ReserveCart"
	MovementSourceReleaseStock MovementSource = "ReleaseReservedStock"
)

// Valid проверяет, что источник движения относится к поддерживаемым значениям.
func (s MovementSource) Valid() bool {
	switch s {
	case MovementSourcePlaceOrder, MovementSourceCancelOrder, MovementSourceRefundOrder,
		MovementSourceGoodsIn, MovementSourceGoodsOut,
		MovementSourceReserveCart, MovementSourceReleaseStock:
		return true
	default:
		return false
	}
}

// Movement — одно подписанное изменение остатка товара в append-only журнале.
// Журнал никогда не редактируется и не сжимается: сумма дельт по товару,
// сложенная с его начальным остатком, всегда равна текущему остатку.
type Movement struct {
	ID        string
	ProductID string
	// Delta — знаковое изменение: положительное пополняет сток, отрицательное списывает.
	Delta  int64
	Source MovementSource
	// SourceID — идентификатор заказа, корзины или товара, вызвавшего движение.
	SourceID string
	Occurred time.Time
}

// Validate проверяет корректность записи движения.
func (m *Movement) Validate() []error {
	var errs []error

	if m.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if m.SourceID == "" {
		errs = append(errs, ErrSourceIDRequired)
	}
	if !m.Source.Valid() {
		errs = append(errs, ErrSourceInvalid)
	}

	return errs
}

// SumDeltas складывает дельты движений; используется для сверки журнала с остатком.
func SumDeltas(movements []Movement) int64 {
	var sum int64
	for _, m := range movements {
		sum += m.Delta
	}
	return sum
}
