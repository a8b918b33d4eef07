package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product id is required")
	// Ошибка отрицательной цены товара.
	ErrPriceNegative = errors.New("price_minor must be non-negative")
	// Ошибка отрицательного остатка: инвариант stock >= 0 нарушен.
	ErrStockNegative = errors.New("stock must be non-negative")
	// Ошибка отсутствия хотя бы одной позиции в заказе или корзине.
	ErrItemsRequired = errors.New("at least one item is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка при некорректном объёме складской операции (<= 0).
	ErrAmountInvalid = errors.New("amount must be greater than zero")
	// Ошибка отсутствующего идентификатора заказа/корзины в движении.
	ErrSourceIDRequired = errors.New("movement source_id is required")
	// Ошибка неизвестного типа движения склада.
	ErrSourceInvalid = errors.New("movement source is not supported")
	// Ошибка неизвестного статуса заказа.
	ErrStatusInvalid = errors.New("order status is not supported")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrItemNotInOrder возвращается, если позиция с товаром отсутствует в заказе.
	ErrItemNotInOrder = errors.New("product not found in order")
	// ErrInsufficientStock — списание опустило бы остаток ниже нуля.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrAlreadyRefunded — повторный возврат по уже возвращённому заказу.
	ErrAlreadyRefunded = errors.New("order already refunded")
	// ErrOrderNotRefundable — возврат возможен только для завершённого заказа.
	ErrOrderNotRefundable = errors.New("only completed orders can be refunded")
	// ErrOrderNotCancelable — отмена возможна только для заказа в обработке.
	ErrOrderNotCancelable = errors.New("only processing orders can be canceled")
	// ErrProductVersionConflict сигнализирует о конфликте версий при сохранении товара.
	ErrProductVersionConflict = errors.New("product version conflict")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении заказа.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrCartExists возвращается при попытке создать корзину с занятым ID.
	ErrCartExists = errors.New("cart already exists")
	// ErrCartNotFound возвращается, если корзина не найдена.
	ErrCartNotFound = errors.New("cart not found")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий (товар или заказ).
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrProductVersionConflict) || errors.Is(err, ErrOrderVersionConflict)
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCartNotFound)
}
