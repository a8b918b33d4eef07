package domain

import "time"

// CatalogRepository описывает требования к хранилищу товаров.
type CatalogRepository interface {
	// Create сохраняет новый товар. Возвращает ошибку, если ID уже занят.
	Create(product Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound, если его нет.
	Get(id string) (Product, error)
	// Save применяет обновления к товару с учётом optimistic locking.
	Save(product Product) error
	// Search возвращает товары, подходящие под ключевое слово (имя и описание,
	// подстрока без учёта регистра). Порядок результатов не специфицирован.
	Search(keyword string) ([]Product, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByStatus возвращает заказы с указанным текущим статусом.
	ListByStatus(status OrderStatus) ([]Order, error)
	// ListAll возвращает все заказы.
	ListAll() ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// CartRepository описывает требования к хранилищу корзин.
type CartRepository interface {
	// Create сохраняет новую корзину. Возвращает ErrCartExists, если ID занят.
	Create(cart Cart) error
	// Get возвращает корзину или ErrCartNotFound, если её нет.
	Get(id string) (Cart, error)
}

// MovementRepository хранит append-only журнал движений склада.
type MovementRepository interface {
	// Append добавляет запись в журнал. Записи никогда не изменяются и не удаляются.
	Append(movement Movement) error
	// ListRange возвращает движения за интервал [from, to] в хронологическом порядке.
	ListRange(from, to time.Time) ([]Movement, error)
	// ListByProduct возвращает все движения товара в хронологическом порядке.
	ListByProduct(productID string) ([]Movement, error)
}
