package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// movementRepositoryInMemory хранит append-only журнал движений склада в памяти.
// Записи только добавляются; изменение и удаление не предусмотрены.
type movementRepositoryInMemory struct {
	mu      sync.RWMutex
	entries []domain.Movement
	byProd  map[string][]int
}

// NewMovementRepository создаёт in-memory реализацию MovementRepository.
func NewMovementRepository() domain.MovementRepository {
	return &movementRepositoryInMemory{
		byProd: make(map[string][]int),
	}
}

// Append добавляет запись в журнал.
func (r *movementRepositoryInMemory) Append(movement domain.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, movement)
	r.byProd[movement.ProductID] = append(r.byProd[movement.ProductID], len(r.entries)-1)
	return nil
}

// ListRange возвращает движения за интервал [from, to] в порядке добавления.
func (r *movementRepositoryInMemory) ListRange(from, to time.Time) ([]domain.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Movement, 0)
	for _, m := range r.entries {
		if m.Occurred.Before(from) || m.Occurred.After(to) {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

// ListByProduct возвращает все движения товара в порядке добавления.
func (r *movementRepositoryInMemory) ListByProduct(productID string) ([]domain.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.byProd[productID]
	result := make([]domain.Movement, 0, len(indexes))
	for _, i := range indexes {
		result = append(result, r.entries[i])
	}
	return result, nil
}

var _ domain.MovementRepository = (*movementRepositoryInMemory)(nil)
