package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository создаёт PostgreSQL-реализацию MovementRepository.
// Таблица stock_movements append-only: репозиторий не выполняет UPDATE и DELETE.
func NewMovementRepository(store *Store) domain.MovementRepository {
	return &movementRepository{db: store.DB()}
}

func (r *movementRepository) Append(movement domain.Movement) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if errs := movement.Validate(); len(errs) > 0 {
		return errs[0]
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_movements (id, product_id, delta, source, source_id, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		movement.ID, movement.ProductID, movement.Delta,
		string(movement.Source), movement.SourceID, movement.Occurred,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	return nil
}

func (r *movementRepository) ListRange(from, to time.Time) ([]domain.Movement, error) {
	return r.list(`
		SELECT id, product_id, delta, source, source_id, occurred_at
		FROM stock_movements
		WHERE occurred_at >= $1 AND occurred_at <= $2
		ORDER BY occurred_at ASC, id ASC
	`, from, to)
}

func (r *movementRepository) ListByProduct(productID string) ([]domain.Movement, error) {
	return r.list(`
		SELECT id, product_id, delta, source, source_id, occurred_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, productID)
}

func (r *movementRepository) list(query string, args ...interface{}) ([]domain.Movement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Movement, 0)
	for rows.Next() {
		var m domain.Movement
		var source string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &source, &m.SourceID, &m.Occurred); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Source = domain.MovementSource(source)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}

	return result, nil
}

var _ domain.MovementRepository = (*movementRepository)(nil)
