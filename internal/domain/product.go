package domain

import (
	"strings"
	"time"
)

// Product — товар каталога с текущим остатком на складе.
// Остаток меняется только через stock-движок, напрямую его никто не трогает.
type Product struct {
	ID   string
	Name string
	// Brand, Description, Color, Size — свободный текст для карточки и поиска.
	Brand       string
	Description string
	Color       string
	Size        string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, копейки).
	PriceMinor int64
	// Stock — остаток на складе, никогда не опускается ниже нуля.
	Stock int64
	// Version нужен для optimistic locking при конкурентных списаниях.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.ID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}

// MatchesKeyword — поиск подстроки без учёта регистра по имени и описанию.
// Пустое ключевое слово совпадает с любым товаром (семантика contains).
func (p *Product) MatchesKeyword(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	return strings.Contains(strings.ToLower(p.Name), kw) ||
		strings.Contains(strings.ToLower(p.Description), kw)
}
