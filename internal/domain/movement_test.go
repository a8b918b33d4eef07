package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestMovementValidate(t *testing.T) {
	movement := domain.Movement{
		ID:        "mv-1",
		ProductID: "product-1",
		Delta:     -3,
		Source:    domain.MovementSourcePlaceOrder,
		SourceID:  "order-1",
		Occurred:  time.Now().UTC(),
	}
	if errs := movement.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	cases := []struct {
		name string
		mut  func(m *domain.Movement)
	}{
		{
			name: "no product",
			mut: func(m *domain.Movement) {
				m.ProductID = ""
			},
		},
		{
			name: "no source id",
			mut: func(m *domain.Movement) {
				m.SourceID = ""
			},
		},
		{
			name: "unknown source",
			mut: func(m *domain.Movement) {
				m.Source = domain.MovementSource("Teleport")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mut := movement
			tc.mut(&mut)
			if len(mut.Validate()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestMovementSourceValid(t *testing.T) {
	sources := []domain.MovementSource{
		domain.MovementSourcePlaceOrder,
		domain.MovementSourceCancelOrder,
		domain.MovementSourceRefundOrder,
		domain.MovementSourceGoodsIn,
		domain.MovementSourceGoodsOut,
		domain.MovementSourceReserveCart,
		domain.MovementSourceReleaseStock,
	}
	for _, s := range sources {
		if !s.Valid() {
			t.Errorf("source %s must be valid", s)
		}
	}
	if domain.MovementSource("").Valid() {
		t.Error("empty source must not be valid")
	}
}

func TestSumDeltas(t *testing.T) {
	movements := []domain.Movement{
		{Delta: -3},
		{Delta: 3},
		{Delta: 10},
		{Delta: -4},
	}
	if sum := domain.SumDeltas(movements); sum != 6 {
		t.Fatalf("expected sum 6, got %d", sum)
	}
	if sum := domain.SumDeltas(nil); sum != 0 {
		t.Fatalf("expected sum 0 for empty log, got %d", sum)
	}
}
