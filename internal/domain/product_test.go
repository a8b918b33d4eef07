package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestProductValidateInvariants(t *testing.T) {
	product := domain.Product{ID: "product-1", Name: "mug", PriceMinor: 150, Stock: 4}
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	product.Stock = -1
	product.PriceMinor = -10
	product.ID = ""
	if errs := product.ValidateInvariants(); len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", errs)
	}
}

func TestProductMatchesKeyword(t *testing.T) {
	product := domain.Product{
		ID:          "product-1",
		Name:        "Steel Water Bottle",
		Description: "Insulated bottle for hiking",
	}

	cases := []struct {
		keyword string
		want    bool
	}{
		{"steel", true},
		{"BOTTLE", true},
		{"  hiking  ", true},
		{"glass", false},
		{"", true}, // пустое слово совпадает со всем
	}

	for _, tc := range cases {
		if got := product.MatchesKeyword(tc.keyword); got != tc.want {
			t.Errorf("MatchesKeyword(%q) = %v, want %v", tc.keyword, got, tc.want)
		}
	}
}
