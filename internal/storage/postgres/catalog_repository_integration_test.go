package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func sampleProduct(id, name string, stock int64, createdAt time.Time) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Brand:       "acme",
		Description: "integration test product",
		Color:       "black",
		Size:        "m",
		PriceMinor:  1250,
		Stock:       stock,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestCatalogRepository_PostgresCreateGetSaveSearch(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if err := repo.Create(sampleProduct("product-1", "steel kettle", 10, now)); err != nil {
		t.Fatalf("create product-1: %v", err)
	}
	if err := repo.Create(sampleProduct("product-2", "ceramic teapot", 5, now)); err != nil {
		t.Fatalf("create product-2: %v", err)
	}

	got, err := repo.Get("product-1")
	if err != nil {
		t.Fatalf("get product-1: %v", err)
	}
	if got.Name != "steel kettle" || got.Stock != 10 || got.Version != 0 {
		t.Fatalf("unexpected product payload: %+v", got)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	got.Stock = 7
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Save(got); err != nil {
		t.Fatalf("save product: %v", err)
	}

	updated, err := repo.Get("product-1")
	if err != nil {
		t.Fatalf("get updated product: %v", err)
	}
	if updated.Stock != 7 || updated.Version != 1 {
		t.Fatalf("expected stock 7 version 1, got %+v", updated)
	}

	// Save со старой версией должен вернуть конфликт.
	if err := repo.Save(got); !errors.Is(err, domain.ErrProductVersionConflict) {
		t.Fatalf("expected ErrProductVersionConflict, got %v", err)
	}

	found, err := repo.Search("  KETTLE  ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "product-1" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	all, err := repo.Search("")
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
}
