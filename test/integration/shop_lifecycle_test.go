package integration

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

// ShopLifecycleTestSuite тестирует сквозные сценарии магазина:
// размещение заказа, отмену, возврат и резервирование корзины —
// с проверкой, что журнал движений сходится с остатками.
type ShopLifecycleTestSuite struct {
	suite.Suite
	catalog   domain.CatalogRepository
	movements domain.MovementRepository

	ledger      *stock.Ledger
	lifecycle   *order.Lifecycle
	reservation *cart.Reservation

	initialStock map[string]int64
}

func (suite *ShopLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.catalog = memory.NewCatalogRepository()
	suite.movements = memory.NewMovementRepository()
	orders := memory.NewOrderRepository()
	carts := memory.NewCartRepository()
	outbox := memory.NewOutboxRepository()

	suite.ledger = stock.NewLedgerWithoutMetrics(suite.catalog, suite.movements, outbox, logger)
	suite.lifecycle = order.NewLifecycleWithoutMetrics(orders, suite.catalog, suite.ledger, outbox, logger)
	suite.reservation = cart.NewReservationWithoutMetrics(carts, suite.catalog, suite.ledger, outbox, logger)

	suite.initialStock = map[string]int64{
		"product-1": 10,
		"product-2": 5,
	}

	require.NoError(suite.T(), suite.catalog.Create(domain.Product{
		ID:          "product-1",
		Name:        "kettle",
		Brand:       "Acme",
		Description: "steel kettle",
		PriceMinor:  200,
		Stock:       suite.initialStock["product-1"],
	}))
	require.NoError(suite.T(), suite.catalog.Create(domain.Product{
		ID:          "product-2",
		Name:        "teapot",
		Brand:       "Acme",
		Description: "ceramic teapot",
		PriceMinor:  300,
		Stock:       suite.initialStock["product-2"],
	}))
}

// requireLedgerReconciles проверяет сквозной инвариант:
// начальный остаток плюс сумма дельт журнала равны текущему остатку.
func (suite *ShopLifecycleTestSuite) requireLedgerReconciles() {
	for productID, initial := range suite.initialStock {
		stored, err := suite.catalog.Get(productID)
		require.NoError(suite.T(), err)

		movements, err := suite.movements.ListByProduct(productID)
		require.NoError(suite.T(), err)

		require.Equal(suite.T(), stored.Stock, initial+domain.SumDeltas(movements),
			"ledger must reconcile for %s", productID)
	}
}

func (suite *ShopLifecycleTestSuite) stockOf(productID string) int64 {
	product, err := suite.catalog.Get(productID)
	require.NoError(suite.T(), err)
	return product.Stock
}

func (suite *ShopLifecycleTestSuite) TestOrderRefundLifecycle() {
	// 1. Размещаем заказ на две позиции
	placed, err := suite.lifecycle.Place("o1", []domain.OrderLine{
		{ProductID: "product-1", Qty: 2},
		{ProductID: "product-2", Qty: 1},
	}, "")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusProcessing, placed.Status)
	require.Equal(suite.T(), int64(700), placed.TotalMinor())

	require.Equal(suite.T(), int64(8), suite.stockOf("product-1"))
	require.Equal(suite.T(), int64(4), suite.stockOf("product-2"))

	// 2. Завершаем заказ
	completed, err := suite.lifecycle.UpdateStatus("o1", domain.OrderStatusCompleted)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCompleted, completed.Status)

	// 3. Оформляем возврат: сток возвращается на склад
	refunded, err := suite.lifecycle.Refund("o1")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusRefunded, refunded.Status)

	require.Equal(suite.T(), int64(10), suite.stockOf("product-1"))
	require.Equal(suite.T(), int64(5), suite.stockOf("product-2"))

	// 4. Повторный возврат отклоняется
	_, err = suite.lifecycle.Refund("o1")
	require.ErrorIs(suite.T(), err, domain.ErrAlreadyRefunded)

	require.Equal(suite.T(), int64(10), suite.stockOf("product-1"))
	suite.requireLedgerReconciles()
}

func (suite *ShopLifecycleTestSuite) TestOrderCancellationRestoresStock() {
	_, err := suite.lifecycle.Place("o2", []domain.OrderLine{
		{ProductID: "product-1", Qty: 3},
	}, "")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(7), suite.stockOf("product-1"))

	canceled, err := suite.lifecycle.Cancel("o2")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCanceled, canceled.Status)
	require.Equal(suite.T(), int64(10), suite.stockOf("product-1"))

	// Отменённый заказ нельзя ни отменить повторно, ни вернуть
	_, err = suite.lifecycle.Cancel("o2")
	require.ErrorIs(suite.T(), err, domain.ErrOrderNotCancelable)
	_, err = suite.lifecycle.Refund("o2")
	require.ErrorIs(suite.T(), err, domain.ErrOrderNotRefundable)

	suite.requireLedgerReconciles()
}

func (suite *ShopLifecycleTestSuite) TestCartReservationAndTotal() {
	reserved, err := suite.reservation.Reserve("c1", []domain.CartItem{
		{ProductID: "product-1", Qty: 1},
		{ProductID: "product-2", Qty: 2},
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), reserved.Items, 2)

	// Резерв списывает сток сразу
	require.Equal(suite.T(), int64(9), suite.stockOf("product-1"))
	require.Equal(suite.T(), int64(3), suite.stockOf("product-2"))

	total, err := suite.reservation.Total(reserved.Items)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(800), total) // 1*200 + 2*300

	// Снятие резерва возвращает сток
	_, err = suite.ledger.ReleaseReserved("product-1", 1)
	require.NoError(suite.T(), err)
	_, err = suite.ledger.ReleaseReserved("product-2", 2)
	require.NoError(suite.T(), err)

	require.Equal(suite.T(), int64(10), suite.stockOf("product-1"))
	require.Equal(suite.T(), int64(5), suite.stockOf("product-2"))
	suite.requireLedgerReconciles()
}

func (suite *ShopLifecycleTestSuite) TestInsufficientStockLeavesNoTrace() {
	_, err := suite.lifecycle.Place("o3", []domain.OrderLine{
		{ProductID: "product-1", Qty: 2},
		{ProductID: "product-2", Qty: 6}, // больше, чем есть на складе
	}, "")
	require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)

	// Ничего не списано и не сохранено
	require.Equal(suite.T(), int64(10), suite.stockOf("product-1"))
	require.Equal(suite.T(), int64(5), suite.stockOf("product-2"))
	_, err = suite.lifecycle.Get("o3")
	require.ErrorIs(suite.T(), err, domain.ErrOrderNotFound)

	suite.requireLedgerReconciles()
}

func (suite *ShopLifecycleTestSuite) TestGoodsFlowAndSearch() {
	_, err := suite.ledger.GoodsIn("product-1", 5)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(15), suite.stockOf("product-1"))

	_, err = suite.ledger.GoodsOut("product-1", 4)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(11), suite.stockOf("product-1"))

	_, err = suite.ledger.GoodsOut("product-1", 100)
	require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)

	found, err := suite.reservation.Search("teapot")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), found, 1)
	require.Equal(suite.T(), "product-2", found[0].ID)

	suite.requireLedgerReconciles()
}

func TestShopLifecycleSuite(t *testing.T) {
	suite.Run(t, new(ShopLifecycleTestSuite))
}
