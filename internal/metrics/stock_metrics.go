package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics содержит метрики для операций склада и жизненного цикла заказов.
type StockMetrics struct {
	// Счётчики движений склада по источнику
	movements *prometheus.CounterVec

	// Отказы по нехватке стока и retry при конфликте версий
	insufficientStock prometheus.Counter
	conflictRetries   prometheus.Counter

	// Счётчики операций жизненного цикла
	ordersPlaced   prometheus.Counter
	ordersCanceled prometheus.Counter
	ordersRefunded prometheus.Counter
	cartsReserved  prometheus.Counter

	// Гистограмма времени adjust-операции
	adjustDuration prometheus.Histogram

	// Счётчик событий, поставленных в outbox
	outboxEvents prometheus.Counter
}

// NewStockMetrics создаёт новый экземпляр метрик склада.
func NewStockMetrics() *StockMetrics {
	return newStockMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newStockMetricsWithRegisterer(registerer prometheus.Registerer) *StockMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StockMetrics{
		movements: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_stock_movements_total",
			Help: "Total number of stock movements recorded, by source",
		}, []string{"source"}),
		insufficientStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_stock_insufficient_total",
			Help: "Total number of stock adjustments rejected for insufficient stock",
		}),
		conflictRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_stock_conflict_retries_total",
			Help: "Total number of version-conflict retries during stock adjustments",
		}),
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		ordersCanceled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_canceled_total",
			Help: "Total number of orders canceled",
		}),
		ordersRefunded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_refunded_total",
			Help: "Total number of orders refunded",
		}),
		cartsReserved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_carts_reserved_total",
			Help: "Total number of carts with reserved stock",
		}),
		adjustDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_stock_adjust_duration_seconds",
			Help:    "Duration of stock adjust operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of events enqueued to the outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordMovement увеличивает счётчик движений для источника.
func (m *StockMetrics) RecordMovement(source string) {
	m.movements.WithLabelValues(source).Inc()
}

// RecordInsufficientStock увеличивает счётчик отказов по нехватке стока.
func (m *StockMetrics) RecordInsufficientStock() {
	m.insufficientStock.Inc()
}

// RecordConflictRetry увеличивает счётчик retry при конфликте версий.
func (m *StockMetrics) RecordConflictRetry() {
	m.conflictRetries.Inc()
}

// RecordOrderPlaced увеличивает счётчик размещённых заказов.
func (m *StockMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordOrderCanceled увеличивает счётчик отменённых заказов.
func (m *StockMetrics) RecordOrderCanceled() {
	m.ordersCanceled.Inc()
}

// RecordOrderRefunded увеличивает счётчик возвращённых заказов.
func (m *StockMetrics) RecordOrderRefunded() {
	m.ordersRefunded.Inc()
}

// RecordCartReserved увеличивает счётчик зарезервированных корзин.
func (m *StockMetrics) RecordCartReserved() {
	m.cartsReserved.Inc()
}

// RecordAdjustDuration записывает время выполнения adjust-операции.
func (m *StockMetrics) RecordAdjustDuration(duration time.Duration) {
	m.adjustDuration.Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *StockMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
