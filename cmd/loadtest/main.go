package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Утилита нагрузочного прогона: создаёт товар с заданным остатком, конкурентно
// размещает заказы на одну единицу и проверяет, что остаток не ушёл в минус и
// сходится с числом успешных заказов.

type config struct {
	addr        string
	total       int
	concurrency int
	stock       int64
	timeout     time.Duration
}

type summary struct {
	Total        int     `json:"total"`
	Placed       int64   `json:"placed"`
	Conflicts    int64   `json:"conflicts"`
	Errors       int64   `json:"errors"`
	DurationSec  float64 `json:"duration_sec"`
	FinalStock   int64   `json:"final_stock"`
	StockMatches bool    `json:"stock_matches"`
}

type productResponse struct {
	ID    string `json:"id"`
	Stock int64  `json:"stock"`
}

func main() {
	cfg := readFlags()

	client := &http.Client{Timeout: cfg.timeout}
	productID, err := createProduct(client, cfg)
	if err != nil {
		fail("create product: %v", err)
	}
	fmt.Printf("seeded product %s with stock %d\n", productID, cfg.stock)

	var placed, conflicts, errCount int64
	start := time.Now()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				switch code, err := placeOrder(client, cfg.addr, productID); {
				case err != nil:
					atomic.AddInt64(&errCount, 1)
				case code == http.StatusCreated:
					atomic.AddInt64(&placed, 1)
				case code == http.StatusConflict:
					atomic.AddInt64(&conflicts, 1)
				default:
					atomic.AddInt64(&errCount, 1)
				}
			}
		}()
	}
	for i := 0; i < cfg.total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	finalStock, err := fetchStock(client, cfg.addr, productID)
	if err != nil {
		fail("fetch final stock: %v", err)
	}

	result := summary{
		Total:        cfg.total,
		Placed:       placed,
		Conflicts:    conflicts,
		Errors:       errCount,
		DurationSec:  time.Since(start).Seconds(),
		FinalStock:   finalStock,
		StockMatches: finalStock >= 0 && finalStock == cfg.stock-placed,
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.StockMatches {
		fail("stock invariant violated: initial=%d placed=%d final=%d", cfg.stock, placed, finalStock)
	}
}

func readFlags() config {
	var cfg config
	flag.StringVar(&cfg.addr, "addr", "http://localhost:8080", "shop-service base URL")
	flag.IntVar(&cfg.total, "total", 200, "total orders to place")
	flag.IntVar(&cfg.concurrency, "concurrency", 16, "concurrent workers")
	flag.Int64Var(&cfg.stock, "stock", 100, "initial stock of the seeded product")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	if cfg.total <= 0 || cfg.concurrency <= 0 || cfg.stock < 0 {
		fail("invalid flags: total=%d concurrency=%d stock=%d", cfg.total, cfg.concurrency, cfg.stock)
	}
	return cfg
}

func createProduct(client *http.Client, cfg config) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"name":        fmt.Sprintf("loadtest-%d", time.Now().UnixNano()),
		"price_minor": 100,
		"stock":       cfg.stock,
	})
	resp, err := client.Post(cfg.addr+"/products", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var created productResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func placeOrder(client *http.Client, addr, productID string) (int, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "qty": 1},
		},
	})
	resp, err := client.Post(addr+"/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func fetchStock(client *http.Client, addr, productID string) (int64, error) {
	resp, err := client.Get(addr + "/products/" + productID)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var product productResponse
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return 0, err
	}
	return product.Stock, nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
