package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
)

// Handler — HTTP-фасад над движками магазина. Вся бизнес-логика живёт в
// сервисах, здесь только декодирование, маршрутизация и маппинг ошибок.
type Handler struct {
	Ledger    *stock.Ledger
	Orders    *order.Lifecycle
	Carts     *cart.Reservation
	Catalog   domain.CatalogRepository
	Movements domain.MovementRepository
	Logger    *log.Entry
}

// Register вешает все маршруты магазина на роутер.
func (h *Handler) Register(r *chi.Mux) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.searchProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Get("/{id}/movements", h.listMovements)
		r.Post("/{id}/goods-in", h.goodsIn)
		r.Post("/{id}/goods-out", h.goodsOut)
		r.Post("/{id}/release", h.releaseReserved)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.placeOrder)
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/cancel", h.cancelOrder)
		r.Post("/{id}/refund", h.refundOrder)
		r.Put("/{id}/status", h.updateOrderStatus)
		r.Put("/{id}/items/{productID}", h.updateOrderItemQty)
	})

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.reserveCart)
		r.Get("/{id}", h.getCart)
		r.Post("/total", h.cartTotal)
	})
}

type productPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Size        string    `json:"size,omitempty"`
	PriceMinor  int64     `json:"price_minor"`
	Stock       int64     `json:"stock"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type orderLinePayload struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type orderItemPayload struct {
	Product productPayload `json:"product"`
	Qty     int32          `json:"qty"`
}

type orderPayload struct {
	ID         string             `json:"id"`
	Items      []orderItemPayload `json:"items"`
	Status     string             `json:"status"`
	TotalMinor int64              `json:"total_minor"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type cartItemPayload struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type cartPayload struct {
	ID        string            `json:"id"`
	Items     []cartItemPayload `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
}

type movementPayload struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Delta     int64     `json:"delta"`
	Source    string    `json:"source"`
	SourceID  string    `json:"source_id"`
	Occurred  time.Time `json:"occurred_at"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.Search(r.URL.Query().Get("keyword"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]productPayload, 0, len(products))
	for _, p := range products {
		result = append(result, toProductPayload(p))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Color:       req.Color,
		Size:        req.Size,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		h.writeError(w, r, errs[0])
		return
	}
	if err := h.Catalog.Create(product); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductPayload(product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.Catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayload(product))
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.Movements.ListByProduct(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]movementPayload, 0, len(movements))
	for _, m := range movements {
		result = append(result, movementPayload{
			ID:        m.ID,
			ProductID: m.ProductID,
			Delta:     m.Delta,
			Source:    string(m.Source),
			SourceID:  m.SourceID,
			Occurred:  m.Occurred,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) goodsIn(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.Ledger.GoodsIn)
}

func (h *Handler) goodsOut(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.Ledger.GoodsOut)
}

func (h *Handler) releaseReserved(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.Ledger.ReleaseReserved)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request, apply func(string, int64) (domain.Product, error)) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	product, err := apply(chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayload(product))
}

type placeOrderRequest struct {
	ID     string             `json:"id"`
	Items  []orderLinePayload `json:"items"`
	Status string             `json:"status"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.OrderLine{ProductID: item.ProductID, Qty: item.Qty})
	}

	placed, err := h.Orders.Place(req.ID, lines, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderPayload(placed))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	found, err := h.Orders.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(found))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		found []domain.Order
		err   error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		found, err = h.Orders.ListByStatus(domain.OrderStatus(status))
	} else {
		found, err = h.Orders.ListAll()
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]orderPayload, 0, len(found))
	for _, o := range found {
		result = append(result, toOrderPayload(o))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	canceled, err := h.Orders.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(canceled))
}

func (h *Handler) refundOrder(w http.ResponseWriter, r *http.Request) {
	refunded, err := h.Orders.Refund(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(refunded))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	updated, err := h.Orders.UpdateStatus(chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(updated))
}

type updateQtyRequest struct {
	Qty int32 `json:"qty"`
}

func (h *Handler) updateOrderItemQty(w http.ResponseWriter, r *http.Request) {
	var req updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	updated, err := h.Orders.UpdateItemQty(chi.URLParam(r, "id"), chi.URLParam(r, "productID"), req.Qty)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(updated))
}

type reserveCartRequest struct {
	ID    string            `json:"id"`
	Items []cartItemPayload `json:"items"`
}

func (h *Handler) reserveCart(w http.ResponseWriter, r *http.Request) {
	var req reserveCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	reserved, err := h.Carts.Reserve(req.ID, toCartItems(req.Items))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartPayload(reserved))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	found, err := h.Carts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartPayload(found))
}

type cartTotalRequest struct {
	Items []cartItemPayload `json:"items"`
}

type cartTotalResponse struct {
	TotalMinor int64 `json:"total_minor"`
}

func (h *Handler) cartTotal(w http.ResponseWriter, r *http.Request) {
	var req cartTotalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	total, err := h.Carts.Total(toCartItems(req.Items))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartTotalResponse{TotalMinor: total})
}

// writeError переводит доменные ошибки в HTTP-статусы:
// not found -> 404, конфликты стока и версий -> 409, запрещённые переходы
// жизненного цикла -> 422, ошибки валидации -> 400, остальное -> 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrCartExists),
		domain.IsVersionConflict(err):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, domain.ErrAlreadyRefunded),
		errors.Is(err, domain.ErrOrderNotRefundable),
		errors.Is(err, domain.ErrOrderNotCancelable):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrItemNotInOrder),
		errors.Is(err, domain.ErrStatusInvalid),
		errors.Is(err, domain.ErrAmountInvalid),
		errors.Is(err, domain.ErrSourceInvalid),
		errors.Is(err, domain.ErrSourceIDRequired),
		errors.Is(err, domain.ErrProductIDRequired),
		errors.Is(err, domain.ErrPriceNegative),
		errors.Is(err, domain.ErrStockNegative):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("path", r.URL.Path).Error("internal error")
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func toProductPayload(p domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Description: p.Description,
		Color:       p.Color,
		Size:        p.Size,
		PriceMinor:  p.PriceMinor,
		Stock:       p.Stock,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toOrderPayload(o domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemPayload{Product: toProductPayload(item.Product), Qty: item.Qty})
	}
	return orderPayload{
		ID:         o.ID,
		Items:      items,
		Status:     string(o.Status),
		TotalMinor: o.TotalMinor(),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toCartPayload(c domain.Cart) cartPayload {
	items := make([]cartItemPayload, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, cartItemPayload{ProductID: item.ProductID, Qty: item.Qty})
	}
	return cartPayload{ID: c.ID, Items: items, CreatedAt: c.CreatedAt}
}

func toCartItems(items []cartItemPayload) []domain.CartItem {
	result := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		result = append(result, domain.CartItem{ProductID: item.ProductID, Qty: item.Qty})
	}
	return result
}
