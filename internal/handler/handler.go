package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nathanyu/matching-engine/internal/book"
	"github.com/nathanyu/matching-engine/internal/domain"
)

// scale is the fixed-point wire scale: two decimal places for both prices
// (ticks) and quantities (lots). Finer fractions are rejected, never
// rounded, so remaining-quantity arithmetic stays exact.
var scale = decimal.NewFromInt(100)

// Handler holds the HTTP handler dependencies.
type Handler struct {
	engine *book.Engine
}

// NewHandler creates a new Handler.
func NewHandler(engine *book.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes sets up the Gin routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/order", h.PlaceOrder)
	r.GET("/orderbook", h.GetOrderBook)
	r.GET("/health", h.Health)
}

// Health returns a health check response.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// placeOrderRequest is the request body for placing an order.
type placeOrderRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Side   domain.Side     `json:"type" binding:"required"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// orderResponse is the public order shape. Prices and quantities go out as
// plain numbers, converted back from the internal fixed-point units.
type orderResponse struct {
	ID        uint64  `json:"id"`
	UserID    string  `json:"userId"`
	Side      string  `json:"type"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Remaining float64 `json:"remaining"`
	Status    string  `json:"status"`
}

func toResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Side:      string(o.Side),
		Price:     fromFixed(o.Price),
		Amount:    fromFixed(o.Amount),
		Remaining: fromFixed(o.Remaining),
		Status:    string(o.Status),
	}
}

// toFixed converts a wire decimal into internal fixed-point units.
func toFixed(d decimal.Decimal) (int64, bool) {
	scaled := d.Mul(scale)
	if !scaled.IsInteger() {
		return 0, false
	}
	return scaled.IntPart(), true
}

func fromFixed(v int64) float64 {
	return decimal.NewFromInt(v).Div(scale).InexactFloat64()
}

// PlaceOrder handles POST /order.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, ok := toFixed(req.Price)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price has more than 2 decimal places"})
		return
	}
	amount, ok := toFixed(req.Amount)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount has more than 2 decimal places"})
		return
	}

	order, err := h.engine.Submit(c.Request.Context(), req.UserID, req.Side, price, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(order))
}

// GetOrderBook handles GET /orderbook.
func (h *Handler) GetOrderBook(c *gin.Context) {
	snap, err := h.engine.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	buys := make([]orderResponse, 0, len(snap.BuyOrders))
	for _, o := range snap.BuyOrders {
		buys = append(buys, toResponse(o))
	}
	sells := make([]orderResponse, 0, len(snap.SellOrders))
	for _, o := range snap.SellOrders {
		sells = append(sells, toResponse(o))
	}

	c.JSON(http.StatusOK, gin.H{
		"buy_orders":  buys,
		"sell_orders": sells,
	})
}
