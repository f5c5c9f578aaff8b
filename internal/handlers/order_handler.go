package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"order-gateway/internal/config"
	"order-gateway/internal/models"
	"order-gateway/internal/rpc"
	"order-gateway/internal/service"
)

// OrderHandler is the public trust boundary for order creation. It
// gates the request shape, hands validation to the order service, and
// translates every failure into the public error contract. Backend
// detail stays in the logs.
type OrderHandler struct {
	orderService *service.OrderService
	cfg          *config.Config
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, cfg *config.Config, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		cfg:          cfg,
		log:          log,
	}
}

// CreateOrder handles POST /
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "application/json") {
		WriteError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", h.log)
		return
	}

	if !h.cfg.BackendConfigured() {
		h.log.Error("backend URL or anon key is not configured")
		WriteError(w, http.StatusInternalServerError, "Server misconfigured", h.log)
		return
	}

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("failed to decode order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid JSON body", h.log)
		return
	}

	// Caller credentials are never forwarded unless explicitly opted in;
	// the backend call itself always runs with the fixed anon key.
	authHeader := ""
	if h.cfg.Backend.ForwardAuthHeader {
		authHeader = r.Header.Get("Authorization")
	}

	result, err := h.orderService.CreateOrder(r.Context(), req, authHeader)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result, h.log)
	h.log.Info("order created", "order_id", result.OrderID, "total", result.Total)
}

// writeOrderError maps validation and backend failures onto the public
// response contract. Validation errors describe the caller's own input
// precisely; anything from the backend stays generic.
func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingTenant):
		WriteError(w, http.StatusBadRequest, "tenant_id or tenant_slug is required", h.log)
	case errors.Is(err, service.ErrEmptyItems):
		WriteError(w, http.StatusBadRequest, "items must be a non-empty array", h.log)
	case errors.Is(err, service.ErrTooManyItems):
		WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Too many items; max %d", service.MaxItems), h.log)
	case errors.Is(err, service.ErrMissingProductID):
		WriteError(w, http.StatusBadRequest, "Each item must have product_id", h.log)
	case errors.Is(err, service.ErrProductIDTooLong):
		WriteError(w, http.StatusBadRequest, "product_id is too long", h.log)
	case errors.Is(err, service.ErrInvalidQuantity):
		WriteError(w, http.StatusBadRequest, "Each item.quantity must be a positive integer", h.log)
	case errors.Is(err, service.ErrQuantityTooLarge):
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("item.quantity exceeds limit %d", service.MaxQuantity), h.log)
	case errors.Is(err, rpc.ErrUpstream):
		h.log.Error("order backend unreachable", "error", err)
		WriteError(w, http.StatusBadGateway, "Upstream service error", h.log)
	case errors.Is(err, rpc.ErrRejected):
		h.log.Warn("order rejected by backend", "error", err)
		WriteError(w, http.StatusBadRequest, "Could not create order", h.log)
	case errors.Is(err, rpc.ErrBadResponse):
		h.log.Error("backend returned malformed success payload", "error", err)
		WriteError(w, http.StatusInternalServerError, "Unexpected RPC response", h.log)
	default:
		h.log.Error("order creation failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
