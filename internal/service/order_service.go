package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"order-gateway/internal/models"
)

// Abuse limits for the public endpoint. The backend validates again;
// these bounds just keep oversized payloads from ever reaching it.
const (
	MaxItems           = 100
	MaxQuantity        = 10000
	MaxProductIDLength = 200
)

var (
	ErrMissingTenant    = errors.New("tenant_id or tenant_slug is required")
	ErrEmptyItems       = errors.New("items must be a non-empty array")
	ErrTooManyItems     = errors.New("too many items")
	ErrMissingProductID = errors.New("each item must have product_id")
	ErrProductIDTooLong = errors.New("product_id is too long")
	ErrInvalidQuantity  = errors.New("item quantity must be a positive integer")
	ErrQuantityTooLarge = errors.New("item quantity exceeds limit")
)

// OrderCreator is the authoritative order-creation procedure. It owns
// tenant resolution, product membership checks, pricing, and persistence.
type OrderCreator interface {
	CreateOrder(ctx context.Context, cmd models.OrderCommand) (*models.OrderResult, error)
}

// OrderService validates public order requests and delegates the
// validated command to the backend. It never computes prices and keeps
// no state between calls.
type OrderService struct {
	backend OrderCreator
}

// NewOrderService creates a new order service
func NewOrderService(backend OrderCreator) *OrderService {
	return &OrderService{
		backend: backend,
	}
}

// CreateOrder validates the request and forwards it to the backend.
// Validation is first-failure-wins: the first violated rule aborts the
// whole request and nothing is sent upstream. authHeader must already
// be filtered by the caller's forwarding policy; empty means the
// backend is called with its own credential only.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest, authHeader string) (*models.OrderResult, error) {
	cmd, err := normalize(req)
	if err != nil {
		return nil, err
	}
	cmd.AuthHeader = authHeader

	return s.backend.CreateOrder(ctx, cmd)
}

// normalize turns an untrusted request into a validated command.
func normalize(req models.OrderRequest) (models.OrderCommand, error) {
	var cmd models.OrderCommand

	tenantID := strings.TrimSpace(req.TenantID)
	tenantSlug := strings.TrimSpace(req.TenantSlug)
	if tenantID == "" && tenantSlug == "" {
		return cmd, ErrMissingTenant
	}
	if tenantID != "" {
		cmd.TenantID = &tenantID
	}
	if tenantSlug != "" {
		cmd.TenantSlug = &tenantSlug
	}

	if len(req.Items) == 0 {
		return cmd, ErrEmptyItems
	}
	if len(req.Items) > MaxItems {
		return cmd, ErrTooManyItems
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			return cmd, ErrMissingProductID
		}
		if len(productID) > MaxProductIDLength {
			return cmd, ErrProductIDTooLong
		}

		q := item.Quantity
		if math.IsInf(q, 0) || math.IsNaN(q) || q != math.Trunc(q) || q <= 0 {
			return cmd, ErrInvalidQuantity
		}
		if q > MaxQuantity {
			return cmd, ErrQuantityTooLarge
		}

		items = append(items, models.OrderItem{
			ProductID: productID,
			Quantity:  int(q),
		})
	}
	cmd.Items = items

	return cmd, nil
}
