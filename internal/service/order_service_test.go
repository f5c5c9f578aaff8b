package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"order-gateway/internal/models"

	"github.com/shopspring/decimal"
)

// fakeBackend records every command it receives so tests can assert
// that invalid payloads never reach the backend.
type fakeBackend struct {
	calls  []models.OrderCommand
	result *models.OrderResult
	err    error
}

func (f *fakeBackend) CreateOrder(ctx context.Context, cmd models.OrderCommand) (*models.OrderResult, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func validItems() []models.OrderItemInput {
	return []models.OrderItemInput{{ProductID: "p1", Quantity: 2}}
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     models.OrderRequest
		wantErr error
	}{
		{
			name:    "missing tenant reference",
			req:     models.OrderRequest{Items: validItems()},
			wantErr: ErrMissingTenant,
		},
		{
			name:    "whitespace tenant reference counts as missing",
			req:     models.OrderRequest{TenantID: "   ", TenantSlug: "\t", Items: validItems()},
			wantErr: ErrMissingTenant,
		},
		{
			name:    "no items",
			req:     models.OrderRequest{TenantSlug: "pizzeria"},
			wantErr: ErrEmptyItems,
		},
		{
			name:    "empty items",
			req:     models.OrderRequest{TenantSlug: "pizzeria", Items: []models.OrderItemInput{}},
			wantErr: ErrEmptyItems,
		},
		{
			name: "too many items",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      manyItems(MaxItems + 1),
			},
			wantErr: ErrTooManyItems,
		},
		{
			name: "item without product_id",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      []models.OrderItemInput{{ProductID: "  ", Quantity: 1}},
			},
			wantErr: ErrMissingProductID,
		},
		{
			name: "product_id too long",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      []models.OrderItemInput{{ProductID: strings.Repeat("x", MaxProductIDLength+1), Quantity: 1}},
			},
			wantErr: ErrProductIDTooLong,
		},
		{
			name: "zero quantity",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      []models.OrderItemInput{{ProductID: "p1", Quantity: 0}},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      []models.OrderItemInput{{ProductID: "p1", Quantity: -3}},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "fractional quantity",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      []models.OrderItemInput{{ProductID: "p1", Quantity: 1.5}},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "quantity above limit",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      []models.OrderItemInput{{ProductID: "p1", Quantity: MaxQuantity + 1}},
			},
			wantErr: ErrQuantityTooLarge,
		},
		{
			name: "first failing item aborts the whole request",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items: []models.OrderItemInput{
					{ProductID: "p1", Quantity: 1},
					{ProductID: "", Quantity: 5},
					{ProductID: "p3", Quantity: -1},
				},
			},
			wantErr: ErrMissingProductID,
		},
		{
			name: "oversized batch rejected before item checks",
			req: models.OrderRequest{
				TenantSlug: "pizzeria",
				Items:      append(manyItems(MaxItems), models.OrderItemInput{ProductID: "", Quantity: -1}),
			},
			wantErr: ErrTooManyItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			svc := NewOrderService(backend)

			_, err := svc.CreateOrder(context.Background(), tt.req, "")

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateOrder() error = %v, want %v", err, tt.wantErr)
			}
			if len(backend.calls) != 0 {
				t.Errorf("backend was called %d times for an invalid request", len(backend.calls))
			}
		})
	}
}

func TestOrderService_CreateOrder_ValidationIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewOrderService(backend)

	req := models.OrderRequest{
		TenantSlug: "pizzeria",
		Items:      []models.OrderItemInput{{ProductID: "p1", Quantity: 0}},
	}

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(context.Background(), req, "")
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("attempt %d: error = %v, want ErrInvalidQuantity", i, err)
		}
	}
}

func TestOrderService_CreateOrder_NormalizesCommand(t *testing.T) {
	backend := &fakeBackend{
		result: &models.OrderResult{OrderID: "o1", Total: decimal.RequireFromString("42.5")},
	}
	svc := NewOrderService(backend)

	req := models.OrderRequest{
		TenantID:   "  t-123  ",
		TenantSlug: " pizzeria ",
		Items: []models.OrderItemInput{
			{ProductID: "  p1  ", Quantity: 2},
			{ProductID: "p2", Quantity: 10000},
		},
	}

	result, err := svc.CreateOrder(context.Background(), req, "Bearer caller-token")
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}
	if result.OrderID != "o1" {
		t.Errorf("order_id = %q, want o1", result.OrderID)
	}

	if len(backend.calls) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(backend.calls))
	}
	cmd := backend.calls[0]

	if cmd.TenantID == nil || *cmd.TenantID != "t-123" {
		t.Errorf("tenant_id not trimmed and forwarded: %v", cmd.TenantID)
	}
	if cmd.TenantSlug == nil || *cmd.TenantSlug != "pizzeria" {
		t.Errorf("tenant_slug not trimmed and forwarded: %v", cmd.TenantSlug)
	}
	if len(cmd.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(cmd.Items))
	}
	if cmd.Items[0].ProductID != "p1" || cmd.Items[0].Quantity != 2 {
		t.Errorf("item 0 = %+v, want p1 x2", cmd.Items[0])
	}
	if cmd.Items[1].Quantity != 10000 {
		t.Errorf("item 1 quantity = %d, want the inclusive limit", cmd.Items[1].Quantity)
	}
	if cmd.AuthHeader != "Bearer caller-token" {
		t.Errorf("auth header = %q, want caller token", cmd.AuthHeader)
	}
}

func TestOrderService_CreateOrder_SlugOnly(t *testing.T) {
	backend := &fakeBackend{
		result: &models.OrderResult{OrderID: "o2", Total: decimal.NewFromInt(10)},
	}
	svc := NewOrderService(backend)

	req := models.OrderRequest{TenantSlug: "pizzeria", Items: validItems()}
	if _, err := svc.CreateOrder(context.Background(), req, ""); err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	cmd := backend.calls[0]
	if cmd.TenantID != nil {
		t.Errorf("tenant_id = %v, want nil", cmd.TenantID)
	}
	if cmd.TenantSlug == nil || *cmd.TenantSlug != "pizzeria" {
		t.Errorf("tenant_slug = %v, want pizzeria", cmd.TenantSlug)
	}
	if cmd.AuthHeader != "" {
		t.Errorf("auth header = %q, want empty", cmd.AuthHeader)
	}
}

func TestOrderService_CreateOrder_BackendErrorPassesThrough(t *testing.T) {
	backendErr := errors.New("tenant not found")
	backend := &fakeBackend{err: backendErr}
	svc := NewOrderService(backend)

	req := models.OrderRequest{TenantSlug: "pizzeria", Items: validItems()}
	_, err := svc.CreateOrder(context.Background(), req, "")
	if !errors.Is(err, backendErr) {
		t.Errorf("error = %v, want backend error passed through", err)
	}
}

func manyItems(n int) []models.OrderItemInput {
	items := make([]models.OrderItemInput, n)
	for i := range items {
		items[i] = models.OrderItemInput{ProductID: "p1", Quantity: 1}
	}
	return items
}
