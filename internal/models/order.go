package models

import "github.com/shopspring/decimal"

func init() {
	// Totals travel as bare JSON numbers on both sides of the gateway.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderRequest represents an incoming public order request.
// The payload is untrusted; every field is validated before anything
// is forwarded to the backend.
type OrderRequest struct {
	TenantID   string           `json:"tenant_id"`
	TenantSlug string           `json:"tenant_slug"`
	Items      []OrderItemInput `json:"items"`
}

// OrderItemInput is a raw line item as submitted by the client.
// Quantity is decoded as float64 so a fractional value like 1.5 reaches
// validation and gets a precise error instead of a generic decode failure.
type OrderItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// OrderItem is a validated, normalized line item.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderCommand is the normalized command sent to the authoritative
// order-creation procedure. Tenant references are pointers so an absent
// reference is forwarded as null; the backend resolves id before slug.
type OrderCommand struct {
	TenantID   *string
	TenantSlug *string
	Items      []OrderItem

	// AuthHeader carries the caller's Authorization header, set only
	// when forwarding is explicitly enabled in configuration.
	AuthHeader string
}

// OrderResult is the public success payload. No other backend fields
// are ever exposed to the caller.
type OrderResult struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}
