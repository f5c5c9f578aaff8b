package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"order-gateway/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrUpstream means the call itself failed: network error, timeout,
	// or an unreadable response. The caller sees a generic 502.
	ErrUpstream = errors.New("upstream service error")

	// ErrRejected means the procedure refused the order (invalid tenant,
	// foreign product, and so on). Detail is logged, never disclosed.
	ErrRejected = errors.New("order rejected by backend")

	// ErrBadResponse means the procedure answered success with a payload
	// missing order_id or total, which indicates a gateway/backend
	// version mismatch rather than a caller mistake.
	ErrBadResponse = errors.New("unexpected rpc response")
)

const rpcPath = "/rest/v1/rpc/create_order_public"

const callTimeout = 30 * time.Second

// Client invokes the authoritative create_order_public procedure over
// the backend's REST RPC surface. It is stateless and safe for
// concurrent use.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client for the given backend. The anon key is the
// fixed low-privilege credential used for every call.
func NewClient(baseURL, anonKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: callTimeout,
		},
		log: log,
	}
}

// rpcRequest mirrors the procedure's named parameters.
type rpcRequest struct {
	TenantID   *string            `json:"p_tenant_id"`
	TenantSlug *string            `json:"p_tenant_slug"`
	Items      []models.OrderItem `json:"p_items"`
}

// rpcRow is one result row. Pointer fields distinguish a missing or
// null value from a zero value.
type rpcRow struct {
	OrderID *string          `json:"order_id"`
	Total   *decimal.Decimal `json:"total"`
}

// CreateOrder invokes the procedure with an already-validated command
// and normalizes its reply into an OrderResult.
func (c *Client) CreateOrder(ctx context.Context, cmd models.OrderCommand) (*models.OrderResult, error) {
	body, err := json.Marshal(rpcRequest{
		TenantID:   cmd.TenantID,
		TenantSlug: cmd.TenantSlug,
		Items:      cmd.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+rpcPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}

	callID := uuid.New().String()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("X-Request-ID", callID)

	// The backend call runs with the fixed anon key; the caller's own
	// credential replaces it only when forwarding was opted into.
	if cmd.AuthHeader != "" {
		req.Header.Set("Authorization", cmd.AuthHeader)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("create_order_public invocation failed",
			"call_id", callID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.log.Error("failed to read rpc response",
			"call_id", callID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Business rejection. Log the backend's error but keep tenant
		// and product existence out of the public response.
		c.log.Warn("create_order_public rejected order",
			"call_id", callID,
			"status", resp.StatusCode,
			"body", string(raw),
		)
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	row, err := decodeRow(raw)
	if err != nil {
		c.log.Error("malformed create_order_public response",
			"call_id", callID,
			"body", string(raw),
			"error", err,
		)
		return nil, err
	}

	return &models.OrderResult{
		OrderID: *row.OrderID,
		Total:   *row.Total,
	}, nil
}

// decodeRow normalizes the procedure's reply. A TABLE/SETOF return
// arrives as an array; take its first element. Either shape must carry
// a non-empty order_id and a non-null total.
func decodeRow(raw []byte) (*rpcRow, error) {
	trimmed := bytes.TrimSpace(raw)

	var row rpcRow
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []rpcRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: empty result set", ErrBadResponse)
		}
		row = rows[0]
	} else {
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	}

	if row.OrderID == nil || *row.OrderID == "" {
		return nil, fmt.Errorf("%w: missing order_id", ErrBadResponse)
	}
	if row.Total == nil {
		return nil, fmt.Errorf("%w: missing total", ErrBadResponse)
	}

	return &row, nil
}
