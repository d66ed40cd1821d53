// Package backend is the REST client for the lending backend that owns
// authentication, pools and investments.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pool-wizard/internal/common/errors"
	commonhttp "pool-wizard/internal/common/http"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/common/metrics"
	"pool-wizard/internal/models"

	"go.opentelemetry.io/otel/trace"
)

const (
	FallbackCreatePool = "Failed to create pool"
	fallbackGeneric    = "Request to the lending service failed"
)

// Client issues one request per call: no retries, no backoff. The caller's
// cookies and bearer token ride along on every request.
type Client struct {
	baseURL    string
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, tracer trace.Tracer, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: commonhttp.NewClient(timeout).WithTracer(tracer),
		logger:     log.WithFields(map[string]interface{}{"component": "backend"}),
	}
}

// Me returns the caller's profile. A 401 is not an error: it yields an
// unauthenticated profile.
func (c *Client) Me(ctx context.Context, creds models.Credentials) (*models.AuthProfile, error) {
	var profile models.AuthProfile
	err := c.do(ctx, creds, http.MethodGet, "/api/auth/me", "me", nil, &profile, fallbackGeneric)
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok && stdErr.Code == errors.ErrCodeUnauthenticated {
			return &models.AuthProfile{Authenticated: false}, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ListPools(ctx context.Context, creds models.Credentials) ([]models.Pool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, creds, http.MethodGet, "/api/pools", "list_pools", nil, &raw, "Failed to load pools"); err != nil {
		return nil, err
	}
	var pools []models.Pool
	if err := decodeList(raw, "pools", &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

func (c *Client) CreatePool(ctx context.Context, creds models.Credentials, req *models.CreatePoolRequest) (*models.Pool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, creds, http.MethodPost, "/api/pools/create", "create_pool", req, &raw, FallbackCreatePool); err != nil {
		return nil, err
	}
	return decodePool(raw)
}

func (c *Client) UpdatePool(ctx context.Context, creds models.Credentials, poolID string, update *models.PoolUpdate) (*models.Pool, error) {
	var raw json.RawMessage
	path := "/api/pools/" + url.PathEscape(poolID) + "/update"
	if err := c.do(ctx, creds, http.MethodPut, path, "update_pool", update, &raw, "Failed to update pool"); err != nil {
		return nil, err
	}
	return decodePool(raw)
}

func (c *Client) DeletePool(ctx context.Context, creds models.Credentials, poolID string) error {
	path := "/api/pools/" + url.PathEscape(poolID) + "/delete"
	return c.do(ctx, creds, http.MethodDelete, path, "delete_pool", nil, nil, "Failed to delete pool")
}

func (c *Client) GetInvestorPool(ctx context.Context, creds models.Credentials, poolID string) (*models.Pool, error) {
	var raw json.RawMessage
	path := "/api/investor/pools/" + url.PathEscape(poolID)
	if err := c.do(ctx, creds, http.MethodGet, path, "get_investor_pool", nil, &raw, "Failed to load pool"); err != nil {
		return nil, err
	}
	return decodePool(raw)
}

func (c *Client) Invest(ctx context.Context, creds models.Credentials, poolID string, amount float64) (*models.Investment, error) {
	var raw json.RawMessage
	path := "/api/investor/pools/" + url.PathEscape(poolID) + "/invest"
	body := &models.InvestRequest{Amount: amount}
	if err := c.do(ctx, creds, http.MethodPost, path, "invest", body, &raw, "Failed to create investment"); err != nil {
		return nil, err
	}
	var wrapped struct {
		Investment *models.Investment `json:"investment"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Investment != nil {
		return wrapped.Investment, nil
	}
	var inv models.Investment
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("failed to decode investment: %w", err)
	}
	return &inv, nil
}

func (c *Client) ListInvestments(ctx context.Context, creds models.Credentials) ([]models.Investment, error) {
	var raw json.RawMessage
	if err := c.do(ctx, creds, http.MethodGet, "/api/investor/investments", "list_investments", nil, &raw, "Failed to load investments"); err != nil {
		return nil, err
	}
	var investments []models.Investment
	if err := decodeList(raw, "investments", &investments); err != nil {
		return nil, err
	}
	return investments, nil
}

func (c *Client) do(
	ctx context.Context,
	creds models.Credentials,
	method, path, operation string,
	body interface{},
	out interface{},
	fallback string,
) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s body: %w", operation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.Cookie != "" {
		req.Header.Set("Cookie", creds.Cookie)
	}
	if creds.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	}

	start := time.Now()
	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(operation, "error").Observe(time.Since(start).Seconds())
		c.logger.Warn("backend unreachable", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
		return errors.NewBackendUnavailableError(path, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewBackendUnavailableError(path, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return errors.NewUnauthenticatedError(fmt.Sprintf("%s %s returned 401", method, path))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ParseErrorMessage(respBody, fallback)
		c.logger.Warn("backend request failed", map[string]interface{}{
			"operation": operation,
			"status":    resp.StatusCode,
			"message":   msg,
		})
		return errors.NewBackendRequestFailedError(path, resp.StatusCode, msg)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

// ParseErrorMessage extracts the backend's {error} text, falling back when
// the body is not JSON or carries no message.
func ParseErrorMessage(body []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Message != "" {
		return payload.Message
	}
	return fallback
}

// decodePool accepts both {"pool": {...}} and a bare pool object.
func decodePool(raw json.RawMessage) (*models.Pool, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty pool response")
	}
	var wrapped struct {
		Pool *models.Pool `json:"pool"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Pool != nil {
		return wrapped.Pool, nil
	}
	var pool models.Pool
	if err := json.Unmarshal(raw, &pool); err != nil {
		return nil, fmt.Errorf("failed to decode pool: %w", err)
	}
	return &pool, nil
}

// decodeList accepts both a bare array and an object holding it under key.
func decodeList(raw json.RawMessage, key string, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(inner, out)
}
