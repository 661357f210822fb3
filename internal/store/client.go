package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"cvsync/internal/config"
	"cvsync/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Record is one row in the remote table
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Client talks to an Airtable-compatible record store. In mock mode no
// network calls are made and writes return synthetic records, which keeps
// dry runs and local development working without credentials.
type Client struct {
	cfg        config.StoreConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	fields     *fieldCache
	logger     *errors.Logger
}

// New creates a record store client from configuration
func New(cfg config.StoreConfig, logger *errors.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		fields:  newFieldCache(cfg.FieldCacheTTL),
		logger:  logger,
	}
}

// MockMode reports whether the client runs without a live store
func (c *Client) MockMode() bool {
	return c.cfg.MockMode
}

// Table returns the configured default table name
func (c *Client) Table() string {
	return c.cfg.Table
}

// DedupeField returns the configured deduplication key field
func (c *Client) DedupeField() string {
	return c.cfg.DedupeField
}

// TableFields returns the field names of a table, discovered from its most
// recent record and sorted lexicographically. The record's fields arrive as a
// JSON object, so sorting is what makes the returned order deterministic;
// downstream mapping generation treats field order as meaningful. An empty
// table yields an empty list: field names cannot be inferred without at least
// one record. Unauthorized responses degrade to an empty list with a logged
// error, matching how field discovery is advisory rather than load-bearing.
// Results are cached per table.
func (c *Client) TableFields(ctx context.Context, table string, forceRefresh bool) ([]string, error) {
	if !forceRefresh {
		if fields, ok := c.fields.get(table); ok {
			return fields, nil
		}
	}

	if c.cfg.MockMode {
		c.logger.Info("Store in mock mode, returning empty field list", "table", table)
		return []string{}, nil
	}

	query := url.Values{"maxRecords": {"1"}}
	resp, body, err := c.doRequest(ctx, http.MethodGet, c.tableURL(table)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeStoreUnavailable,
			"Failed to fetch table fields", err).WithContext("table", table)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.LogError(
			errors.NewStoreError(errors.ErrCodeStoreUnauthorized, "Store rejected credentials", nil),
			"Unauthorized when fetching table fields; check the store API key",
			"table", table,
			"status", resp.StatusCode)
		return []string{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, body, "Failed to fetch table fields", table)
	}

	var listing struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreUnavailable,
			"Failed to decode table listing", err).WithContext("table", table)
	}

	if len(listing.Records) == 0 {
		c.logger.Info("No records in table, returning empty field list", "table", table)
		c.fields.set(table, nil)
		return []string{}, nil
	}

	fieldNames := make([]string, 0, len(listing.Records[0].Fields))
	for name := range listing.Records[0].Fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)
	c.fields.set(table, fieldNames)
	c.logger.Info("Discovered table fields", "table", table, "count", len(fieldNames))
	return fieldNames, nil
}

// RecordExists reports whether a record with the given key value exists
func (c *Client) RecordExists(ctx context.Context, table, keyField, keyValue string) (bool, error) {
	if c.cfg.MockMode {
		return false, nil
	}

	formula := fmt.Sprintf("{%s}='%s'", keyField, escapeFormulaValue(keyValue))
	query := url.Values{
		"filterByFormula": {formula},
		"maxRecords":      {"1"},
	}
	resp, body, err := c.doRequest(ctx, http.MethodGet, c.tableURL(table)+"?"+query.Encode(), nil)
	if err != nil {
		return false, errors.NewNetworkError(errors.ErrCodeStoreUnavailable,
			"Failed to check record existence", err).WithContext("table", table)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("Unauthorized when checking record existence; treating as absent",
			"table", table,
			"status", resp.StatusCode)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, c.statusError(resp.StatusCode, body, "Existence check failed", table)
	}

	var listing struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return false, errors.NewStoreError(errors.ErrCodeStoreUnavailable,
			"Failed to decode existence check response", err).WithContext("table", table)
	}

	return len(listing.Records) > 0, nil
}

// CreateRecord inserts a new record. Unauthorized responses degrade to a
// synthetic mock record with a logged error instead of failing the import;
// 422 responses surface the store's validation detail so the offending
// payload can be fixed.
func (c *Client) CreateRecord(ctx context.Context, table, keyValue string, fields map[string]any) (*Record, error) {
	if c.cfg.MockMode {
		rec := &Record{ID: mockID(keyValue), Fields: fields}
		c.logger.Info("Store in mock mode, returning mock record", "table", table, "id", rec.ID)
		return rec, nil
	}

	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, errors.NewInternalError("STORE_ENCODE_FAILED", "Cannot encode record payload", err)
	}

	resp, body, err := c.doRequest(ctx, http.MethodPost, c.tableURL(table), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeStoreUnavailable,
			"Failed to create record", err).WithContext("table", table)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		rec := &Record{ID: mockID(keyValue), Fields: fields}
		c.logger.LogError(
			errors.NewStoreError(errors.ErrCodeStoreUnauthorized, "Store rejected credentials", nil),
			"Unauthorized creating record; returning mock record, check the store API key",
			"table", table,
			"status", resp.StatusCode,
			"id", rec.ID)
		return rec, nil

	case resp.StatusCode == http.StatusUnprocessableEntity:
		detail := truncate(string(body), 2000)
		c.logger.LogError(
			errors.NewStoreError(errors.ErrCodeStoreUnprocessable, "Store rejected record payload", nil),
			"Record payload rejected by store",
			"table", table,
			"detail", detail,
			"payload", string(payload))
		return nil, errors.NewStoreError(errors.ErrCodeStoreUnprocessable,
			"Store rejected record payload", nil).
			WithContext("table", table).
			WithContext("detail", detail)

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, c.statusError(resp.StatusCode, body, "Failed to create record", table)
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreUnavailable,
			"Failed to decode created record", err).WithContext("table", table)
	}
	return &rec, nil
}

// doRequest performs one rate-limited, instrumented HTTP request and reads
// the full body
func (c *Client) doRequest(ctx context.Context, method, requestURL string, body io.Reader) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"),
		c.cfg.BaseID,
		url.PathEscape(table))
}

func (c *Client) statusError(status int, body []byte, message, table string) error {
	return errors.NewStoreError(errors.ErrCodeStoreUnavailable, message, nil).
		WithContext("table", table).
		WithContext("status", status).
		WithContext("detail", truncate(string(body), 1000))
}

// escapeFormulaValue escapes single quotes for use inside a filterByFormula
// string literal
func escapeFormulaValue(value string) string {
	return strings.ReplaceAll(value, "'", `\'`)
}

func mockID(keyValue string) string {
	return "mock-" + strings.ReplaceAll(keyValue, " ", "_")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
