package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptodash/backend/internal/models"
)

const defaultTimeout = 10 * time.Second

// SyncResult is one fresh price/volume/change reading returned by a sync call.
type SyncResult struct {
	Price            float64
	Volume           float64
	PercentChange24h float64
}

// syncPayload accepts numbers or numeric strings for each field.
type syncPayload struct {
	Price            decimal.Decimal `json:"price"`
	Volume           decimal.Decimal `json:"volume"`
	PercentChange24h decimal.Decimal `json:"percent_change_24h"`
}

// Client talks to the remote asset backend. Each call is a single round trip:
// no retries, no caching.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a client for the backend rooted at baseURL.
// A non-positive timeout falls back to the default.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("registry"),
	}
}

// List returns every asset known to the backend.
func (c *Client) List(ctx context.Context) ([]models.Asset, error) {
	assets := make([]models.Asset, 0)
	if err := c.do(ctx, fiber.MethodGet, "/cryptos", nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// Create registers a new asset.
func (c *Client) Create(ctx context.Context, in models.AssetInput) (*models.Asset, error) {
	asset := &models.Asset{}
	if err := c.do(ctx, fiber.MethodPost, "/cryptos", in, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Update replaces symbol and name of the asset with the given id.
func (c *Client) Update(ctx context.Context, id int, in models.AssetInput) (*models.Asset, error) {
	asset := &models.Asset{}
	if err := c.do(ctx, fiber.MethodPut, "/cryptos/"+strconv.Itoa(id), in, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete removes the asset with the given id.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, fiber.MethodDelete, "/cryptos/"+strconv.Itoa(id), nil, nil)
}

// Sync asks the backend for a fresh price snapshot of symbol.
func (c *Client) Sync(ctx context.Context, symbol string) (SyncResult, error) {
	payload := syncPayload{}
	path := "/cryptos/" + url.PathEscape(symbol) + "/sync"
	if err := c.do(ctx, fiber.MethodPost, path, nil, &payload); err != nil {
		return SyncResult{}, err
	}
	res := SyncResult{
		Price:            payload.Price.InexactFloat64(),
		Volume:           payload.Volume.InexactFloat64(),
		PercentChange24h: payload.PercentChange24h.InexactFloat64(),
	}
	for field, v := range map[string]float64{
		"price":              res.Price,
		"volume":             res.Volume,
		"percent_change_24h": res.PercentChange24h,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return SyncResult{}, &NetworkError{
				Method: fiber.MethodPost,
				Path:   path,
				Status: fiber.StatusOK,
				Err:    fmt.Errorf("decoding response: %s out of range", field),
			}
		}
	}
	return res, nil
}

// History returns the samples the backend has stored for an asset.
func (c *Client) History(ctx context.Context, cryptoID int) ([]models.HistoryEntry, error) {
	entries := make([]models.HistoryEntry, 0)
	if err := c.do(ctx, fiber.MethodGet, "/price-history/"+strconv.Itoa(cryptoID), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do performs one request. body is JSON-encoded when non-nil; the response is
// decoded into out when out is non-nil and the response has a body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	fail := func(status int, err error) error {
		return &NetworkError{Method: method, Path: path, Status: status, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(0, err)
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			fiber.ReleaseAgent(agent)
			return fail(0, fmt.Errorf("encoding request body: %w", err))
		}
		agent.ContentType(fiber.MIMEApplicationJSON).Body(encoded)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fail(0, err)
	}
	agent.Timeout(timeout)

	start := time.Now()
	// Bytes releases the agent.
	status, respBody, errs := agent.Bytes()
	c.logger.Debug("backend round trip",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	)

	if len(errs) > 0 {
		return fail(0, errors.Join(errs...))
	}
	if status < 200 || status > 299 {
		return fail(status, errors.New(backendMessage(respBody)))
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(status, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// backendMessage extracts a message from an error body, falling back to the raw text.
func backendMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "empty response"
}
