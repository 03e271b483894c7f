// Package pos provides a client for the point-of-sale receipts API.
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Veraticus/shiftbook/internal/common"
)

// Defaults for the POS API.
const (
	DefaultBaseURL  = "https://api.loyverse.com/v1.0"
	DefaultPageSize = 250
	DefaultTimeout  = 30 * time.Second
	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4096
)

// Config holds POS API configuration.
type Config struct {
	BaseURL     string
	AccessToken string
	StoreID     string
	PageSize    int
	Timeout     time.Duration
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("%w: pos access token is required", common.ErrMissingConfig)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: pos base url %q", common.ErrInvalidConfig, c.BaseURL)
		}
	}
	if c.PageSize < 0 {
		return fmt.Errorf("%w: pos page size must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// Client implements ReceiptFetcher over HTTP with a bearer token.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	storeID    string
	pageSize   int
}

// NewClient creates a new POS client with the given configuration.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.AccessToken,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, tokenSource)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		storeID:    cfg.StoreID,
		pageSize:   pageSize,
		logger:     slog.Default().With("component", "pos"),
	}, nil
}

// FetchPage requests one page of receipts. Any non-2xx status is returned as
// a *common.UpstreamError.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	u, err := url.Parse(c.baseURL + "/receipts")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	if c.storeID != "" {
		q.Set("store_id", c.storeID)
	}
	q.Set("start_time", req.Start.UTC().Format(time.RFC3339))
	q.Set("end_time", req.End.UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(c.pageSize))
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting receipts page",
		"start", req.Start.Format(time.RFC3339),
		"end", req.End.Format(time.RFC3339),
		"cursor", req.Cursor)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &common.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUpstreamPayload, err)
	}
	return &page, nil
}
