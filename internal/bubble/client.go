package bubble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/config"
	"github.com/sheetwise/sheetmigrate/internal/logger"
)

// ErrRetriesExhausted is returned when a request kept hitting retryable
// statuses (429 or 5xx) past the configured retry ceiling.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Page is one page of source records plus the pagination bookkeeping the
// object API returns alongside it.
type Page struct {
	Cursor    int      // zero-based offset of the first record in this page
	Results   []Record // records in source order
	Count     int      // number of records in this page
	Remaining int      // records past this page; 0 means this is the last page
}

// Total returns the logical total of the collection as seen from this page.
func (p *Page) Total() int {
	return p.Cursor + p.Count + p.Remaining
}

// Constraint is one element of the optional JSON-encoded filter array the
// list endpoint accepts.
type Constraint struct {
	Key            string      `json:"key"`
	ConstraintType string      `json:"constraint_type"`
	Value          interface{} `json:"value"`
}

// Client is a paginated, retrying HTTP client over the Bubble object API.
// It hides pagination, bearer authentication, and rate-limit backoff from
// the migrators. Construct it once and pass it by reference; it is safe for
// sequential use by one migration run.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	pageDelay      time.Duration
	logger         *logger.Logger
}

// NewClient creates a Client from the source configuration.
func NewClient(cfg config.SourceConfig, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source base URL is required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("source API token is required")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		token:          cfg.APIToken,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		pageDelay:      cfg.PageDelay,
		logger:         log,
	}, nil
}

type listEnvelope struct {
	Response struct {
		Cursor    int      `json:"cursor"`
		Results   []Record `json:"results"`
		Count     int      `json:"count"`
		Remaining int      `json:"remaining"`
	} `json:"response"`
}

type getEnvelope struct {
	Response Record `json:"response"`
}

// List fetches one page of records for an entity type. Cursor is a zero-based
// offset; limit is capped by the API at config.MaxPageSize. A nil constraints
// slice lists the whole collection.
func (c *Client) List(ctx context.Context, entityType string, cursor, limit int, constraints []Constraint) (*Page, error) {
	params := url.Values{}
	params.Set("cursor", fmt.Sprintf("%d", cursor))
	params.Set("limit", fmt.Sprintf("%d", limit))
	if len(constraints) > 0 {
		encoded, err := json.Marshal(constraints)
		if err != nil {
			return nil, fmt.Errorf("failed to encode constraints: %w", err)
		}
		params.Set("constraints", string(encoded))
	}

	reqURL := fmt.Sprintf("%s/api/1.1/obj/%s?%s", c.baseURL, url.PathEscape(entityType), params.Encode())

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("list %s at cursor %d: %w", entityType, cursor, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list %s at cursor %d: unexpected status %d: %s", entityType, cursor, status, truncate(body))
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("list %s at cursor %d: failed to decode response: %w", entityType, cursor, err)
	}

	return &Page{
		Cursor:    envelope.Response.Cursor,
		Results:   envelope.Response.Results,
		Count:     envelope.Response.Count,
		Remaining: envelope.Response.Remaining,
	}, nil
}

// GetByID fetches a single record. A 404 or a null response body means the
// record was deleted or never existed; that is not an error and returns
// (nil, nil).
func (c *Client) GetByID(ctx context.Context, entityType, id string) (Record, error) {
	reqURL := fmt.Sprintf("%s/api/1.1/obj/%s/%s", c.baseURL, url.PathEscape(entityType), url.PathEscape(id))

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", entityType, id, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get %s %s: unexpected status %d: %s", entityType, id, status, truncate(body))
	}

	var envelope getEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("get %s %s: failed to decode response: %w", entityType, id, err)
	}
	if envelope.Response == nil {
		return nil, nil
	}
	return envelope.Response, nil
}

// CountAll returns the logical total record count for an entity type using a
// single limit=1 request rather than pulling every page.
func (c *Client) CountAll(ctx context.Context, entityType string) (int, error) {
	page, err := c.List(ctx, entityType, 0, 1, nil)
	if err != nil {
		return 0, err
	}
	return page.Count + page.Remaining, nil
}

// Iterate returns a Pager producing successive pages of the collection,
// starting at cursor 0. The sequence is finite and not restartable
// mid-stream; re-run safety comes from the mapping store's idempotency
// check downstream, not from the client.
func (c *Client) Iterate(entityType string, batchSize int) *Pager {
	if batchSize <= 0 || batchSize > config.MaxPageSize {
		batchSize = config.MaxPageSize
	}
	return &Pager{
		client:     c,
		entityType: entityType,
		limit:      batchSize,
	}
}

// Pager walks a collection page by page. Between successive pages a small
// fixed delay keeps the request rate under the source API's ceiling.
type Pager struct {
	client     *Client
	entityType string
	limit      int
	cursor     int
	total      int
	started    bool
	done       bool
}

// Next returns the next page of records, or (nil, nil) once the collection
// is exhausted.
func (p *Pager) Next(ctx context.Context) ([]Record, error) {
	if p.done {
		return nil, nil
	}

	if p.started && p.client.pageDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.client.pageDelay):
		}
	}

	page, err := p.client.List(ctx, p.entityType, p.cursor, p.limit, nil)
	if err != nil {
		return nil, err
	}

	p.started = true
	p.cursor += page.Count
	p.total = page.Total()
	if page.Remaining == 0 || page.Count == 0 {
		p.done = true
	}

	if page.Count == 0 {
		return nil, nil
	}
	return page.Results, nil
}

// Total returns the collection total as reported by the last fetched page.
// Valid after the first Next call.
func (p *Pager) Total() int {
	return p.total
}

// get performs one GET with bearer auth, retrying 429 and 5xx responses with
// exponential backoff (base delay doubling per attempt) up to the retry
// ceiling. Other statuses are returned to the caller as-is: a 4xx indicates
// a malformed request, not a transient condition, and retrying would not help.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	var lastStatus int

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if !isRetryable(resp.StatusCode) {
			return body, resp.StatusCode, nil
		}

		lastStatus = resp.StatusCode
		if attempt >= c.maxRetries {
			break
		}

		delay := c.retryBaseDelay << attempt
		c.logger.Warnw("Retrying after retryable response",
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return nil, lastStatus, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastStatus, fmt.Errorf("%w after %d retries (last status %d)", ErrRetriesExhausted, c.maxRetries, lastStatus)
}

// isRetryable reports whether a status indicates a transient condition.
func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// truncate bounds an error-message body to keep log lines readable.
func truncate(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
