package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"madpriser_api/metrics"
	"madpriser_api/pkg/logger"
)

// ErrNotFound marks an upstream 404 for a single product. During ID-range
// discovery this is an expected outcome, not a failure.
var ErrNotFound = errors.New("product not found upstream")

// ErrUnsupported marks an endpoint the upstream does not expose. The delta
// capability probe uses it to pick a strategy.
var ErrUnsupported = errors.New("endpoint not supported upstream")

const productInclude = "declaration,nutrition_info,warnings,gpsr,department"

// Client issues rate-limited requests against the REMA catalog API. It keeps
// no local state and never retries; callers decide between retry and abort.
type Client struct {
	baseURL string
	store   string
	http    *http.Client
	limiter *rate.Limiter
	log     logger.Logger
}

func NewClient(baseURL, store string, requestDelay time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(requestDelay), 1),
		log:     log.WithPrefix("[RemaClient]"),
	}
}

// FetchPage returns one page of a department listing.
func (c *Client) FetchPage(ctx context.Context, departmentID, page, limit int) (*RawPage, error) {
	url := fmt.Sprintf("%s/departments/%d/products?page=%d&limit=%d", c.baseURL, departmentID, page, limit)

	var rawPage RawPage
	if err := c.getJSON(ctx, url, nil, &rawPage); err != nil {
		return nil, fmt.Errorf("fetching department %d page %d: %w", departmentID, page, err)
	}
	return &rawPage, nil
}

// FetchProduct returns one product by upstream ID, or ErrNotFound on 404.
func (c *Client) FetchProduct(ctx context.Context, productID int) (*RawProduct, error) {
	url := fmt.Sprintf("%s/products/%d?include=%s", c.baseURL, productID, productInclude)

	var envelope RawProductEnvelope
	if err := c.getJSON(ctx, url, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// FetchProductIfModified issues a conditional request. A 304 answer is
// reported as notModified=true with a nil product.
func (c *Client) FetchProductIfModified(ctx context.Context, productID int, since time.Time) (*RawProduct, bool, error) {
	url := fmt.Sprintf("%s/products/%d?include=%s", c.baseURL, productID, productInclude)
	headers := map[string]string{"If-Modified-Since": since.UTC().Format(http.TimeFormat)}

	var envelope RawProductEnvelope
	err := c.getJSON(ctx, url, headers, &envelope)
	if errors.Is(err, errNotModified) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &envelope.Data, false, nil
}

// FetchDepartments lists the upstream departments.
func (c *Client) FetchDepartments(ctx context.Context) ([]RawDepartment, error) {
	var resp DepartmentsResponse
	if err := c.getJSON(ctx, c.baseURL+"/departments", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching departments: %w", err)
	}
	return resp.Data, nil
}

// FetchChanges asks the upstream for products modified since the given time.
// Most deployments answer 404 here; that surfaces as ErrUnsupported.
func (c *Client) FetchChanges(ctx context.Context, since time.Time) ([]RawProduct, error) {
	url := fmt.Sprintf("%s/products/changes?since=%s", c.baseURL, since.UTC().Format(time.RFC3339))

	var resp ChangesResponse
	err := c.getJSON(ctx, url, nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

var errNotModified = errors.New("not modified")

func (c *Client) getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "da-DK,da;q=0.9,en;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "https://shop.rema1000.dk/")
	req.Header.Set("Origin", "https://shop.rema1000.dk")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(c.store, "error")
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		metrics.RecordUpstreamRequest(c.store, "not_modified")
		return errNotModified
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordUpstreamRequest(c.store, "not_found")
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		metrics.RecordUpstreamRequest(c.store, "error")
		return fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		metrics.RecordUpstreamRequest(c.store, "error")
		return fmt.Errorf("unexpected content type %q, refusing to parse", contentType)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordUpstreamRequest(c.store, "error")
		return fmt.Errorf("decoding response: %w", err)
	}
	metrics.RecordUpstreamRequest(c.store, "ok")
	return nil
}
