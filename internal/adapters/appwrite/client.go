// Package appwrite talks to a hosted backend-as-a-service (document database, teams and
// account APIs) over its REST interface and implements the domain ports on top of it.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/tidwall/gjson"
)

// Client is a REST client for one project of the hosted backend.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	Endpoint   string
	ProjectID  string
	APIKey     string
	DatabaseID string
	HTTPClient *http.Client
}

// New creates a client. Endpoint includes the API version prefix, e.g. https://cloud.appwrite.io/v1.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("project ID is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("database ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
		httpClient: httpClient,
	}, nil
}

// APIError is a non-2xx answer from the backend. It unwraps to the matching domain sentinel.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("backend error: status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return domain.ErrUnavailable
	}
	return nil
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// jwt switches authentication from the server key to an end-user session token.
	jwt string
}

func (c *Client) do(ctx context.Context, r request) (gjson.Result, error) {
	reqURL := c.endpoint + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Appwrite-Project", c.projectID)
	if r.jwt != "" {
		req.Header.Set("X-Appwrite-JWT", r.jwt)
	} else {
		req.Header.Set("X-Appwrite-Key", c.apiKey)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: %w: %v", r.method, r.path, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		parsed := gjson.ParseBytes(data)
		return gjson.Result{}, &APIError{
			StatusCode: resp.StatusCode,
			Type:       parsed.Get("type").String(),
			Message:    parsed.Get("message").String(),
		}
	}
	return gjson.ParseBytes(data), nil
}

func (c *Client) documentsPath(collection string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(c.databaseID), url.PathEscape(collection))
}

func (c *Client) documentPath(collection, id string) string {
	return c.documentsPath(collection) + "/" + url.PathEscape(id)
}

func (c *Client) getDocument(ctx context.Context, collection, id string) (gjson.Result, error) {
	return c.do(ctx, request{method: http.MethodGet, path: c.documentPath(collection, id)})
}

func (c *Client) createDocument(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.documentsPath(collection),
		body:   map[string]any{"documentId": id, "data": data},
	})
	return err
}

func (c *Client) updateDocument(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   c.documentPath(collection, id),
		body:   map[string]any{"data": data},
	})
	return err
}

func (c *Client) listDocuments(ctx context.Context, collection string, queries ...string) ([]gjson.Result, error) {
	q := url.Values{}
	for _, query := range queries {
		q.Add("queries[]", query)
	}
	res, err := c.do(ctx, request{method: http.MethodGet, path: c.documentsPath(collection), query: q})
	if err != nil {
		return nil, err
	}
	return res.Get("documents").Array(), nil
}

// query encodes a JSON query as accepted by the list endpoints.
func query(method, attribute string, values ...any) string {
	q := map[string]any{"method": method}
	if attribute != "" {
		q["attribute"] = attribute
	}
	if len(values) > 0 {
		q["values"] = values
	}
	data, _ := json.Marshal(q)
	return string(data)
}
