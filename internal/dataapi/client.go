// Package dataapi executes compiled queries against the data endpoints of
// the Web API and accumulates paged results for export.
package dataapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Record is one row as returned by the API, including any annotation
// fields.
type Record = map[string]any

// Page is one response: a slice of records plus the continuation link for
// the next slice, empty on the last page.
type Page struct {
	Records  []Record
	NextLink string
}

// QueryError is a non-2xx response from the data API. Message carries the
// server's error text when the body parses as the standard JSON error
// envelope, otherwise the raw body.
type QueryError struct {
	Status  int
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: status %d: %s", e.Status, e.Message)
}

// Client issues compiled query strings against a data API base URL. It adds
// no authentication beyond an optional bearer token; otherwise the HTTP
// client is assumed to carry ambient credentials.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// NewClient builds a client rooted at the API base URL, e.g.
// "https://org.crm.dynamics.com/api/data/v9.2".
func NewClient(base, token string) *Client {
	return &Client{
		base:  strings.TrimSuffix(base, "/"),
		token: token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetHTTPClient replaces the HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

// Execute runs one query. The query is either a compiled relative query
// string (entityset?$select=...) or a fully qualified continuation link; a
// continuation link is used verbatim since the server pre-encodes it.
func (c *Client) Execute(ctx context.Context, queryString string) (*Page, error) {
	target := queryString
	if !strings.HasPrefix(queryString, "http://") && !strings.HasPrefix(queryString, "https://") {
		// The query string is already encoded by the compiler; joining by
		// concatenation keeps it byte-for-byte intact.
		target = c.base + "/" + queryString
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `odata.include-annotations="*"`)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &QueryError{Status: resp.StatusCode, Message: serverMessage(body, resp.Status)}
	}

	var envelope struct {
		Value    []Record `json:"value"`
		NextLink string   `json:"@odata.nextLink"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return &Page{Records: envelope.Value, NextLink: envelope.NextLink}, nil
}

// serverMessage extracts the error text from the standard JSON error
// envelope, falling back to the raw body, then the status line.
func serverMessage(body []byte, status string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return status
}
