/*
Package supabase provides the outbound REST client for the Supabase backend.

The client issues exactly one HTTP request per operation against
<base URL>/rest/v1/<table> and injects the service-role credential into
every request. It performs no retries and sets no timeout; a hanging
backend hangs the caller.
*/
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Client provides access to the Supabase REST API with service-role credentials.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// New creates a client for the Supabase REST API under the given base URL.
// Every request carries the service key both as apikey header and as bearer token.
func New(baseURL string, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{},
	}
}

// WithHTTPClient returns the client configured with a different http client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// Response is the outcome of a single backend request. Body holds the parsed
// JSON payload; an empty backend body is represented as JSON null.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// OK returns true if the backend answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Insert creates one or more records in table. The body is forwarded verbatim.
//
// The operation corresponds to a POST request with Prefer: return=representation,
// so a successful response carries the created records.
func (c *Client) Insert(ctx context.Context, table string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, table, "", body)
}

// Update patches all records in table matching the filter. The body is
// forwarded verbatim.
//
// The operation corresponds to a PATCH request with Prefer: return=representation,
// so a successful response carries the updated records.
func (c *Client) Update(ctx context.Context, table string, filter Filter, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPatch, table, filter.Query(), body)
}

// Delete removes all records in table matching the filter.
//
// The operation corresponds to a DELETE request with no body.
func (c *Client) Delete(ctx context.Context, table string, filter Filter) (*Response, error) {
	return c.do(ctx, http.MethodDelete, table, filter.Query(), nil)
}

// List retrieves records from table. The query must already be in backend
// shape, see ListQueryFromRaw.
//
// The operation corresponds to a GET request.
func (c *Client) List(ctx context.Context, table string, query string) (*Response, error) {
	return c.do(ctx, http.MethodGet, table, query, nil)
}

func (c *Client) do(ctx context.Context, method string, table string, query string, body []byte) (*Response, error) {
	url := c.baseURL + "/rest/v1/" + table
	if query != "" {
		url += "?" + query
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	r.Header.Set("apikey", c.serviceKey)
	r.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Prefer", "return=representation")
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	payload := json.RawMessage("null")
	if len(bytes.TrimSpace(resBody)) > 0 {
		if !json.Valid(resBody) {
			return nil, fmt.Errorf("%s %s: backend returned an unparseable body", method, table)
		}
		payload = json.RawMessage(resBody)
	}
	return &Response{StatusCode: res.StatusCode, Body: payload}, nil
}
