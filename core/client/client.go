/*
Package client provides easy and fast access to the bridge REST api

Instead of marshalling HTTP, the client can talk directly to the mux router.
That mode is perfectly suited for unit tests. With NewWithURL it talks to a
live bridge instead.

Unlike a bare http.Client, the raw operations decode the response body for
any status code, so callers can inspect relayed backend errors.
*/
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// Client provides easy access to the bridge REST API.
type Client struct {
	router     *mux.Router
	httpClient *http.Client
	url        string
	ctx        context.Context

	defaultHeaders map[string]string
}

// NewWithRouter creates a client to make pseudo-REST requests to the bridge,
// through the mux router.
//
// WithKey() adds the caller's API key to every request.
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router:         router,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to a running bridge.
func NewWithURL(url string) Client {
	return Client{
		url:            url,
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithKey returns a new client that presents the given API key with
// every request.
func (c Client) WithKey(key string) Client {
	return c.WithHeader("x-api-key", key)
}

// WithHeader returns a new client with a default header added.
func (c Client) WithHeader(key string, value string) Client {
	// we want a true copy to avoid side effects
	headers := map[string]string{key: value}
	for k, v := range c.defaultHeaders {
		if k != key {
			headers[k] = v
		}
	}
	c.defaultHeaders = headers
	return c
}

// WithContext returns a new client with a specific request context.
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the client's request context.
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// RawGet gets the resource from path. The path can be extended with query
// strings. Returns the http status code.
//
// result can also be a raw *[]byte. result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	return c.do(http.MethodGet, path, nil, result)
}

// RawPost posts a resource to path. Returns the http status code.
//
// body can also be a []byte, result can also be a raw *[]byte.
// result can be nil.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	return c.do(http.MethodPost, path, body, result)
}

// RawPatch patches a resource at path. Returns the http status code.
//
// body can also be a []byte, result can also be a raw *[]byte.
// result can be nil.
func (c Client) RawPatch(path string, body interface{}, result interface{}) (int, error) {
	return c.do(http.MethodPatch, path, body, result)
}

// RawDelete deletes the resource at path. The bridge expects the filter in
// the request body. Returns the http status code.
//
// body can also be a []byte, result can also be a raw *[]byte.
// result can be nil.
func (c Client) RawDelete(path string, body interface{}, result interface{}) (int, error) {
	return c.do(http.MethodDelete, path, body, result)
}

func (c Client) do(method string, path string, body interface{}, result interface{}) (int, error) {
	var err error
	var reader io.Reader
	if body != nil {
		j, ok := body.([]byte)
		if !ok {
			j, err = json.Marshal(body)
			if err != nil {
				return http.StatusBadRequest, err
			}
		}
		reader = bytes.NewReader(j)
	}

	r, _ := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	for key, value := range c.defaultHeaders {
		r.Header.Set(key, value)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	var res *http.Response
	var resBody []byte
	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res = rec.Result()
		resBody = rec.Body.Bytes()
	} else {
		res, err = c.httpClient.Do(r)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		defer res.Body.Close()
		resBody, _ = io.ReadAll(res.Body)
	}

	if len(resBody) > 0 && result != nil {
		if raw, ok := result.(*[]byte); ok {
			*raw = resBody
		} else {
			err = json.Unmarshal(resBody, result)
		}
	}
	return res.StatusCode, err
}
