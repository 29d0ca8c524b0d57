package bridge_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexteAMAI/supabase-bridge-api/core/bridge"
	"github.com/nexteAMAI/supabase-bridge-api/core/client"
	"github.com/nexteAMAI/supabase-bridge-api/core/supabase"
)

const testAPIKey = "test-shared-secret"

type backendRecorder struct {
	calls  int
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// newTestBridge wires a bridge against a fake Supabase backend and returns an
// authorized in-process client plus a recorder of all backend traffic.
func newTestBridge(t *testing.T, backend http.HandlerFunc) (client.Client, *backendRecorder) {
	recorder := &backendRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder.calls++
		recorder.method = r.Method
		recorder.path = r.URL.Path
		recorder.query = r.URL.RawQuery
		recorder.header = r.Header.Clone()
		recorder.body, _ = io.ReadAll(r.Body)
		backend(w, r)
	}))
	t.Cleanup(server.Close)

	router := mux.NewRouter()
	bridge.New(&bridge.Builder{
		Supabase: supabase.New(server.URL, "service-key"),
		Router:   router,
		APIKey:   testAPIKey,
	})
	return client.NewWithRouter(router).WithKey(testAPIKey), recorder
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func TestHealthWithoutAuth(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {})
	noKey := c.WithHeader("x-api-key", "")

	var health map[string]interface{}
	status, err := noKey.RawGet("/health", &health)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, health["service"])
	assert.NotEmpty(t, health["timestamp"])
	assert.Equal(t, 0, recorder.calls)
}

func TestUnauthorizedShortCircuits(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, key := range []string{"", "wrong-key"} {
		caller := c.WithHeader("x-api-key", key)

		var result envelope
		status, err := caller.RawPost("/api/task", []byte(`{"title":"x"}`), &result)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.NotEmpty(t, result.Error)

		status, _ = caller.RawGet("/api/task", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = caller.RawPatch("/api/task", []byte(`{"filter":{},"data":{}}`), nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = caller.RawDelete("/api/task", []byte(`{"filter":{}}`), nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	// no backend request may be issued for unauthorized callers
	assert.Equal(t, 0, recorder.calls)
}

func TestCreate(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":1,"title":"write tests"}]`))
	})

	var result envelope
	status, err := c.RawPost("/api/task", []byte(`{"title":"write tests"}`), &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, result.Success)
	assert.JSONEq(t, `[{"id":1,"title":"write tests"}]`, string(result.Data))

	assert.Equal(t, http.MethodPost, recorder.method)
	assert.Equal(t, "/rest/v1/task", recorder.path)
	assert.Equal(t, "service-key", recorder.header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", recorder.header.Get("Authorization"))
	assert.Equal(t, "return=representation", recorder.header.Get("Prefer"))
	assert.Equal(t, `{"title":"write tests"}`, string(recorder.body))
}

func TestUpdateBuildsFilterQuery(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":5,"status":"active","done":true}]`))
	})

	body := []byte(`{"filter": {"id": 5, "status": "active"}, "data": {"done": true}}`)
	var result envelope
	status, err := c.RawPatch("/api/task", body, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)

	assert.Equal(t, http.MethodPatch, recorder.method)
	assert.Equal(t, "id=eq.5&status=eq.active", recorder.query)
	assert.Equal(t, `{"done": true}`, string(recorder.body))
}

func TestDeleteDiscardsBackendBody(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		// the backend body is discarded on success
		w.Write([]byte(`[{"id":5}]`))
	})

	var result envelope
	status, err := c.RawDelete("/api/task", []byte(`{"filter": {"id": 5}}`), &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)
	assert.Equal(t, "Deleted successfully", result.Message)
	assert.Empty(t, result.Data)

	assert.Equal(t, http.MethodDelete, recorder.method)
	assert.Equal(t, "id=eq.5", recorder.query)
	assert.Empty(t, recorder.body)
}

func TestReadDefaults(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	var result envelope
	status, err := c.RawGet("/api/task", &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.Success)

	assert.Equal(t, http.MethodGet, recorder.method)
	assert.Equal(t, "select=*&limit=100", recorder.query)
}

func TestReadQueryTranslation(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"cleanup"}]`))
	})

	var result envelope
	status, err := c.RawGet("/api/task?select=name&limit=10&status=done", &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"name":"cleanup"}]`, string(result.Data))
	assert.Equal(t, "select=name&limit=10&status=eq.done", recorder.query)
}

func TestBackendErrorRelay(t *testing.T) {
	c, _ := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"23505","message":"duplicate key"}`))
	})

	var result envelope
	status, err := c.RawPost("/api/task", []byte(`{"title":"dup"}`), &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, result.Success)
	assert.JSONEq(t, `{"code":"23505","message":"duplicate key"}`, string(result.Error))
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force a connection error on every backend call

	router := mux.NewRouter()
	bridge.New(&bridge.Builder{
		Supabase: supabase.New(server.URL, "service-key"),
		Router:   router,
		APIKey:   testAPIKey,
	})
	c := client.NewWithRouter(router).WithKey(testAPIKey)

	operations := []struct {
		name string
		call func() (int, error)
	}{
		{"create", func() (int, error) {
			var result envelope
			status, err := c.RawPost("/api/task", []byte(`{}`), &result)
			assert.NotEmpty(t, result.Error)
			return status, err
		}},
		{"update", func() (int, error) {
			return c.RawPatch("/api/task", []byte(`{"filter":{"id":1},"data":{}}`), nil)
		}},
		{"delete", func() (int, error) {
			return c.RawDelete("/api/task", []byte(`{"filter":{"id":1}}`), nil)
		}},
		{"read", func() (int, error) {
			return c.RawGet("/api/task", nil)
		}},
	}
	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			status, err := op.call()
			require.NoError(t, err)
			assert.Equal(t, http.StatusInternalServerError, status)
		})
	}
}

func TestMalformedEnvelope(t *testing.T) {
	c, recorder := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {})

	var result envelope
	status, err := c.RawPatch("/api/task", []byte(`{"filter": nonsense`), &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, result.Error)

	status, _ = c.RawDelete("/api/task", []byte(`[]`), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 0, recorder.calls)
}
