/*
Package bridge implements the authenticated CRUD bridge in front of the
Supabase REST API.

The bridge exposes one generic route per verb under /api/{table} plus an
unauthenticated health route. Callers authenticate with a static shared
secret; the bridge injects the service credential into every outbound
request, so callers never see it. Each operation is a single linear
translate-forward-respond flow with no state between requests.
*/
package bridge

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nexteAMAI/supabase-bridge-api/core/access"
	"github.com/nexteAMAI/supabase-bridge-api/core/supabase"
)

// Bridge relays CRUD operations onto the Supabase REST API.
type Bridge struct {
	supabase *supabase.Client
	service  string
}

// Builder is a builder helper for the Bridge
type Builder struct {
	// Supabase is the outbound client for the backend REST API. This is mandatory.
	Supabase *supabase.Client
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// APIKey is the static shared secret callers must present. This is mandatory.
	APIKey string
	// ServiceName is reported by the health route. This is optional.
	ServiceName string
}

// New realizes the actual bridge and adds routes to the router.
func New(bb *Builder) *Bridge {
	if bb.Supabase == nil {
		panic("Supabase client is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.APIKey == "" {
		panic("APIKey is missing")
	}
	service := bb.ServiceName
	if service == "" {
		service = "supabase-bridge-api"
	}

	b := &Bridge{
		supabase: bb.Supabase,
		service:  service,
	}
	b.handleRoutes(bb.Router, bb.APIKey)
	return b
}

// handleRoutes adds the health route and the generic table routes. The health
// route is exempt from the API key check, it only reveals a fixed status
// payload and a timestamp.
func (b *Bridge) handleRoutes(router *mux.Router, apiKey string) {
	log.Println("bridge: handle routes")
	log.Println("  handle route: /health GET")
	router.HandleFunc("/health", b.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(access.NewAPIKeyMiddleware(apiKey))
	log.Println("  handle route: /api/{table} GET POST PATCH DELETE")
	api.HandleFunc("/{table}", b.list).Methods(http.MethodGet)
	api.HandleFunc("/{table}", b.create).Methods(http.MethodPost)
	api.HandleFunc("/{table}", b.update).Methods(http.MethodPatch)
	api.HandleFunc("/{table}", b.delete).Methods(http.MethodDelete)
}

func (b *Bridge) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   b.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
