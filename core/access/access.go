/*Package access provides utilities for access control
 */
package access

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/nexteAMAI/supabase-bridge-api/core/logger"
)

// APIKeyHeader is the header callers must use to present the shared secret.
const APIKeyHeader = "x-api-key"

// NewAPIKeyMiddleware returns a middleware handler that guards all routes of
// a router with a static shared secret.
//
// The caller-supplied x-api-key header is compared against the secret with
// exact string equality. A missing or mismatched key short-circuits the
// request with 401 before any handler runs.
func NewAPIKeyMiddleware(secret string) mux.MiddlewareFunc {
	if secret == "" {
		panic("api key secret must not be empty")
	}
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(APIKeyHeader) != secret {
				rlog := logger.FromContext(r.Context())
				rlog.Warningln("invalid or missing API key for", r.Method, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or missing API key"}`))
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}

type serviceKeyClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// InspectServiceKey parses the Supabase service key without verification and
// logs its role and expiry. Supabase issues its keys as JWTs; the anon key
// and the service_role key are easy to mix up, and an expired key fails every
// backend request with an opaque error. The check never blocks startup.
func InspectServiceKey(key string, rlog *logrus.Entry) {
	if rlog == nil {
		rlog = logger.Default()
	}
	claims := &serviceKeyClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		rlog.WithError(err).Warning("service key is not a parseable JWT")
		return
	}
	if claims.Role != "service_role" {
		rlog.Warningf("service key has role '%s', expected 'service_role'", claims.Role)
	}
	if claims.ExpiresAt == nil {
		return
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	switch {
	case remaining < 0:
		rlog.Warning("service key is expired")
	case remaining < 30*24*time.Hour:
		rlog.Warningf("service key expires in %s", remaining.Round(time.Hour))
	}
}
