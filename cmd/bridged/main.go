package main

import (
	"log"
	"net/http"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/nexteAMAI/supabase-bridge-api/core/access"
	"github.com/nexteAMAI/supabase-bridge-api/core/bridge"
	"github.com/nexteAMAI/supabase-bridge-api/core/logger"
	"github.com/nexteAMAI/supabase-bridge-api/core/supabase"
)

// Service holds the configuration for this service
//
// use SUPABASE_URL="https://<project>.supabase.co"
type Service struct {
	Port               string `env:"PORT,default=3000" description:"the port to listen on"`
	SupabaseURL        string `env:"SUPABASE_URL,required" description:"the base URL of the Supabase project"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY,required" description:"the service-role key for the Supabase REST API"`
	APISecretKey       string `env:"API_SECRET_KEY,required" description:"the shared secret callers must present as x-api-key"`
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	logger.InitLogger(logrus.InfoLevel)
	access.InspectServiceKey(service.SupabaseServiceKey, logger.Default())

	router := mux.NewRouter()
	bridge.New(&bridge.Builder{
		Supabase: supabase.New(service.SupabaseURL, service.SupabaseServiceKey),
		Router:   router,
		APIKey:   service.APISecretKey,
	})
	logger.AddRequestID(router)

	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "X-Api-Key"}),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete,
		}),
		handlers.AllowedOrigins([]string{"*"}),
	)

	log.Println("listen on port :" + service.Port)
	log.Fatal(http.ListenAndServe(":"+service.Port, cors(router)))
}
