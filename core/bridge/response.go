package bridge

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/nexteAMAI/supabase-bridge-api/core/supabase"
)

type successResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type errorResponse struct {
	Error json.RawMessage `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, response interface{}) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonData)
}

// writeData wraps a backend payload as {"success":true,"data":<payload>}.
func writeData(w http.ResponseWriter, status int, payload json.RawMessage) {
	writeJSON(w, status, successResponse{Success: true, Data: payload})
}

// writeErrorMessage answers with {"error":"<message>"}.
func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	jsonMessage, _ := json.Marshal(message)
	writeJSON(w, status, errorResponse{Error: jsonMessage})
}

// relayBackendError forwards a backend rejection verbatim: the backend's own
// status code with its parsed payload under "error".
func relayBackendError(w http.ResponseWriter, rlog *logrus.Entry, res *supabase.Response) {
	rlog.Warningln("backend rejected request with status", res.StatusCode)
	writeJSON(w, res.StatusCode, errorResponse{Error: res.Body})
}
