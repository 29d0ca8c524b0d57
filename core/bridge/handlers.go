package bridge

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/nexteAMAI/supabase-bridge-api/core/logger"
	"github.com/nexteAMAI/supabase-bridge-api/core/supabase"
)

// updateRequest is the envelope for PATCH /api/{table}: which records to
// touch, and the fields to set on them.
type updateRequest struct {
	Filter supabase.Filter `json:"filter"`
	Data   json.RawMessage `json:"data"`
}

// deleteRequest is the envelope for DELETE /api/{table}.
type deleteRequest struct {
	Filter supabase.Filter `json:"filter"`
}

// create forwards the request body verbatim to the backend collection
// endpoint and answers 201 with the created records.
func (b *Bridge) create(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())
	table := mux.Vars(r)["table"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := b.supabase.Insert(r.Context(), table, body)
	if err != nil {
		rlog.WithError(err).Errorln("create on", table, "failed")
		writeErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !res.OK() {
		relayBackendError(w, rlog, res)
		return
	}
	writeData(w, http.StatusCreated, res.Body)
}

// update builds the equality filter query from the request envelope and
// forwards the data fields via PATCH.
func (b *Bridge) update(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())
	table := mux.Vars(r)["table"]

	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := b.supabase.Update(r.Context(), table, req.Filter, req.Data)
	if err != nil {
		rlog.WithError(err).Errorln("update on", table, "failed")
		writeErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !res.OK() {
		relayBackendError(w, rlog, res)
		return
	}
	writeData(w, http.StatusOK, res.Body)
}

// delete issues a DELETE against the filtered collection endpoint. The
// backend's response body is discarded on success in favour of a fixed
// confirmation message.
func (b *Bridge) delete(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())
	table := mux.Vars(r)["table"]

	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := b.supabase.Delete(r.Context(), table, req.Filter)
	if err != nil {
		rlog.WithError(err).Errorln("delete on", table, "failed")
		writeErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !res.OK() {
		relayBackendError(w, rlog, res)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Deleted successfully",
	})
}

// list translates the caller's query string into a backend read. select
// defaults to "*", limit to 100; all other parameters become equality
// conditions.
func (b *Bridge) list(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())
	table := mux.Vars(r)["table"]

	res, err := b.supabase.List(r.Context(), table, supabase.ListQueryFromRaw(r.URL.RawQuery))
	if err != nil {
		rlog.WithError(err).Errorln("read on", table, "failed")
		writeErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !res.OK() {
		relayBackendError(w, rlog, res)
		return
	}
	writeData(w, http.StatusOK, res.Body)
}

func decodeBody(r *http.Request, result interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}
