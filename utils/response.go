package utils

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"
)

// Log receives response write failures. main sets it; it discards by default.
var Log = logr.Discard()

// WriteJSONResponse writes payload as JSON with status. The header is already
// sent when encoding fails, so the failure is only logged.
func WriteJSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Log.Error(err, "failed to encode response", "status", status)
	}
}
