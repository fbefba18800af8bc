package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/webmodel"
)

var contentTypeJSON = webmodel.ContentJSON{}.String() + "; charset=utf-8"

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeTyped(w, status, contentTypeJSON, v)
}

// writeTyped writes v as JSON under the given media type.
func writeTyped(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
