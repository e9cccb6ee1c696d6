package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors for the upload/verify/download flow. Handlers map these
// to HTTP statuses at the request boundary; no other error detail is
// exposed to clients.
var (
	errNoFiles       = errors.New("no files uploaded")
	errFileTooLarge  = errors.New("file too large")
	errShareNotFound = errors.New("share not found")
	errFilesMissing  = errors.New("files missing")
)

// errorResp is the JSON error envelope shared by every endpoint.
type errorResp struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the JSON error envelope with a short client-safe message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}
