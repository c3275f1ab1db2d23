// Package httputil holds the JSON helpers shared by HTTP handlers and a
// small client abstraction for outbound calls.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes v with status 200.
func WriteJSONOK(w http.ResponseWriter, v interface{}) { WriteJSON(w, http.StatusOK, v) }

// WriteJSONError writes {"error": msg} with the given status.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

func BadRequest(w http.ResponseWriter, msg string)          { WriteJSONError(w, http.StatusBadRequest, msg) }
func NotFound(w http.ResponseWriter, msg string)            { WriteJSONError(w, http.StatusNotFound, msg) }
func Conflict(w http.ResponseWriter, msg string)            { WriteJSONError(w, http.StatusConflict, msg) }
func InternalServerError(w http.ResponseWriter, msg string) { WriteJSONError(w, http.StatusInternalServerError, msg) }

// MethodNotAllowed writes a 405.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// DecodeJSON strictly decodes a request body of at most limit bytes.
func DecodeJSON(r io.Reader, v interface{}, limit int64) error {
	dec := json.NewDecoder(io.LimitReader(r, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ReadError extracts the message from an error response body, falling
// back to the status text.
func ReadError(resp *http.Response) error {
	var body ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}
