// Package httpkit carries the JSON plumbing shared by the conversion API
// handlers: request decoding, response writing and the error envelope.
package httpkit

import (
	"encoding/json"
	"net/http"

	"pagestack/internal/pkg/errors"
)

// ErrorEnvelope is the wire shape of every non-2xx JSON response. Code is
// one of the service's error codes (VALIDATION_ERROR, CONVERSION_FAILED,
// ARTIFACT_MISSING, ...); Details carries the coded error's context fields.
type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// DecodeJSON decodes a request body, rejecting unknown fields so a typoed
// submission body fails loudly instead of silently converting nothing.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteErr(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var env ErrorEnvelope
	env.Error.Code = code
	env.Error.Message = msg
	env.Error.Details = details

	_ = json.NewEncoder(w).Encode(env)
}

// WriteCodedErr writes a coded application error using its mapped HTTP
// status, code and fields. Plain errors fall back to a generic 500.
func WriteCodedErr(w http.ResponseWriter, err error) {
	WriteErr(w, errors.GetHTTPStatus(err), string(errors.GetCode(err)), err.Error(), errors.GetFields(err))
}
