package server

import (
	"encoding/json"
	"net/http"

	"pool-wizard/internal/common/errors"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

// writeDomainError answers with the status mapped from the error's code.
// Internal details stay in the logs.
func writeDomainError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	body := &errorBody{
		Code:     string(stdErr.Code),
		Message:  stdErr.Message,
		Metadata: stdErr.Metadata,
	}
	if stdErr.Code == errors.ErrCodeInternal {
		body.Metadata = nil
	} else {
		body.Details = stdErr.Details
	}
	writeJSON(w, errors.HTTPStatus(stdErr.Code), envelope{Error: body})
}
