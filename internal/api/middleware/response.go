package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/example/order-backend/internal/apperror"
)

// ErrorBody is the envelope of every failed response.
type ErrorBody struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Code    apperror.Code `json:"code"`
	Details any           `json:"details,omitempty"`
}

// JSON builds a response with v encoded as the body.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	return &Response{StatusCode: status, Headers: headers, Body: body}, nil
}

// NoContent builds an empty 204 response.
func NoContent() *Response {
	return &Response{StatusCode: http.StatusNoContent, Headers: make(http.Header)}
}

// ErrorResponse builds an error envelope.
func ErrorResponse(status int, code apperror.Code, message string, details any) *Response {
	resp, err := JSON(status, ErrorBody{Error: message, Code: code, Details: details})
	if err != nil {
		// Details are plain values; fall back to the bare envelope.
		resp, _ = JSON(status, ErrorBody{Error: message, Code: code})
	}
	return resp
}
