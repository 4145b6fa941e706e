package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP context
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// ErrorResponse is the JSON response format for errors
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// WriteJSON writes the error as JSON response
func (e *AppError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: e})
}

// ============================================================
// ERROR CONSTRUCTORS
// ============================================================

// Validation Errors (400)
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidJSON(details string) *AppError {
	return &AppError{
		Code:       "INVALID_JSON",
		Message:    "Invalid JSON in request body",
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:       "MISSING_FIELD",
		Message:    fmt.Sprintf("Required field '%s' is missing", field),
		StatusCode: http.StatusBadRequest,
	}
}

// DuplicateActiveURL is returned when an enabled mapping for the
// long URL already exists (400 per the external contract).
func DuplicateActiveURL(longURL string) *AppError {
	return &AppError{
		Code:       "DUPLICATE_ACTIVE_URL",
		Message:    "An active short URL for this target already exists",
		Details:    longURL,
		StatusCode: http.StatusBadRequest,
	}
}

// Not Found Errors (404)
func URLNotFound(code string) *AppError {
	return &AppError{
		Code:       "URL_NOT_FOUND",
		Message:    fmt.Sprintf("Short URL '%s' not found", code),
		StatusCode: http.StatusNotFound,
	}
}

// Rate Limit Error (429)
func RateLimitExceeded() *AppError {
	return &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, please try again later",
		StatusCode: http.StatusTooManyRequests,
	}
}

// Server Errors (500)
func Internal(details string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An internal server error occurred",
		Details:    details,
		StatusCode: http.StatusInternalServerError,
	}
}

// StoreError covers failures on the authoritative store path,
// including an exhausted short-code conflict retry.
func StoreError() *AppError {
	return &AppError{
		Code:       "STORE_ERROR",
		Message:    "A storage error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}
