package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prn-tf/eday-ledger/internal/domain"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// APIError describes how a failure is reported to clients.
type APIError struct {
	Code           string
	Message        string
	HTTPStatusCode int
}

// Common API errors that are not ledger errors.
var (
	ErrBadRequestBody = APIError{
		Code:           "InvalidInput",
		Message:        "request body is not valid JSON",
		HTTPStatusCode: http.StatusBadRequest,
	}
	ErrInvalidClientID = APIError{
		Code:           "InvalidClientID",
		Message:        "X-Client-ID must be 1-64 characters of letters, digits, '-' or '_'",
		HTTPStatusCode: http.StatusBadRequest,
	}
	ErrSessionNotFound = APIError{
		Code:           "NoSession",
		Message:        "no active session",
		HTTPStatusCode: http.StatusNotFound,
	}
)

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an APIError.
func writeError(w http.ResponseWriter, apiErr APIError) {
	writeJSON(w, apiErr.HTTPStatusCode, ErrorResponse{Error: apiErr.Code, Message: apiErr.Message})
}

// writeLedgerError maps a ledger error to its status and writes it.
func writeLedgerError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	resp := ErrorResponse{Error: code, Message: err.Error()}
	var domainErr *domain.DomainError
	switch {
	case status == http.StatusInternalServerError:
		resp.Message = "internal server error"
	case errors.As(err, &domainErr) && domainErr.Message != "":
		resp.Message = domainErr.Message
	}
	if reason, ok := domain.RejectReasonOf(err); ok {
		resp.Reason = string(reason)
	}

	writeJSON(w, status, resp)
}

// classify returns the status and code for a ledger error.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrVoteRejected):
		return http.StatusConflict, "VoteRejected"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "InvalidCredentials"
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized, "NoSession"
	case errors.Is(err, domain.ErrAdminRequired):
		return http.StatusForbidden, "AdminRequired"
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict, "DuplicateUsername"
	case errors.Is(err, domain.ErrStaleWrite):
		return http.StatusConflict, "StaleWrite"
	case errors.Is(err, domain.ErrLedgerBusy):
		return http.StatusServiceUnavailable, "LedgerBusy"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}
