package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// ToHTTPStatus maps the domain error taxonomy onto HTTP status codes.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeValidation,
			domain.ErrCodeCurrencyMismatch,
			domain.ErrCodePaymentMethodNotActive,
			domain.ErrCodePaymentMethodNoRefunds:
			return http.StatusBadRequest
		case domain.ErrCodeTransactionNotFound,
			domain.ErrCodeRefundNotFound,
			domain.ErrCodePaymentMethodNotFound:
			return http.StatusNotFound
		case domain.ErrCodeInvalidStateTransition,
			domain.ErrCodeInvalidTransactionState,
			domain.ErrCodeRefundExceedsTransaction,
			domain.ErrCodeConcurrentModification:
			return http.StatusConflict
		case domain.ErrCodeProvider,
			domain.ErrCodeProviderOutcomeUnknown:
			return http.StatusBadGateway
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// ToErrorCode extracts the machine-readable code for the response body.
func ToErrorCode(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}
	return "INTERNAL_ERROR"
}

func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, errorResponse{
		Success: false,
		Error: errorBody{
			Code:    ToErrorCode(err),
			Message: err.Error(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
