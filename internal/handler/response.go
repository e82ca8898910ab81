package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ftplog/internal/domain"
	"ftplog/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest, "INVALID_FILTER", err.Error()
	case errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict, "RUN_IN_PROGRESS", "an ingestion run is already in progress"
	case errors.Is(err, domain.ErrListingFailed):
		return http.StatusServiceUnavailable, "LISTING_FAILED", "listing input files failed"
	case errors.Is(err, domain.ErrReadFailed):
		return http.StatusServiceUnavailable, "READ_FAILED", "reading an input file failed"
	case errors.Is(err, domain.ErrArchiveUnavailable):
		return http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "archive sink unavailable"
	case errors.Is(err, domain.ErrSinkUnavailable):
		return http.StatusServiceUnavailable, "SINK_UNAVAILABLE", "structured sink unavailable"
	case errors.Is(err, domain.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "ledger store unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "operation timed out"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		middleware.GetLogger(c).Error("request failed", zap.String("code", code), zap.Error(err))
	}
	RespondError(c, status, code, msg)
}
