// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/site-vigilance/backend/internal/pipeline"
	"github.com/site-vigilance/backend/internal/report"
	"github.com/site-vigilance/backend/internal/sheets"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewPipelineError maps a pipeline failure to an API error carrying the
// failing stage and underlying cause, so the caller can show an actionable
// message.
func NewPipelineError(err error) *APIError {
	stage := ""
	var se *pipeline.StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}

	var unavailable *sheets.SourceUnavailableError
	if errors.As(err, &unavailable) {
		return &APIError{
			Status:  http.StatusBadGateway,
			Code:    "SOURCE_UNAVAILABLE",
			Message: "the inspection sheet could not be reached",
			Details: unavailable.Error(),
			Stage:   stage,
		}
	}

	var mismatch *sheets.SchemaMismatchError
	if errors.As(err, &mismatch) {
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "SCHEMA_MISMATCH",
			Message: "the sheet header matches no known column",
			Details: mismatch.Error(),
			Stage:   stage,
		}
	}

	var tmpl *report.TemplateError
	if errors.As(err, &tmpl) {
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "TEMPLATE_ERROR",
			Message: "the report template could not be loaded",
			Details: tmpl.Error(),
			Stage:   stage,
		}
	}

	var enc *report.EncodingError
	if errors.As(err, &enc) {
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "ENCODING_ERROR",
			Message: "the report could not be encoded to PDF",
			Details: enc.Error(),
			Stage:   stage,
		}
	}

	apiErr := NewInternalError("report generation failed", err)
	apiErr.Stage = stage
	return apiErr
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}
