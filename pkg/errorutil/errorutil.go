package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes surfaced in {ok:false,error} bodies and metrics.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeConfigurationMissing = "CONFIGURATION_MISSING"
	CodeUpstreamClient       = "UPSTREAM_CLIENT_ERROR"
	CodeUpstream             = "UPSTREAM_ERROR"
	CodeConflict             = "CONFLICT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeTransferFailed       = "TRANSFER_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, nil)
}

func NewUnsupportedMediaType(contentType string) error {
	return NewDomainError(CodeUnsupportedMediaType,
		fmt.Sprintf("Unsupported Media Type: %s", contentType), http.StatusUnsupportedMediaType, nil)
}

func NewMethodNotAllowed(method string) error {
	return NewDomainError(CodeMethodNotAllowed,
		fmt.Sprintf("Method not allowed: %s", method), http.StatusMethodNotAllowed, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewConfigurationMissing reports every parameter that could not be resolved.
func NewConfigurationMissing(names []string, err error) error {
	return &DomainError{
		Code:       CodeConfigurationMissing,
		Message:    "configuration missing: " + strings.Join(names, ", "),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"missing": names},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ClientError is returned by the ticketing adapters when the upstream API
// answers 400. Body carries the raw response so callers see the field-level
// detail the upstream reported.
type ClientError struct {
	System string
	Body   string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s rejected request: %s", e.System, e.Body)
}

// HTTPError is any other non-2xx upstream answer.
type HTTPError struct {
	System     string
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned %d %s for %s", e.System, e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// CheckResponse classifies an upstream status code. 2xx returns nil.
func CheckResponse(system, url string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status == http.StatusBadRequest {
		return &ClientError{System: system, Body: string(body)}
	}
	return &HTTPError{System: system, StatusCode: status, URL: url}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return &DomainError{
			Code:       CodeUpstreamClient,
			Message:    clientErr.Error(),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return &DomainError{
			Code:       CodeUpstream,
			Message:    httpErr.Error(),
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// PublicMessage is the string placed in the {ok:false,error} body. Internal
// errors keep their cause.
func PublicMessage(err error) string {
	de := ToDomainError(err)
	if de == nil {
		return ""
	}
	if de.Code == CodeInternal && de.Err != nil {
		return de.Err.Error()
	}
	return de.Message
}
