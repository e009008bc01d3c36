// Package errors defines the failure taxonomy shared by the form and CRM integrations.
//
// Every type converts to an httperror via ToHTTPError so route handlers can return
// them as-is and let the error middleware render them.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
)

// ConfigError reports a missing credential or base URL. Surfaced as 500.
type ConfigError struct {
	Setting string
}

func NewConfigError(setting string) *ConfigError {
	return &ConfigError{Setting: setting}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Setting)
}

func (e *ConfigError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusInternalServerError, e.Error()).AddMetaValue("setting", e.Setting)
}

// FetchError reports a non-2xx response (or transport failure) from an upstream read.
// The upstream status and body are echoed back to the caller. Surfaced as 502.
type FetchError struct {
	Service    string
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func NewFetchError(service, method, url string, statusCode int, body string) *FetchError {
	return &FetchError{
		Service:    service,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Body:       body,
	}
}

// WrapFetchError wraps a transport-level failure where no response was received.
func WrapFetchError(service, method, url string, err error) *FetchError {
	return &FetchError{
		Service: service,
		Method:  method,
		URL:     url,
		Err:     err,
	}
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s %s failed: %v", e.Service, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s %s -> %d %s", e.Service, e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadGateway, e.Error()).
		AddMetaValue("service", e.Service).
		AddMetaValue("upstream_status", strconv.Itoa(e.StatusCode)).
		AddMetaValue("upstream_body", e.Body)
}

// CrmWriteError reports a rejected create or update call against the CRM.
type CrmWriteError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func NewCrmWriteError(operation string, statusCode int, body string) *CrmWriteError {
	return &CrmWriteError{
		Operation:  operation,
		StatusCode: statusCode,
		Body:       body,
	}
}

func WrapCrmWriteError(operation string, err error) *CrmWriteError {
	return &CrmWriteError{
		Operation: operation,
		Err:       err,
	}
}

func (e *CrmWriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipedrive %s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("pipedrive %s failed: %d %s", e.Operation, e.StatusCode, e.Body)
}

func (e *CrmWriteError) Unwrap() error {
	return e.Err
}

func (e *CrmWriteError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadGateway, e.Error()).
		AddMetaValue("operation", e.Operation).
		AddMetaValue("upstream_status", strconv.Itoa(e.StatusCode)).
		AddMetaValue("upstream_body", e.Body)
}

// ValidationError reports a malformed inbound request. Surfaced as 400.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func NewValidationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).AddMetaValue("field", e.Field)
}

type httpConvertible interface {
	ToHTTPError() *httperror.HTTPError
}

// ToHTTPError converts any of the domain errors (wrapped or not) to an httperror.
// Errors outside the taxonomy are returned unchanged.
func ToHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var conv httpConvertible
	if errors.As(err, &conv) {
		return conv.ToHTTPError()
	}
	return err
}

func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

func IsFetchError(err error) bool {
	var e *FetchError
	return errors.As(err, &e)
}

func IsCrmWriteError(err error) bool {
	var e *CrmWriteError
	return errors.As(err, &e)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
