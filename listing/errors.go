// Copyright 2026 The Tochinavi Authors
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodeError represents geocoding-specific failures.
type GeocodeError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNotFound means the address produced no results.
	ErrorTypeNotFound
	// ErrorTypeRateLimit means the provider throttled the request.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the provider quota ran out.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout is a connection or deadline timeout.
	ErrorTypeTimeout
	// ErrorTypeInvalidRequest is a malformed or denied request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError is a transport-level failure.
	ErrorTypeNetworkError
	// ErrorTypeDisabled means no credential is configured; the feature is off.
	ErrorTypeDisabled
)

func (e *GeocodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// ErrGeocodingDisabled is returned when no API credential could be resolved.
// Callers fall back to an explicit center coordinate instead of crashing.
var ErrGeocodingDisabled = &GeocodeError{
	Type:    ErrorTypeDisabled,
	Message: "geocoding disabled: no Google Maps API key configured",
}

// InputFileError means the listings file is missing, unreadable, or could not
// be decoded in any attempted encoding. Fatal for the session.
type InputFileError struct {
	Path string
	Err  error
}

func (e *InputFileError) Error() string {
	return fmt.Sprintf("listings file %s: %v", e.Path, e.Err)
}

func (e *InputFileError) Unwrap() error {
	return e.Err
}

// DataTypeError records a cell that failed numeric parsing. The row stays in
// the dataset; the affected field is nil and the row is excluded from the
// predicates that need it.
type DataTypeError struct {
	Row    int
	Column string
	Value  string
}

func (e *DataTypeError) Error() string {
	return fmt.Sprintf("row %d: column %q: cannot parse %q as a number", e.Row, e.Column, e.Value)
}

// IsNotFoundError reports whether the error means the address had no match.
func IsNotFoundError(err error) bool {
	var geoErr *GeocodeError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeNotFound
	}

	return false
}

// IsGeocodingDisabled reports whether geocoding is off for lack of a credential.
func IsGeocodingDisabled(err error) bool {
	var geoErr *GeocodeError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeDisabled
	}

	return false
}

// IsTimeoutError reports whether the error is a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodeError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsFatal reports whether the error leaves nothing to filter: a broken input
// file or an unresolvable schema. Geocode failures are recoverable (retry with
// another address) and parse failures are handled by exclusion.
func IsFatal(err error) bool {
	var fileErr *InputFileError
	if errors.As(err, &fileErr) {
		return true
	}

	var colErr *MissingColumnError

	return errors.As(err, &colErr)
}

// ClassifyHTTPError maps an HTTP status to a geocoding error type.
func ClassifyHTTPError(statusCode int) *GeocodeError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &GeocodeError{
			Type:    ErrorTypeRateLimit,
			Message: "geocoding rate limit reached",
		}
	case http.StatusForbidden:
		return &GeocodeError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "geocoding quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &GeocodeError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid geocoding request",
		}
	case http.StatusNotFound:
		return &GeocodeError{
			Type:    ErrorTypeNotFound,
			Message: "address not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodeError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("geocoding service unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodeError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("geocoding HTTP error %d", statusCode),
		}
	}
}
