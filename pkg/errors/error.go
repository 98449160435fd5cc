// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown errors
//   - Validation errors (100-199): Invalid parameters and configuration
//   - Authentication errors (200-299): Login failures and missing session tokens
//   - Account selection errors (300-399): Unknown trading accounts, no account selected
//   - Transport errors (400-499): Request failures, non-2xx responses, undecodable bodies
//   - Business errors (500-599): 2xx responses whose status is not "OK"
//
// Every error may carry the Module that raised it, which plays the role of a
// module-specific error type (market, positions, orders, accounts).
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeTokenMissing, "no token available, login first")
//
//	// Tag it with the module that raised it
//	err := errors.New(errors.ErrCodeAccountNotSelected, "no trading account selected").In(errors.ModuleOrders)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeAccountNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Module  Module
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Module:  "",
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Module:  "",
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Module:  "",
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Module:  "",
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// In tags the error with the module that raised it and returns it.
func (e *Error) In(module Module) *Error {
	e.Module = module

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Module != "" {
		msg = fmt.Sprintf("%s: %s", e.Module, e.Message)
	}

	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, msg, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, msg)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error.
// HTTPError and APIError report their fixed codes.
// Returns ErrCodeUnknown if the error carries no code.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrCodeHTTPStatus
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ErrCodeAPIRejected
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetModule returns the module that raised err, or "" when unknown.
func GetModule(err error) Module {
	var e *Error
	if errors.As(err, &e) {
		return e.Module
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Module
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Module
	}

	return ""
}

// HTTPError is returned when the server answers with a non-2xx status.
type HTTPError struct {
	Module     Module // Module that issued the request
	StatusCode int    // HTTP status code
	Body       string // Raw response body
	Message    string // Human-readable context, e.g. "failed to get active orders"
}

// NewHTTPError creates a new HTTPError.
func NewHTTPError(module Module, statusCode int, body, message string) *HTTPError {
	return &HTTPError{
		Module:     module,
		StatusCode: statusCode,
		Body:       body,
		Message:    message,
	}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("[%d] %s: %s: %d - %s", ErrCodeHTTPStatus, e.Module, e.Message, e.StatusCode, e.Body)
}

// APIError is returned when a mutation answers 2xx but its status is not "OK".
type APIError struct {
	Module  Module // Module that issued the request
	Message string // errorMessage reported by the server
	Context string // Operation that failed, e.g. "create pending order"
}

// NewAPIError creates a new APIError.
func NewAPIError(module Module, context, message string) *APIError {
	return &APIError{
		Module:  module,
		Message: message,
		Context: context,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s failed: %s", ErrCodeAPIRejected, e.Module, e.Context, e.Message)
}

// AsHTTPError returns the HTTPError in err's chain, if any.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}

	return nil, false
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsAuthError checks if an error is a login or token failure.
func IsAuthError(err error) bool {
	code := GetCode(err)

	return code == ErrCodeAuthFailed || code == ErrCodeTokenMissing
}

// IsNotFoundError checks if an error reports an unknown trading account.
func IsNotFoundError(err error) bool {
	return HasCode(err, ErrCodeAccountNotFound)
}

// IsNotSelectedError checks if an error reports a missing account selection.
func IsNotSelectedError(err error) bool {
	return HasCode(err, ErrCodeAccountNotSelected)
}
