package utils

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidYouTubeURL    ErrorCode = "INVALID_YOUTUBE_URL"
	ErrorCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	ErrorCodeUpstreamUnavailable  ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCodeNoFormatsFound       ErrorCode = "NO_FORMATS_FOUND"
	ErrorCodeNoMatchingFormat     ErrorCode = "NO_MATCHING_FORMAT"
	ErrorCodeFetchFailed          ErrorCode = "FETCH_FAILED"
	ErrorCodeMergeFailed          ErrorCode = "MERGE_FAILED"
	ErrorCodeOutputNotFound       ErrorCode = "OUTPUT_NOT_FOUND"
	ErrorCodeStreamInterrupted    ErrorCode = "STREAM_INTERRUPTED"
	ErrorCodeRateLimitExceeded    ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeValidationError      ErrorCode = "VALIDATION_ERROR"
	ErrorCodeInternalError        ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common error constructors
func NewInvalidURLError() *AppError {
	return NewError(
		ErrorCodeInvalidYouTubeURL,
		"Invalid YouTube URL",
		http.StatusBadRequest,
	)
}

func NewValidationError(message string) *AppError {
	return NewError(ErrorCodeValidationError, message, http.StatusBadRequest)
}

func NewConfigurationMissingError(key string) *AppError {
	return NewError(
		ErrorCodeConfigurationMissing,
		fmt.Sprintf("API configuration missing. Please set %s environment variable.", key),
		http.StatusInternalServerError,
	)
}

// NewUpstreamError propagates the upstream status code when it is a usable
// HTTP error status, otherwise falls back to 502.
func NewUpstreamError(message string, upstreamStatus int) *AppError {
	status := upstreamStatus
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusBadGateway
	}
	return NewError(ErrorCodeUpstreamUnavailable, message, status)
}

func NewNoFormatsError() *AppError {
	return NewError(
		ErrorCodeNoFormatsFound,
		"No downloadable formats found for this video",
		http.StatusNotFound,
	)
}

func NewNoMatchingFormatError(quality string) *AppError {
	return NewError(
		ErrorCodeNoMatchingFormat,
		fmt.Sprintf("No format matching quality %s", quality),
		http.StatusNotFound,
	)
}

func NewFetchError(err error) *AppError {
	return NewError(
		ErrorCodeFetchFailed,
		fmt.Sprintf("Failed to fetch media: %v", err),
		http.StatusInternalServerError,
	)
}

func NewMergeError(err error) *AppError {
	return NewError(
		ErrorCodeMergeFailed,
		fmt.Sprintf("Failed to merge video and audio: %v", err),
		http.StatusInternalServerError,
	)
}

func NewOutputNotFoundError(path string) *AppError {
	return NewError(
		ErrorCodeOutputNotFound,
		fmt.Sprintf("Expected download output missing: %s", path),
		http.StatusInternalServerError,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}

// AsAppError normalizes any error into an AppError so handlers never leak
// raw error chains to the client.
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError()
}
