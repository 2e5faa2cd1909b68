package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the retrieval pipeline.
type ErrorCode string

const (
	// ErrValidation 输入校验失败（topK / threshold / 空查询）。不可重试，调用方需修正输入。
	ErrValidation ErrorCode = "VALIDATION"

	// ErrEmbeddingFailed 嵌入后端生成失败（超时 / 上游错误）。可重试。
	ErrEmbeddingFailed ErrorCode = "EMBEDDING_FAILED"

	// ErrSourceNotFound 请求了未注册的文档来源。
	ErrSourceNotFound ErrorCode = "SOURCE_NOT_FOUND"

	// ErrStoreClosed 存储已关闭 / 清空后仍被并发访问到的内部状态错误。
	ErrStoreClosed ErrorCode = "STORE_CLOSED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// NewValidationError 构造不可重试的输入校验错误。
func NewValidationError(message string) *Error {
	return &Error{Code: ErrValidation, Message: message}
}

// NewEmbeddingError 构造可重试的嵌入生成错误。
func NewEmbeddingError(message string, cause error) *Error {
	return &Error{Code: ErrEmbeddingFailed, Message: message, Retryable: true, Cause: cause}
}

// NewSourceNotFoundError 构造未知来源错误。
func NewSourceNotFoundError(sourceID string) *Error {
	return &Error{Code: ErrSourceNotFound, Message: fmt.Sprintf("source %q is not registered", sourceID)}
}

// AsError extracts a *Error from err's chain, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if e := AsError(err); e != nil {
		return e.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e := AsError(err); e != nil {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e := AsError(err); e != nil {
		return e.Code
	}
	return ""
}
