package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// UserMessage returns the message without wrapped causes attached, the
// form shown in banners and modals.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeAnalysisFailed     = "ANALYSIS_FAILED"
	CodeReportFailed       = "REPORT_FAILED"
	CodeDownloadFailed     = "DOWNLOAD_FAILED"
	CodeAuthFailed         = "AUTH_FAILED"
	CodeBackendUnreachable = "BACKEND_UNREACHABLE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// Workflow error constructors. The message is the human-readable text the
// UI surfaces; when the backend supplied a detail string it becomes the
// message verbatim.
func UploadFailed(message string, cause error) *AppError {
	return &AppError{Code: CodeUploadFailed, Message: message, Cause: cause}
}

func AnalysisFailed(message string, cause error) *AppError {
	return &AppError{Code: CodeAnalysisFailed, Message: message, Cause: cause}
}

func ReportFailed(message string, cause error) *AppError {
	return &AppError{Code: CodeReportFailed, Message: message, Cause: cause}
}

func DownloadFailed(message string, cause error) *AppError {
	return &AppError{Code: CodeDownloadFailed, Message: message, Cause: cause}
}

func AuthFailed(message string, cause error) *AppError {
	return &AppError{Code: CodeAuthFailed, Message: message, Cause: cause}
}

func BackendUnreachable(cause error) *AppError {
	return &AppError{
		Code:    CodeBackendUnreachable,
		Message: "statistics backend is unreachable",
		Cause:   cause,
	}
}
