package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabaseError      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_009"
	ErrCodeCancelled          ErrorCode = "COMMON_010"
)

// Registry record error codes.
const (
	ErrCodePatentNotFound ErrorCode = "REG_001"
	ErrCodePersonNotFound ErrorCode = "REG_002"
	ErrCodeRecordInvalid  ErrorCode = "REG_003"
)

// Ingestion error codes.
const (
	// ErrCodeSourceSchema marks a required column missing at setup time.
	// Fatal to the whole ingestion run; nothing is written.
	ErrCodeSourceSchema ErrorCode = "ING_001"

	// ErrCodeBatchPersist marks a chunk that failed to commit. The chunk is
	// rolled back and ingestion continues with the next one.
	ErrCodeBatchPersist ErrorCode = "ING_002"

	ErrCodeSourceRead   ErrorCode = "ING_003"
	ErrCodeSourceFormat ErrorCode = "ING_004"
)

// Filter error codes.
const (
	ErrCodeFilterNotFound ErrorCode = "FLT_001"
	ErrCodeFilterExists   ErrorCode = "FLT_002"
	ErrCodeFilterUpload   ErrorCode = "FLT_003"
)

// Export error codes.
const (
	ErrCodeExportFailed ErrorCode = "EXP_001"
)

// Shorthand aliases used at call sites throughout the codebase.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("")
	CodeOK           = ErrorCode("OK")

	CodeDatabaseError = ErrCodeDatabaseError
	CodeCacheError    = ErrCodeCacheError
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeCancelled:          http.StatusConflict,

	ErrCodePatentNotFound: http.StatusNotFound,
	ErrCodePersonNotFound: http.StatusNotFound,
	ErrCodeRecordInvalid:  http.StatusUnprocessableEntity,

	ErrCodeSourceSchema: http.StatusBadRequest,
	ErrCodeBatchPersist: http.StatusInternalServerError,
	ErrCodeSourceRead:   http.StatusBadRequest,
	ErrCodeSourceFormat: http.StatusBadRequest,

	ErrCodeFilterNotFound: http.StatusNotFound,
	ErrCodeFilterExists:   http.StatusConflict,
	ErrCodeFilterUpload:   http.StatusBadRequest,

	ErrCodeExportFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps error codes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeCancelled:          "operation cancelled",

	ErrCodePatentNotFound: "patent not found",
	ErrCodePersonNotFound: "person not found",
	ErrCodeRecordInvalid:  "record failed validation",

	ErrCodeSourceSchema: "required column missing in source file",
	ErrCodeBatchPersist: "failed to persist record batch",
	ErrCodeSourceRead:   "failed to read source file",
	ErrCodeSourceFormat: "unsupported source file format",

	ErrCodeFilterNotFound: "filter not found",
	ErrCodeFilterExists:   "filter with this name already exists",
	ErrCodeFilterUpload:   "failed to parse uploaded filter file",

	ErrCodeExportFailed: "export generation failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether the code corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the code corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "ING" for
// ErrCodeBatchPersist. Used as a metric label by the monitoring layer.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
