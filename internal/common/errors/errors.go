// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeCatalogReadFailed        ErrorCode = "CATALOG_READ_FAILED"
	ErrCodeHistoryReadFailed        ErrorCode = "HISTORY_READ_FAILED"
	ErrCodeRecommendationTimeout    ErrorCode = "RECOMMENDATION_TIMEOUT"
	ErrCodeInvalidOrder             ErrorCode = "INVALID_ORDER"
	ErrCodeInputValidationFailed    ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeStoreUnavailable         ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeEventPublishFailed       ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func NewCatalogReadFailedError(pair string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogReadFailed,
		Message:   "Translator catalog read failed",
		Details:   fmt.Sprintf("pair: %s, error: %s", pair, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewHistoryReadFailedError(pair string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryReadFailed,
		Message:   "Order history read failed",
		Details:   fmt.Sprintf("pair: %s, error: %s", pair, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewRecommendationTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecommendationTimeout,
		Message:   "Recommendation exceeded request timeout",
		Details:   fmt.Sprintf("timeout: %s", timeout),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidOrderError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOrder,
		Message:   "Order cannot be matched",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputValidationFailedError(details []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Job variables failed schema validation",
		Details:   strings.Join(details, "; "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreUnavailableError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   fmt.Sprintf("Store '%s' unavailable", store),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEventPublishFailedError(topic string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPublishFailed,
		Message:   "Recommendation event publish failed",
		Details:   fmt.Sprintf("topic: %s, error: %s", topic, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns how many times the engine may retry a job failing
// with code. The recommender never retries reads itself.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogReadFailed,
		ErrCodeHistoryReadFailed,
		ErrCodeDatabaseConnectionFailed:
		return 3

	case ErrCodeStoreUnavailable:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "HISTORY") ||
		strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "DATABASE"):
		return "STORAGE"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EVENT"):
		return "EVENTS"
	default:
		return "OTHER"
	}
}

// IsKnownErrorCode reports whether code is one the workers can throw.
func IsKnownErrorCode(code string) bool {
	switch ErrorCode(code) {
	case ErrCodeCatalogReadFailed, ErrCodeHistoryReadFailed, ErrCodeRecommendationTimeout,
		ErrCodeInvalidOrder, ErrCodeInputValidationFailed, ErrCodeStoreUnavailable,
		ErrCodeEventPublishFailed, ErrCodeDatabaseConnectionFailed, ErrCodeInternal:
		return true
	}
	return false
}
