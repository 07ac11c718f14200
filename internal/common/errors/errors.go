// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Bank precondition and request errors. These are business errors and are
// never retried.
const (
	ErrCodeStateNotInitialized   ErrorCode = "STATE_NOT_INITIALIZED"
	ErrCodeKycNotApproved        ErrorCode = "KYC_NOT_APPROVED"
	ErrCodeAccountNotActive      ErrorCode = "ACCOUNT_NOT_ACTIVE"
	ErrCodeNoEscrowFound         ErrorCode = "NO_ESCROW_FOUND"
	ErrCodeEscrowAlreadyReleased ErrorCode = "ESCROW_ALREADY_RELEASED"
	ErrCodeBankStateNotFound     ErrorCode = "BANK_STATE_NOT_FOUND"
	ErrCodeInvalidBankRequest    ErrorCode = "INVALID_BANK_REQUEST"
	ErrCodeUnknownBankPartner    ErrorCode = "UNKNOWN_BANK_PARTNER"
)

// Infrastructure errors.
const (
	ErrCodeBankStoreFailed          ErrorCode = "BANK_STORE_FAILED"
	ErrCodeBankStoreConflict        ErrorCode = "BANK_STORE_CONFLICT"
	ErrCodeDocumentIndexFailed      ErrorCode = "DOCUMENT_INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeOperationTimeout         ErrorCode = "OPERATION_TIMEOUT"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeResourceNotFound         ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
)

// StandardError represents a structured application error.
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

// Is reports whether target is a StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinel returns a code-only StandardError for use with errors.Is.
func Sentinel(code ErrorCode) *StandardError {
	return &StandardError{Code: code}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

func newBusinessError(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateNotInitializedError is returned when an operation targets an investor
// without bank state.
func NewStateNotInitializedError(investorID string) *StandardError {
	return newBusinessError(ErrCodeStateNotInitialized,
		"Bank state not initialized",
		fmt.Sprintf("investorId: %s", investorID))
}

func NewKycNotApprovedError(investorID string) *StandardError {
	return newBusinessError(ErrCodeKycNotApproved,
		"KYC must be approved first",
		fmt.Sprintf("investorId: %s", investorID))
}

func NewAccountNotActiveError(investorID string) *StandardError {
	return newBusinessError(ErrCodeAccountNotActive,
		"Corporate account must be active",
		fmt.Sprintf("investorId: %s", investorID))
}

func NewNoEscrowFoundError(investorID string) *StandardError {
	return newBusinessError(ErrCodeNoEscrowFound,
		"No escrow account found",
		fmt.Sprintf("investorId: %s", investorID))
}

func NewEscrowAlreadyReleasedError(investorID, escrowID string) *StandardError {
	return newBusinessError(ErrCodeEscrowAlreadyReleased,
		"Escrow has already been released",
		fmt.Sprintf("investorId: %s, escrowId: %s", investorID, escrowID))
}

func NewBankStateNotFoundError(investorID string) *StandardError {
	return newBusinessError(ErrCodeBankStateNotFound,
		"Bank state not found",
		fmt.Sprintf("investorId: %s", investorID))
}

func NewInvalidBankRequestError(details string) *StandardError {
	return newBusinessError(ErrCodeInvalidBankRequest, "Invalid bank request", details)
}

func NewUnknownBankPartnerError(bankID string) *StandardError {
	return newBusinessError(ErrCodeUnknownBankPartner,
		"Unknown bank partner",
		fmt.Sprintf("bankId: %s", bankID))
}

// NewBankStoreFailedError wraps a storage backend failure. Retryable.
func NewBankStoreFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBankStoreFailed,
		Message:   "Bank state store error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewBankStoreConflictError(investorID string, attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeBankStoreConflict,
		Message:   "Concurrent update conflict on bank state",
		Details:   fmt.Sprintf("investorId: %s, attempts: %d", investorID, attempts),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDocumentIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentIndexFailed,
		Message:   "Document indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewOperationTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOperationTimeout,
		Message:   fmt.Sprintf("Operation '%s' timed out", operation),
		Details:   err.Error(),
		Retryable: true,
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

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newBusinessError(ErrCodeResourceNotFound,
		fmt.Sprintf("Resource not found in %s", service), details)
}

func NewAuthenticationError(details string) *StandardError {
	return newBusinessError("AUTHENTICATION_ERROR", "Authentication failed", details)
}

// ==========================
// 4. BPMN Mapping
// ==========================

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBankStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDocumentIndexFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeBankStoreConflict,
		ErrCodeOperationTimeout,
		"TIMEOUT_ERROR":
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError keeps the internal code as the BPMN error code, so
// boundary events catch KYC_NOT_APPROVED, STATE_NOT_INITIALIZED and so on.
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
	case strings.Contains(codeStr, "KYC"):
		return "KYC"
	case strings.Contains(codeStr, "ESCROW"):
		return "ESCROW"
	case strings.Contains(codeStr, "ACCOUNT") || strings.Contains(codeStr, "STATE") || strings.Contains(codeStr, "PARTNER"):
		return "BANK_STATE"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
