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

// Applicant lifecycle error codes. Validation and not-found codes are
// business errors (no retry); DATABASE_*, EMAIL_* and NOTIFICATION_*
// codes are technical and retryable.
const (
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidStatus ErrorCode = "INVALID_STATUS"

	ErrCodeApplicantNotFound  ErrorCode = "APPLICANT_NOT_FOUND"
	ErrCodeJobSeekerNotFound  ErrorCode = "JOB_SEEKER_NOT_FOUND"
	ErrCodeJobListingNotFound ErrorCode = "JOB_LISTING_NOT_FOUND"
	ErrCodeInterviewNotFound  ErrorCode = "INTERVIEW_NOT_FOUND"

	ErrCodeJobListingNotActive  ErrorCode = "JOB_LISTING_NOT_ACTIVE"
	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDatabaseUpdateFailed     ErrorCode = "DATABASE_UPDATE_FAILED"

	ErrCodeEmailDispatchFailed      ErrorCode = "EMAIL_DISPATCH_FAILED"
	ErrCodeNotificationAppendFailed ErrorCode = "NOTIFICATION_APPEND_FAILED"
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

// Is makes errors.Is match any StandardError carrying the same code, so
// handlers can declare sentinel values and wrap them with fmt.Errorf("%w: ...").
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
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

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStatusError creates a non-retryable unrecognized status error.
func NewInvalidStatusError(status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatus,
		Message:   "Unrecognized applicant status",
		Details:   fmt.Sprintf("status: %s", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicantNotFoundError creates a non-retryable applicant lookup error.
func NewApplicantNotFoundError(applicantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicantNotFound,
		Message:   "Applicant not found",
		Details:   fmt.Sprintf("applicantId: %s", applicantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobSeekerNotFoundError creates a non-retryable job seeker lookup error.
func NewJobSeekerNotFoundError(jobSeekerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobSeekerNotFound,
		Message:   "Job seeker not found",
		Details:   fmt.Sprintf("jobSeekerId: %s", jobSeekerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobListingNotFoundError creates a non-retryable job listing lookup error.
func NewJobListingNotFoundError(jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobListingNotFound,
		Message:   "Job listing not found",
		Details:   fmt.Sprintf("jobId: %s", jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInterviewNotFoundError creates a non-retryable interview lookup error.
func NewInterviewNotFoundError(interviewID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInterviewNotFound,
		Message:   "Interview not found",
		Details:   fmt.Sprintf("interviewId: %s", interviewID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobListingNotActiveError creates a non-retryable closed listing error.
func NewJobListingNotActiveError(jobID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobListingNotActive,
		Message:   "Job listing is not accepting applications",
		Details:   fmt.Sprintf("jobId: %s, status: %s", jobID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateApplicationError creates a non-retryable duplicate application error.
func NewDuplicateApplicationError(jobID, jobSeekerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   "Application already exists for this job seeker and listing",
		Details:   fmt.Sprintf("jobId: %s, jobSeekerId: %s", jobID, jobSeekerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseUpdateFailedError creates a retryable database update error.
func NewDatabaseUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseUpdateFailed,
		Message:   "Database update operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailDispatchFailedError creates a retryable email dispatch error.
func NewEmailDispatchFailedError(eventType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailDispatchFailed,
		Message:   "Email dispatch failed",
		Details:   fmt.Sprintf("eventType: %s, error: %s", eventType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationAppendFailedError creates a retryable notification append error.
func NewNotificationAppendFailedError(recipientID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationAppendFailed,
		Message:   "Notification append failed",
		Details:   fmt.Sprintf("recipientId: %s, error: %s", recipientID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
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

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeInvalidStatus:            "INVALID_STATUS",
	ErrCodeApplicantNotFound:        "APPLICANT_NOT_FOUND",
	ErrCodeJobSeekerNotFound:        "JOB_SEEKER_NOT_FOUND",
	ErrCodeJobListingNotFound:       "JOB_LISTING_NOT_FOUND",
	ErrCodeInterviewNotFound:        "INTERVIEW_NOT_FOUND",
	ErrCodeJobListingNotActive:      "JOB_LISTING_NOT_ACTIVE",
	ErrCodeDuplicateApplication:     "DUPLICATE_APPLICATION",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeDatabaseUpdateFailed:     "DATABASE_UPDATE_FAILED",
	ErrCodeEmailDispatchFailed:      "EMAIL_DISPATCH_FAILED",
	ErrCodeNotificationAppendFailed: "NOTIFICATION_APPEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeDatabaseUpdateFailed,
		ErrCodeNotificationAppendFailed:
		return 3 // Retryable technical errors

	case ErrCodeEmailDispatchFailed:
		return 2 // Provider hiccups usually clear quickly

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
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

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "NOTIFICATION"):
		return "SIDE_EFFECT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "NOT_ACTIVE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
