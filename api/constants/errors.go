package constants

import "fmt"

// ============================================================================
// FILE UPLOAD ERRORS
// ============================================================================

const (
	ErrFileUploadFailed  = "File upload failed. Please check the file format and try again"
	ErrInvalidFileFormat = "Invalid file format. Please upload a valid file"
	ErrFileParsingFailed = "Failed to parse file contents. Please check the file format"
	ErrEmptyFile         = "Uploaded file is empty"
	ErrInvalidHeaders    = "File has invalid or missing column headers"
	ErrInvalidDataRow    = "Invalid data found in row %d: %s"
)

// ============================================================================
// APPROVAL ERRORS
// ============================================================================

const (
	ErrPendingApproval      = "This record is pending approval"
	ErrAlreadyApproved      = "This record has already been approved"
	ErrCannotModifyApproved = "Cannot modify an approved record"
)

// ============================================================================
// INPUT VALIDATION ERRORS
// ============================================================================

const (
	ErrMissingRequiredField = "Required field '%s' is missing"
	ErrInvalidFieldValue    = "Invalid value for field '%s': %s"
	ErrInvalidAmount        = "Invalid amount specified"
	ErrInvalidID            = "Invalid ID specified"
)

// FormatRowError formats an error for a specific data row
func FormatRowError(rowNum int, reason string) string {
	return fmt.Sprintf(ErrInvalidDataRow, rowNum, reason)
}

// FormatMissingFieldError formats a missing field error
func FormatMissingFieldError(fieldName string) string {
	return fmt.Sprintf(ErrMissingRequiredField, fieldName)
}
