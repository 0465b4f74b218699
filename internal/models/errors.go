package models

import (
	"errors"
	"fmt"
)

// Error categories
const (
	CategoryValidation = "validation"
	CategoryService    = "service"
	CategoryCapture    = "capture"
)

// Error codes
const (
	ErrCodeEmptyTopic        = "EMPTY_TOPIC"
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeInvalidField      = "INVALID_FIELD"
	ErrCodeInvalidUpload     = "INVALID_UPLOAD"
	ErrCodeEmptyHeadline     = "EMPTY_HEADLINE"
	ErrCodeContentFailed     = "CONTENT_GENERATION_FAILED"
	ErrCodeImageFailed       = "IMAGE_GENERATION_FAILED"
	ErrCodeCaptureFailed     = "CAPTURE_FAILED"
	ErrCodeBusy              = "GENERATION_IN_PROGRESS"
)

// AppError carries a user-facing message plus the underlying cause
type AppError struct {
	Code     string
	Message  string
	Category string
	Action   string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrGenerationInProgress is returned when a generation is requested while
// another one is loading.
var ErrGenerationInProgress = &AppError{
	Code:     ErrCodeBusy,
	Message:  "Pehle wala generation abhi chal raha hai.",
	Category: CategoryValidation,
	Action:   "Thoda intezaar karein.",
}

func NewEmptyTopicError() *AppError {
	return &AppError{
		Code:     ErrCodeEmptyTopic,
		Message:  "Kripya topic likhein!",
		Category: CategoryValidation,
		Action:   "Koi topic likh kar dobara try karein.",
	}
}

func NewMissingCredentialError() *AppError {
	return &AppError{
		Code:     ErrCodeMissingCredential,
		Message:  "API Key set nahi hai! AI generation band hai.",
		Category: CategoryValidation,
		Action:   ".env file mein GEMINI_API_KEY daal kar server restart karein.",
	}
}

func NewInvalidFieldValueError(field, value string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidField,
		Message:  fmt.Sprintf("Field %q ke liye value %q sahi nahi hai.", field, value),
		Category: CategoryValidation,
		Action:   "Di gayi options mein se ek chunein.",
	}
}

func NewUnknownFieldError(field string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidField,
		Message:  fmt.Sprintf("Field %q edit nahi ho sakta.", field),
		Category: CategoryValidation,
		Action:   "Headline, description, badge ya username edit karein.",
	}
}

func NewInvalidUploadError(mime string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidUpload,
		Message:  fmt.Sprintf("Sirf image file chalegi (mila: %s).", mime),
		Category: CategoryValidation,
		Action:   "PNG, JPEG, WEBP ya GIF photo chunein.",
	}
}

func NewEmptyHeadlineError() *AppError {
	return &AppError{
		Code:     ErrCodeEmptyHeadline,
		Message:  "Headline khali hai!",
		Category: CategoryValidation,
		Action:   "Custom Edit mein headline likh kar dobara download karein.",
	}
}

// NewServiceError wraps a failure of the content or image call.
func NewServiceError(code string, err error) *AppError {
	return &AppError{
		Code:     code,
		Message:  "AI Error! Manually edit karein.",
		Category: CategoryService,
		Action:   "Thodi der baad dobara try karein ya Custom Edit se khud likhein.",
		Err:      err,
	}
}

func NewCaptureError(err error) *AppError {
	return &AppError{
		Code:     ErrCodeCaptureFailed,
		Message:  "Download error! Screenshot le lein.",
		Category: CategoryCapture,
		Action:   "Preview ka manual screenshot le lein.",
		Err:      err,
	}
}

// IsCategory reports whether err is an AppError of the given category.
func IsCategory(err error, category string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == category
}
