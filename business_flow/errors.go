// Package businessflow contains the core business logic and use cases for distribution workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Tenant-related errors
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrTenantInactive       = errors.New("tenant is inactive")
	ErrTenantParamRequired  = errors.New("tenant parameter is required")
	ErrBindingNotFound      = errors.New("binding not found")
	ErrBindingInactive      = errors.New("binding is inactive")
	ErrTooManyQuestions     = errors.New("too many custom questions")
	ErrTooManyExtraMedia    = errors.New("too many extra media items")
	ErrInvalidQuestionType  = errors.New("invalid question type")
	ErrDuplicateQuestionIDs = errors.New("duplicate question identifiers")

	// Campaign-related errors
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrNoActiveCampaign  = errors.New("no active campaign")
	ErrCampaignNotEnded  = errors.New("campaign has not ended yet")
	ErrCampaignNotActive = errors.New("campaign is not active")

	// Entry-related errors
	ErrDuplicateEntry     = errors.New("an entry with this email already exists")
	ErrTermsNotAgreed     = errors.New("terms must be agreed")
	ErrMissingAnswer      = errors.New("required question not answered")
	ErrUnknownQuestion    = errors.New("answer references an unknown question")
	ErrInvalidOptionValue = errors.New("answer is not one of the allowed options")

	// Winner-related errors
	ErrWinnerAlreadySelected = errors.New("winner already selected for this campaign")
	ErrWinnerNotFound        = errors.New("winner not found")
	ErrNoEntries             = errors.New("campaign has no entries")

	// Admin auth errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidCaptcha    = errors.New("invalid captcha")
	ErrCacheNotAvailable = errors.New("cache not available")

	// Pagination errors
	ErrInvalidPage     = errors.New("invalid page")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// BusinessError represents a business logic error with additional context
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error checking helpers

func IsTenantNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound)
}

func IsTenantInactive(err error) bool {
	return errors.Is(err, ErrTenantInactive)
}

func IsTenantParamRequired(err error) bool {
	return errors.Is(err, ErrTenantParamRequired)
}

func IsBindingNotFound(err error) bool {
	return errors.Is(err, ErrBindingNotFound)
}

func IsBindingInactive(err error) bool {
	return errors.Is(err, ErrBindingInactive)
}

func IsTooManyQuestions(err error) bool {
	return errors.Is(err, ErrTooManyQuestions)
}

func IsTooManyExtraMedia(err error) bool {
	return errors.Is(err, ErrTooManyExtraMedia)
}

func IsInvalidQuestionType(err error) bool {
	return errors.Is(err, ErrInvalidQuestionType)
}

func IsDuplicateQuestionIDs(err error) bool {
	return errors.Is(err, ErrDuplicateQuestionIDs)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsNoActiveCampaign(err error) bool {
	return errors.Is(err, ErrNoActiveCampaign)
}

func IsCampaignNotEnded(err error) bool {
	return errors.Is(err, ErrCampaignNotEnded)
}

func IsCampaignNotActive(err error) bool {
	return errors.Is(err, ErrCampaignNotActive)
}

func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

func IsTermsNotAgreed(err error) bool {
	return errors.Is(err, ErrTermsNotAgreed)
}

func IsMissingAnswer(err error) bool {
	return errors.Is(err, ErrMissingAnswer)
}

func IsUnknownQuestion(err error) bool {
	return errors.Is(err, ErrUnknownQuestion)
}

func IsInvalidOptionValue(err error) bool {
	return errors.Is(err, ErrInvalidOptionValue)
}

func IsWinnerAlreadySelected(err error) bool {
	return errors.Is(err, ErrWinnerAlreadySelected)
}

func IsWinnerNotFound(err error) bool {
	return errors.Is(err, ErrWinnerNotFound)
}

func IsNoEntries(err error) bool {
	return errors.Is(err, ErrNoEntries)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
