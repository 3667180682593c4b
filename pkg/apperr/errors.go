// Package apperr defines the tagged error kinds shared by the recruitment and
// letter pipelines. Callers branch on Kind instead of matching messages.
package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidTransition  Kind = "invalid_transition"
	KindPreconditionNotMet Kind = "precondition_not_met"
	KindFileNotFound       Kind = "file_not_found"
	KindConversionFailure  Kind = "conversion_failure"
	KindConversionTimeout  Kind = "conversion_timeout"
	KindDataIncomplete     Kind = "data_incomplete"
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation"
)

// Precondition codes.
const (
	CodeOfferLetterRequired    = "OFFER_LETTER_REQUIRED"
	CodeApplicationNotSelected = "APPLICATION_NOT_SELECTED"
	CodeOfferExists            = "OFFER_EXISTS"
	CodeOfferNotAccepted       = "OFFER_NOT_ACCEPTED"
	CodeOfferExpired           = "OFFER_EXPIRED"
	CodeOfferTermsIncomplete   = "OFFER_TERMS_INCOMPLETE"
	CodeEmployeeExists         = "EMPLOYEE_EXISTS"
	CodeDuplicateApplication   = "DUPLICATE_APPLICATION"
	CodeInterviewNotAllowed    = "INTERVIEW_NOT_ALLOWED"
	CodeWorkflowOnlyStatus     = "WORKFLOW_ONLY_STATUS"
	CodeJobClosed              = "JOB_CLOSED"
	CodeEntityLocked           = "ENTITY_LOCKED"
	CodeTemplateTypeMismatch   = "TEMPLATE_TYPE_MISMATCH"
	CodeSalarySnapshotRequired = "SALARY_SNAPSHOT_REQUIRED"
)

// Error is the structured error carried across service boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	Entity    string
	Current   string
	Requested string
	Field     string

	Candidates    []string
	Retryable     bool
	CorrelationID string

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error of the same kind. An empty Code on the target
// matches any code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithCorrelationID returns a copy tagged with the given correlation id.
func (e *Error) WithCorrelationID(id string) *Error {
	if e == nil {
		return nil
	}
	out := *e
	out.CorrelationID = id
	return &out
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrPreconditionNotMet = &Error{Kind: KindPreconditionNotMet}
	ErrFileNotFound       = &Error{Kind: KindFileNotFound}
	ErrConversionFailure  = &Error{Kind: KindConversionFailure}
	ErrConversionTimeout  = &Error{Kind: KindConversionTimeout}
	ErrDataIncomplete     = &Error{Kind: KindDataIncomplete}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrValidation         = &Error{Kind: KindValidation}
)

func InvalidTransition(entity, current, requested string) *Error {
	return &Error{
		Kind:      KindInvalidTransition,
		Entity:    entity,
		Current:   current,
		Requested: requested,
		Message:   fmt.Sprintf("%s status %s cannot change to %s", entity, current, requested),
	}
}

func PreconditionNotMet(code, message string) *Error {
	return &Error{
		Kind:    KindPreconditionNotMet,
		Code:    code,
		Message: message,
	}
}

// PreconditionWithStatus names the current status that blocked the action.
func PreconditionWithStatus(code, entity, current, message string) *Error {
	return &Error{
		Kind:    KindPreconditionNotMet,
		Code:    code,
		Entity:  entity,
		Current: current,
		Message: message,
	}
}

func FileNotFound(candidates []string) *Error {
	tried := append([]string(nil), candidates...)
	return &Error{
		Kind:       KindFileNotFound,
		Candidates: tried,
		Message:    "file not found, tried: " + strings.Join(tried, ", "),
	}
}

// ConversionFailure keeps the converter's own message verbatim.
func ConversionFailure(message string, err error) *Error {
	return &Error{
		Kind:    KindConversionFailure,
		Message: strings.TrimSpace(message),
		Err:     err,
	}
}

func ConversionTimeout(timeout time.Duration, err error) *Error {
	return &Error{
		Kind:      KindConversionTimeout,
		Message:   fmt.Sprintf("conversion exceeded %s", timeout),
		Retryable: true,
		Err:       err,
	}
}

func DataIncomplete(field, message string) *Error {
	return &Error{
		Kind:    KindDataIncomplete,
		Field:   field,
		Message: message,
	}
}

func NotFound(entity string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Message: entity + " not found",
	}
}

func Validation(field, code, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Code:    code,
		Message: message,
	}
}

// As extracts the *Error from a chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) (Kind, bool) {
	appErr, ok := As(err)
	if !ok {
		return "", false
	}
	return appErr.Kind, true
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsInfrastructure reports failures that come from the converter or the
// file store rather than from user input.
func IsInfrastructure(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindConversionFailure, KindConversionTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}
