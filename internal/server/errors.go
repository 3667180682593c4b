package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/smallbiznis/peoplehub/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/authorization"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	organizationdomain "github.com/smallbiznis/peoplehub/internal/organization/domain"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type          string            `json:"type"`
	Code          string            `json:"code,omitempty"`
	Message       string            `json:"message"`
	Entity        string            `json:"entity,omitempty"`
	Current       string            `json:"current,omitempty"`
	Requested     string            `json:"requested,omitempty"`
	Candidates    []string          `json:"candidates,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Errors        []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if appErr, ok := apperr.As(err); ok {
		return mapAppError(appErr)
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, apikeydomain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, organizationdomain.ErrMemberExists),
		errors.Is(err, organizationdomain.ErrSlugTaken),
		errors.Is(err, organizationdomain.ErrLastOwner):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, letterdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// mapAppError keeps guard failures in the 4xx range. Conversion failures
// expose only the correlation id; the detail stays in the logs.
func mapAppError(e *apperr.Error) (int, errorPayload) {
	payload := errorPayload{
		Type:      string(e.Kind),
		Code:      e.Code,
		Message:   e.Message,
		Entity:    e.Entity,
		Current:   e.Current,
		Requested: e.Requested,
	}

	switch e.Kind {
	case apperr.KindInvalidTransition:
		return http.StatusConflict, payload
	case apperr.KindPreconditionNotMet:
		if isConflictCode(e.Code) {
			return http.StatusConflict, payload
		}
		return http.StatusUnprocessableEntity, payload
	case apperr.KindDataIncomplete:
		if e.Field != "" {
			payload.Errors = []ValidationError{{Field: e.Field, Code: e.Code, Message: e.Message}}
		}
		return http.StatusUnprocessableEntity, payload
	case apperr.KindValidation:
		payload.Type = "validation_error"
		payload.Errors = []ValidationError{{Field: e.Field, Code: e.Code, Message: e.Message}}
		return http.StatusBadRequest, payload
	case apperr.KindNotFound:
		return http.StatusNotFound, payload
	case apperr.KindFileNotFound:
		payload.Candidates = e.Candidates
		return http.StatusNotFound, payload
	case apperr.KindConversionFailure, apperr.KindConversionTimeout:
		status := http.StatusBadGateway
		if e.Kind == apperr.KindConversionTimeout {
			status = http.StatusGatewayTimeout
		}
		return status, errorPayload{
			Type:          string(e.Kind),
			Message:       "generation failed",
			CorrelationID: e.CorrelationID,
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isConflictCode(code string) bool {
	switch code {
	case apperr.CodeEntityLocked,
		apperr.CodeDuplicateApplication,
		apperr.CodeOfferExists,
		apperr.CodeEmployeeExists:
		return true
	default:
		return false
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, organizationdomain.ErrMemberExists):
		return "MEMBER_EXISTS"
	case errors.Is(err, organizationdomain.ErrSlugTaken):
		return "SLUG_TAKEN"
	case errors.Is(err, organizationdomain.ErrLastOwner):
		return "LAST_OWNER"
	default:
		return ""
	}
}

// classifyErrorForLog feeds error_type and error_code into request logs.
func classifyErrorForLog(err error) (string, string) {
	if appErr, ok := apperr.As(err); ok {
		return string(appErr.Kind), appErr.Code
	}
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	recruitmentdomain.ErrInvalidOrganization,
	recruitmentdomain.ErrInvalidID,
	recruitmentdomain.ErrInvalidTitle,
	recruitmentdomain.ErrInvalidStatus,
	recruitmentdomain.ErrInvalidCandidate,
	recruitmentdomain.ErrInvalidEmail,
	recruitmentdomain.ErrInvalidPhone,
	recruitmentdomain.ErrInvalidSchedule,
	recruitmentdomain.ErrInvalidOfferDates,
	recruitmentdomain.ErrInvalidLetterKind,
	recruitmentdomain.ErrInvalidPageToken,
	salarydomain.ErrInvalidOrganization,
	salarydomain.ErrInvalidID,
	salarydomain.ErrInvalidName,
	salarydomain.ErrInvalidComponents,
	salarydomain.ErrInvalidLabel,
	salarydomain.ErrInvalidCategory,
	salarydomain.ErrInvalidAmount,
	salarydomain.ErrInvalidPeriod,
	salarydomain.ErrInvalidLOPDays,
	letterdomain.ErrInvalidOrganization,
	letterdomain.ErrInvalidID,
	letterdomain.ErrInvalidName,
	letterdomain.ErrInvalidLetterType,
	letterdomain.ErrInvalidTemplateType,
	letterdomain.ErrInvalidTemplateFile,
	letterdomain.ErrEmptyTemplate,
	organizationdomain.ErrInvalidName,
	organizationdomain.ErrInvalidUser,
	organizationdomain.ErrInvalidOrganization,
	organizationdomain.ErrInvalidEmail,
	organizationdomain.ErrInvalidRole,
	apikeydomain.ErrInvalidOrganization,
	apikeydomain.ErrInvalidName,
	apikeydomain.ErrInvalidKeyID,
	apikeydomain.ErrInvalidUser,
	apikeydomain.ErrInvalidExpiry,
	auditdomain.ErrInvalidOrganization,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidAction,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, salarydomain.ErrNotFound),
		errors.Is(err, organizationdomain.ErrNotFound),
		errors.Is(err, apikeydomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
