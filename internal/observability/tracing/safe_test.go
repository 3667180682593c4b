package tracing

import (
	"errors"
	"testing"

	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsBlockedAndEmpty(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/offers/:id"),
		attribute.String("candidate.email", "a@example.com"),
		attribute.String("request_id", " "),
		attribute.Int("http.status_code", 200),
	)
	assert.Len(t, attrs, 2)
}

func TestSafeErrorKeepsOnlyKind(t *testing.T) {
	err := SafeError(apperr.FileNotFound([]string{"/secret/path/offer.docx"}))
	assert.EqualError(t, err, "file_not_found")
	assert.EqualError(t, SafeError(errors.New("jane@example.com")), "internal_error")
	assert.Nil(t, SafeError(nil))
}
