package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("generate joining letter: %w", PreconditionNotMet(CodeOfferLetterRequired, "offer letter must be generated first"))

	assert.True(t, errors.Is(err, ErrPreconditionNotMet))
	assert.True(t, errors.Is(err, &Error{Kind: KindPreconditionNotMet, Code: CodeOfferLetterRequired}))
	assert.False(t, errors.Is(err, &Error{Kind: KindPreconditionNotMet, Code: CodeOfferExists}))
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}

func TestInvalidTransitionNamesBothStatuses(t *testing.T) {
	err := InvalidTransition("application", "APPLIED", "JOINED")

	assert.Equal(t, "APPLIED", err.Current)
	assert.Equal(t, "JOINED", err.Requested)
	assert.Contains(t, err.Error(), "APPLIED")
	assert.Contains(t, err.Error(), "JOINED")
}

func TestFileNotFoundListsEveryCandidate(t *testing.T) {
	candidates := []string{"/abs/offer.docx", "uploads/offer.docx", "templates/offer.docx"}
	err := FileNotFound(candidates)
	candidates[0] = "mutated"

	require.Len(t, err.Candidates, 3)
	assert.Equal(t, "/abs/offer.docx", err.Candidates[0])
	for _, c := range err.Candidates {
		assert.Contains(t, err.Error(), c)
	}
}

func TestConversionTimeoutIsRetryable(t *testing.T) {
	err := fmt.Errorf("render: %w", ConversionTimeout(30*time.Second, context.DeadlineExceeded))

	assert.True(t, IsRetryable(err))
	assert.True(t, IsInfrastructure(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	failure := ConversionFailure("Error: source file could not be loaded\n", nil)
	assert.False(t, IsRetryable(failure))
	assert.Equal(t, "Error: source file could not be loaded", failure.Message)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, IsInfrastructure(errors.New("boom")))
	assert.True(t, IsKind(DataIncomplete("salary_snapshot", "missing"), KindDataIncomplete))
}

func TestWithCorrelationIDCopies(t *testing.T) {
	base := ConversionFailure("exit status 1", nil)
	tagged := base.WithCorrelationID("01HZX")

	assert.Empty(t, base.CorrelationID)
	assert.Equal(t, "01HZX", tagged.CorrelationID)
}
