package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "letters/a.pdf", objectName("", "letters/a.pdf"))
	assert.Equal(t, "hr/letters/a.pdf", objectName("hr", "letters/a.pdf"))
}
