package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "templates/offer.docx", want: "templates/offer.docx"},
		{in: "/uploads//offer.docx", want: "uploads/offer.docx"},
		{in: `uploads\offer.docx`, want: "uploads/offer.docx"},
		{in: "../etc/passwd", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("letters/Offer_Letter_1_2.PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
