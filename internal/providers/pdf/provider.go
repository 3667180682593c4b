package pdf

import (
	"context"
	"io"
)

const ContentType = "application/pdf"

type Provider interface {
	GenerateAnnexure(ctx context.Context, data AnnexureData) (io.Reader, error)
	GeneratePayslip(ctx context.Context, data PayslipData) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

// Row is one pre-formatted line of a table.
type Row struct {
	Label   string
	Monthly string
	Annual  string
}
