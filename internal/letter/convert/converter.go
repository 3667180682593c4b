// Package convert turns working documents into PDFs.
package convert

import "context"

//go:generate mockgen -source=converter.go -destination=./mocks/mock_converter.go -package=mocks

// Converter writes a PDF for inputPath into outputDir and returns its path.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputDir string) (string, error)
}
