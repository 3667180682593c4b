package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// UploadTemplateRequest carries either a .docx body (WORD) or HTML markup
// (BLANK, LETTER_PAD).
type UploadTemplateRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	TemplateType string `json:"template_type"`
	FileName     string `json:"file_name"`
	Content      []byte `json:"-"`
	HTMLContent  string `json:"html_content"`
	IsDefault    bool   `json:"is_default"`
}

type ListTemplatesRequest struct {
	Type string
}

type TemplateResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         LetterType   `json:"type"`
	TemplateType TemplateType `json:"template_type"`
	FilePath     string       `json:"file_path,omitempty"`
	Placeholders []string     `json:"placeholders"`
	IsDefault    bool         `json:"is_default"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// GenerateLetterRequest falls back to the org default template for the
// letter type when TemplateID is empty.
type GenerateLetterRequest struct {
	ApplicationID string         `json:"application_id"`
	TemplateID    string         `json:"template_id"`
	Overrides     map[string]any `json:"overrides"`
}

type PreviewLetterRequest struct {
	GenerateLetterRequest
	Type string `json:"type"`
}

type ListGeneratedLettersRequest struct {
	ApplicationID string
}

type LetterResponse struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	TemplateID    string          `json:"template_id"`
	Type          LetterType      `json:"type"`
	Status        GeneratedStatus `json:"status"`
	PDFPath       string          `json:"pdf_path,omitempty"`
	DownloadURL   string          `json:"downloadUrl,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LetterFile is a rendered artifact ready to stream.
type LetterFile struct {
	FileName    string
	ContentType string
	Content     []byte
	ModTime     time.Time
}

type Service interface {
	UploadTemplate(ctx context.Context, req UploadTemplateRequest) (*TemplateResponse, error)
	ListTemplates(ctx context.Context, req ListTemplatesRequest) ([]TemplateResponse, error)
	GetTemplate(ctx context.Context, id string) (*TemplateResponse, error)
	SetDefaultTemplate(ctx context.Context, id string) (*TemplateResponse, error)

	GenerateOfferLetter(ctx context.Context, req GenerateLetterRequest) (*LetterResponse, error)
	GenerateJoiningLetter(ctx context.Context, req GenerateLetterRequest) (*LetterResponse, error)
	// PreviewLetter renders without touching the application or letter history.
	PreviewLetter(ctx context.Context, req PreviewLetterRequest) (*LetterFile, error)

	ListGeneratedLetters(ctx context.Context, req ListGeneratedLettersRequest) ([]LetterResponse, error)
	OpenLetter(ctx context.Context, id string) (*LetterFile, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidLetterType   = errors.New("invalid_letter_type")
	ErrInvalidTemplateType = errors.New("invalid_template_type")
	ErrInvalidTemplateFile = errors.New("invalid_template_file")
	ErrEmptyTemplate       = errors.New("empty_template")
	ErrRateLimited         = errors.New("rate_limited")
)

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
