package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type LetterType string

const (
	LetterTypeOffer   LetterType = "offer"
	LetterTypeJoining LetterType = "joining"
)

func (t LetterType) Valid() bool {
	return t == LetterTypeOffer || t == LetterTypeJoining
}

// TemplateType selects how the body is stored and rendered.
type TemplateType string

const (
	// TemplateTypeWord is an uploaded .docx converted by the office converter.
	TemplateTypeWord TemplateType = "WORD"
	// TemplateTypeBlank is an HTML body rendered on a plain page.
	TemplateTypeBlank TemplateType = "BLANK"
	// TemplateTypeLetterPad is an HTML body rendered inside the company letterhead.
	TemplateTypeLetterPad TemplateType = "LETTER_PAD"
)

func (t TemplateType) Valid() bool {
	switch t {
	case TemplateTypeWord, TemplateTypeBlank, TemplateTypeLetterPad:
		return true
	}
	return false
}

func (t TemplateType) IsHTML() bool {
	return t == TemplateTypeBlank || t == TemplateTypeLetterPad
}

type LetterTemplate struct {
	ID           snowflake.ID                `gorm:"primaryKey"`
	OrgID        snowflake.ID                `gorm:"not null;index"`
	Name         string                      `gorm:"type:text;not null"`
	Type         LetterType                  `gorm:"type:text;not null"`
	TemplateType TemplateType                `gorm:"type:text;not null"`
	FilePath     string                      `gorm:"type:text"`
	HTMLContent  string                      `gorm:"type:text"`
	Placeholders datatypes.JSONSlice[string] `gorm:"type:json"`
	IsDefault    bool                        `gorm:"not null;default:false"`
	CreatedAt    time.Time                   `gorm:"not null"`
	UpdatedAt    time.Time                   `gorm:"not null"`
}

func (LetterTemplate) TableName() string { return "letter_templates" }

type GeneratedStatus string

const (
	GeneratedStatusGenerated GeneratedStatus = "GENERATED"
	GeneratedStatusFailed    GeneratedStatus = "FAILED"
)

// GeneratedLetter is append-only. Every render attempt adds a row.
type GeneratedLetter struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	OrgID         snowflake.ID    `gorm:"not null;index"`
	TemplateID    snowflake.ID    `gorm:"not null"`
	ApplicationID snowflake.ID    `gorm:"not null;index"`
	Type          LetterType      `gorm:"type:text;not null"`
	DocxPath      string          `gorm:"type:text"`
	PDFPath       string          `gorm:"column:pdf_path;type:text"`
	Status        GeneratedStatus `gorm:"type:text;not null"`
	CorrelationID string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"not null"`
}

func (GeneratedLetter) TableName() string { return "generated_letters" }
