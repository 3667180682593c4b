package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods return nil, nil when a row does not exist.
type Repository interface {
	InsertTemplate(ctx context.Context, db *gorm.DB, tmpl *LetterTemplate) error
	FindTemplateByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*LetterTemplate, error)
	FindDefaultTemplate(ctx context.Context, db *gorm.DB, orgID snowflake.ID, letterType LetterType) (*LetterTemplate, error)
	ListTemplates(ctx context.Context, db *gorm.DB, orgID snowflake.ID, letterType LetterType) ([]LetterTemplate, error)
	// SetDefault clears every other default of the same letter type.
	SetDefault(ctx context.Context, db *gorm.DB, tmpl *LetterTemplate, now time.Time) error

	InsertGenerated(ctx context.Context, db *gorm.DB, letter *GeneratedLetter) error
	FindGeneratedByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*GeneratedLetter, error)
	ListGenerated(ctx context.Context, db *gorm.DB, orgID, applicationID snowflake.ID) ([]GeneratedLetter, error)
}
