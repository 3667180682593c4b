package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() letterdomain.Repository {
	return &repo{}
}

func (r *repo) InsertTemplate(ctx context.Context, conn *gorm.DB, tmpl *letterdomain.LetterTemplate) error {
	return conn.WithContext(ctx).Create(tmpl).Error
}

func (r *repo) FindTemplateByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*letterdomain.LetterTemplate, error) {
	return first[letterdomain.LetterTemplate](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindDefaultTemplate(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, letterType letterdomain.LetterType) (*letterdomain.LetterTemplate, error) {
	return first[letterdomain.LetterTemplate](conn.WithContext(ctx).
		Where("org_id = ? AND type = ? AND is_default = ?", orgID, letterType, true).
		Order("updated_at DESC"))
}

func (r *repo) ListTemplates(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, letterType letterdomain.LetterType) ([]letterdomain.LetterTemplate, error) {
	stmt := conn.WithContext(ctx).Where("org_id = ?", orgID)
	if letterType != "" {
		stmt = stmt.Where("type = ?", letterType)
	}
	var items []letterdomain.LetterTemplate
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetDefault(ctx context.Context, conn *gorm.DB, tmpl *letterdomain.LetterTemplate, now time.Time) error {
	err := conn.WithContext(ctx).Exec(
		`UPDATE letter_templates
		 SET is_default = ?, updated_at = ?
		 WHERE org_id = ? AND type = ? AND is_default = ? AND id <> ?`,
		false,
		now,
		tmpl.OrgID,
		tmpl.Type,
		true,
		tmpl.ID,
	).Error
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Exec(
		`UPDATE letter_templates SET is_default = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		true,
		now,
		tmpl.OrgID,
		tmpl.ID,
	).Error
}

func (r *repo) InsertGenerated(ctx context.Context, conn *gorm.DB, letter *letterdomain.GeneratedLetter) error {
	return conn.WithContext(ctx).Create(letter).Error
}

func (r *repo) FindGeneratedByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*letterdomain.GeneratedLetter, error) {
	return first[letterdomain.GeneratedLetter](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) ListGenerated(ctx context.Context, conn *gorm.DB, orgID, applicationID snowflake.ID) ([]letterdomain.GeneratedLetter, error) {
	stmt := conn.WithContext(ctx).Where("org_id = ?", orgID)
	if applicationID != 0 {
		stmt = stmt.Where("application_id = ?", applicationID)
	}
	var items []letterdomain.GeneratedLetter
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func first[T any](stmt *gorm.DB) (*T, error) {
	var items []T
	if err := stmt.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
