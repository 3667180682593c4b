package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() salarydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, structure *salarydomain.SalaryStructure) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO salary_structures (
			id, org_id, name, description, components, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		structure.ID,
		structure.OrgID,
		structure.Name,
		structure.Description,
		structure.Components,
		structure.CreatedAt,
		structure.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*salarydomain.SalaryStructure, error) {
	var structure salarydomain.SalaryStructure
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1).
		Find(&structure).Error
	if err != nil {
		return nil, err
	}
	if structure.ID == 0 {
		return nil, nil
	}
	return &structure, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter salarydomain.ListRequest) ([]salarydomain.SalaryStructure, error) {
	var items []salarydomain.SalaryStructure
	stmt := db.WithContext(ctx).Model(&salarydomain.SalaryStructure{}).Where("org_id = ?", orgID)

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}

	if err := stmt.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
