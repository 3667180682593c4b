package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) FindOrganization(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var items []domain.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repository) FindOrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var items []domain.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO org_members (id, org_id, user_id, name, email, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Name,
		member.Email,
		member.Role,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repository) UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE org_members SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE org_id = ? AND user_id = ?`,
		role,
		orgID,
		userID,
	).Error
}

func (r *repository) FindMember(ctx context.Context, orgID, userID snowflake.ID) (*domain.OrganizationMember, error) {
	var items []domain.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repository) FindMemberByEmail(ctx context.Context, orgID snowflake.ID, email string) (*domain.OrganizationMember, error) {
	var items []domain.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, email).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repository) ListMembers(ctx context.Context, orgID snowflake.ID) ([]domain.OrganizationMember, error) {
	var items []domain.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
