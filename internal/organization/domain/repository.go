package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	FindOrganization(ctx context.Context, id snowflake.ID) (*Organization, error)
	FindOrganizationBySlug(ctx context.Context, slug string) (*Organization, error)
	AddMember(ctx context.Context, member OrganizationMember) error
	UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error
	FindMember(ctx context.Context, orgID, userID snowflake.ID) (*OrganizationMember, error)
	FindMemberByEmail(ctx context.Context, orgID snowflake.ID, email string) (*OrganizationMember, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]OrganizationMember, error)
}
