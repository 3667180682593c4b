package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Roles form a ladder: viewer < recruiter < hr_admin < owner.
const (
	RoleOwner     = "owner"
	RoleHRAdmin   = "hr_admin"
	RoleRecruiter = "recruiter"
	RoleViewer    = "viewer"
)

func NormalizeRole(role string) (string, bool) {
	switch value := strings.ToLower(strings.TrimSpace(role)); value {
	case RoleOwner, RoleHRAdmin, RoleRecruiter, RoleViewer:
		return value, true
	}
	return "", false
}

type Service interface {
	// Create makes a new org with the given person as its owner.
	Create(ctx context.Context, req CreateOrganizationRequest) (*OrganizationResponse, error)
	GetByID(ctx context.Context, id string) (*OrganizationResponse, error)
	AddMember(ctx context.Context, req AddMemberRequest) (*MemberResponse, error)
	ChangeMemberRole(ctx context.Context, req ChangeRoleRequest) (*MemberResponse, error)
	ListMembers(ctx context.Context) ([]MemberResponse, error)
}

type CreateOrganizationRequest struct {
	Name       string `json:"name"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

type AddMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ChangeRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type OrganizationResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Owner     *MemberResponse `json:"owner,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrMemberExists        = errors.New("member_exists")
	ErrSlugTaken           = errors.New("slug_taken")
	ErrNotFound            = errors.New("not_found")
	ErrLastOwner           = errors.New("last_owner")
)

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, ErrInvalidUser
	}
	return id, nil
}
