package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/organization/domain"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	"github.com/smallbiznis/peoplehub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Clock    clock.Clock         `optional:"true"`
	AuditSvc auditdomain.Service `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &service{
		db:       p.DB,
		log:      p.Log.Named("organization.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    clk,
		auditSvc: p.AuditSvc,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	orgSlug := slug.Make(name)
	if orgSlug == "" {
		return nil, domain.ErrInvalidName
	}
	ownerName := strings.TrimSpace(req.OwnerName)
	if ownerName == "" {
		return nil, domain.ErrInvalidName
	}
	ownerEmail, err := normalizeEmail(req.OwnerEmail)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      orgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     org.ID,
		UserID:    s.genID.Generate(),
		Name:      ownerName,
		Email:     ownerEmail,
		Role:      domain.RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindOrganizationBySlug(ctx, orgSlug)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrSlugTaken
		}
		if err := repo.CreateOrganization(ctx, org); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrSlugTaken
			}
			return err
		}
		return repo.AddMember(ctx, owner)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("organization created", zap.String("org_id", org.ID.String()), zap.String("slug", org.Slug))
	s.emitAudit(ctx, org.ID, "organization.created", "organization", org.ID.String(), map[string]any{
		"slug":          org.Slug,
		"owner_user_id": owner.UserID.String(),
	})

	resp := toOrganizationResponse(&org)
	resp.Owner = toMemberResponse(&owner)
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.OrganizationResponse, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return toOrganizationResponse(org), nil
}

func (s *service) AddMember(ctx context.Context, req domain.AddMemberRequest) (*domain.MemberResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	role, ok := domain.NormalizeRole(req.Role)
	if !ok {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindMemberByEmail(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrMemberExists
	}

	now := s.clock.Now().UTC()
	member := domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    s.genID.Generate(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrMemberExists
		}
		return nil, err
	}

	s.emitAudit(ctx, orgID, "organization.member_added", "org_member", member.UserID.String(), map[string]any{
		"role": role,
	})
	return toMemberResponse(&member), nil
}

func (s *service) ChangeMemberRole(ctx context.Context, req domain.ChangeRoleRequest) (*domain.MemberResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := domain.ParseID(req.UserID)
	if err != nil {
		return nil, err
	}
	role, ok := domain.NormalizeRole(req.Role)
	if !ok {
		return nil, domain.ErrInvalidRole
	}

	var member *domain.OrganizationMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Role == domain.RoleOwner && role != domain.RoleOwner {
			members, err := repo.ListMembers(ctx, orgID)
			if err != nil {
				return err
			}
			if countRole(members, domain.RoleOwner) <= 1 {
				return domain.ErrLastOwner
			}
		}
		if err := repo.UpdateMemberRole(ctx, orgID, userID, role); err != nil {
			return err
		}
		current.Role = role
		member = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, orgID, "organization.member_role_changed", "org_member", userID.String(), map[string]any{
		"role": role,
	})
	return toMemberResponse(member), nil
}

func (s *service) ListMembers(ctx context.Context) ([]domain.MemberResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.MemberResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *toMemberResponse(&items[i]))
	}
	return resp, nil
}

func (s *service) orgID(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func (s *service) emitAudit(ctx context.Context, orgID snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func countRole(members []domain.OrganizationMember, role string) int {
	n := 0
	for _, m := range members {
		if m.Role == role {
			n++
		}
	}
	return n
}

func toOrganizationResponse(org *domain.Organization) *domain.OrganizationResponse {
	return &domain.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
	}
}

func toMemberResponse(member *domain.OrganizationMember) *domain.MemberResponse {
	return &domain.MemberResponse{
		UserID:    member.UserID.String(),
		Name:      member.Name,
		Email:     member.Email,
		Role:      member.Role,
		CreatedAt: member.CreatedAt,
	}
}
