package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
	apikeydomain "github.com/smallbiznis/peoplehub/internal/apikey/domain"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/config"
	organizationdomain "github.com/smallbiznis/peoplehub/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(registerBootstrap),
)

type Params struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     config.Config
	Log     *zap.Logger
	Orgs    organizationdomain.Service
	OrgRepo organizationdomain.Repository
	APIKeys apikeydomain.Service
}

func registerBootstrap(p Params) {
	if !p.Cfg.Bootstrap.Enabled() {
		return
	}
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return EnsureBootstrap(ctx, p)
		},
	})
}

// EnsureBootstrap seeds the first organization, its owner and an API key the
// owner can call the API with. Running it again changes nothing.
func EnsureBootstrap(ctx context.Context, p Params) error {
	bc := p.Cfg.Bootstrap
	if strings.TrimSpace(bc.APIKey) == "" {
		return errors.New("bootstrap api key is required")
	}
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeSystem, "bootstrap")

	org, err := p.OrgRepo.FindOrganizationBySlug(ctx, slug.Make(bc.OrgName))
	if err != nil {
		return err
	}

	var owner *organizationdomain.OrganizationMember
	if org == nil {
		created, err := p.Orgs.Create(ctx, organizationdomain.CreateOrganizationRequest{
			Name:       bc.OrgName,
			OwnerName:  bc.OwnerName,
			OwnerEmail: bc.OwnerEmail,
		})
		if err != nil {
			return err
		}
		orgID, err := organizationdomain.ParseID(created.ID)
		if err != nil {
			return err
		}
		org, err = p.OrgRepo.FindOrganization(ctx, orgID)
		if err != nil {
			return err
		}
		if org == nil {
			return organizationdomain.ErrNotFound
		}
		p.Log.Info("bootstrap organization created", zap.String("org_id", created.ID), zap.String("slug", created.Slug))
	}

	owner, err = p.OrgRepo.FindMemberByEmail(ctx, org.ID, strings.ToLower(strings.TrimSpace(bc.OwnerEmail)))
	if err != nil {
		return err
	}
	if owner == nil {
		return errors.New("bootstrap owner is not a member of the bootstrap organization")
	}

	return p.APIKeys.Register(ctx, org.ID, owner.UserID, "bootstrap", bc.APIKey)
}
