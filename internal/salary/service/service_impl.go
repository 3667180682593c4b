package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/internal/salary/export"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      salarydomain.Repository
	Clock     clock.Clock
	LetterCfg *config.LetterConfigHolder
	AuditSvc  auditdomain.Service `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      salarydomain.Repository
	clock     clock.Clock
	letterCfg *config.LetterConfigHolder
	auditSvc  auditdomain.Service
}

func NewService(p Params) salarydomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("salary.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		clock:     p.Clock,
		letterCfg: p.LetterCfg,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req salarydomain.CreateRequest) (*salarydomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, salarydomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, salarydomain.ErrInvalidName
	}

	components, err := salarydomain.ParseComponents(req.Components)
	if err != nil {
		return nil, err
	}

	now := s.now()
	structure := &salarydomain.SalaryStructure{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Components:  components,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, structure); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "salary_structure.created", structure)
	return toResponse(structure), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*salarydomain.Response, error) {
	structure, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(structure), nil
}

func (s *Service) List(ctx context.Context, req salarydomain.ListRequest) ([]salarydomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, salarydomain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID, salarydomain.ListRequest{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		return nil, err
	}

	resp := make([]salarydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Snapshot(ctx context.Context, id string) (*salarydomain.Snapshot, error) {
	structure, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := salarydomain.NewSnapshot(structure.ID.String(), structure.Name, []salarydomain.Component(structure.Components), s.now())
	return &snap, nil
}

func (s *Service) SnapshotFromComponents(ctx context.Context, inputs []salarydomain.ComponentInput) (*salarydomain.Snapshot, error) {
	if _, ok := orgcontext.OrgIDFromContext(ctx); !ok {
		return nil, salarydomain.ErrInvalidOrganization
	}
	components, err := salarydomain.ParseComponents(inputs)
	if err != nil {
		return nil, err
	}
	snap := salarydomain.NewSnapshot("", "", components, s.now())
	return &snap, nil
}

func (s *Service) ExportBreakdown(ctx context.Context, id string) ([]byte, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	raw, err := export.BreakdownXLSX(*snap, s.formatter())
	if err != nil {
		s.log.Error("failed to build salary breakdown workbook",
			zap.String("structure_id", snap.StructureID),
			zap.Error(err),
		)
		return nil, err
	}
	return raw, nil
}

func (s *Service) load(ctx context.Context, id string) (*salarydomain.SalaryStructure, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, salarydomain.ErrInvalidOrganization
	}

	structureID, err := salarydomain.ParseID(id)
	if err != nil {
		return nil, salarydomain.ErrInvalidID
	}

	structure, err := s.repo.FindByID(ctx, s.db, orgID, structureID)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, salarydomain.ErrNotFound
	}
	return structure, nil
}

func (s *Service) formatter() salarydomain.Formatter {
	if s.letterCfg == nil {
		return salarydomain.Formatter{Locale: salarydomain.LocaleIndia, ZeroLabel: "0"}
	}
	cfg := s.letterCfg.Get()
	return salarydomain.Formatter{Locale: cfg.Locale, ZeroLabel: cfg.ZeroAmountLabel}
}

func (s *Service) emitAudit(ctx context.Context, action string, structure *salarydomain.SalaryStructure) {
	if s.auditSvc == nil {
		return
	}
	targetID := structure.ID.String()
	orgID := structure.OrgID
	metadata := map[string]any{
		"name":            structure.Name,
		"component_count": len(structure.Components),
	}
	if err := s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, "salary_structure", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}

func toResponse(structure *salarydomain.SalaryStructure) *salarydomain.Response {
	components := []salarydomain.Component(structure.Components)
	earnings, deductions, benefits := salarydomain.Split(components)
	return &salarydomain.Response{
		ID:          structure.ID.String(),
		OrgID:       structure.OrgID.String(),
		Name:        structure.Name,
		Description: structure.Description,
		Components:  components,
		Totals:      salarydomain.ComputeTotals(earnings, deductions, benefits),
		CreatedAt:   structure.CreatedAt,
		UpdatedAt:   structure.UpdatedAt,
	}
}
