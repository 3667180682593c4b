package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/letter/render"
	"github.com/smallbiznis/peoplehub/internal/observability/metrics"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	"github.com/smallbiznis/peoplehub/internal/ratelimit"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/internal/storage/object"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	LetterCfg   *config.LetterConfigHolder
	Repo        letterdomain.Repository
	Recruitment recruitmentdomain.Service
	Renderer    *render.Renderer
	Store       object.Store
	Clock       clock.Clock
	Limiter     *ratelimit.RenderLimiter `optional:"true"`
	AuditSvc    auditdomain.Service      `optional:"true"`
	Metrics     *metrics.Metrics         `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	downloadURL string
	letterCfg   *config.LetterConfigHolder
	repo        letterdomain.Repository
	recruitment recruitmentdomain.Service
	renderer    *render.Renderer
	store       object.Store
	clock       clock.Clock
	limiter     *ratelimit.RenderLimiter
	auditSvc    auditdomain.Service
	metrics     *metrics.Metrics
	workflow    *metrics.WorkflowMetrics
}

func NewService(p Params) letterdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	downloadURL := strings.TrimRight(strings.TrimSpace(p.Cfg.Letters.PublicDownloadURL), "/")
	if downloadURL == "" {
		downloadURL = "/api/letters"
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("letter.service"),
		genID:       p.GenID,
		downloadURL: downloadURL,
		letterCfg:   p.LetterCfg,
		repo:        p.Repo,
		recruitment: p.Recruitment,
		renderer:    p.Renderer,
		store:       p.Store,
		clock:       clk,
		limiter:     p.Limiter,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
		workflow:    metrics.Workflow(),
	}
}

func (s *Service) orgID(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, letterdomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) emitAudit(ctx context.Context, orgID snowflake.ID, action, targetType string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, targetType, &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) toTemplateResponse(tmpl *letterdomain.LetterTemplate) *letterdomain.TemplateResponse {
	placeholders := []string(tmpl.Placeholders)
	if placeholders == nil {
		placeholders = []string{}
	}
	return &letterdomain.TemplateResponse{
		ID:           tmpl.ID.String(),
		Name:         tmpl.Name,
		Type:         tmpl.Type,
		TemplateType: tmpl.TemplateType,
		FilePath:     tmpl.FilePath,
		Placeholders: placeholders,
		IsDefault:    tmpl.IsDefault,
		CreatedAt:    tmpl.CreatedAt,
		UpdatedAt:    tmpl.UpdatedAt,
	}
}

func (s *Service) toLetterResponse(letter *letterdomain.GeneratedLetter) *letterdomain.LetterResponse {
	resp := &letterdomain.LetterResponse{
		ID:            letter.ID.String(),
		ApplicationID: letter.ApplicationID.String(),
		TemplateID:    letter.TemplateID.String(),
		Type:          letter.Type,
		Status:        letter.Status,
		PDFPath:       letter.PDFPath,
		CreatedAt:     letter.CreatedAt,
	}
	if letter.Status == letterdomain.GeneratedStatusGenerated && letter.PDFPath != "" {
		resp.DownloadURL = s.downloadURL + "/" + letter.ID.String() + "/download"
	}
	return resp
}
