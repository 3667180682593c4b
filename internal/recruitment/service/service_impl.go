package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/observability/metrics"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/lock"
	"github.com/smallbiznis/peoplehub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	Repo       recruitmentdomain.Repository
	History    repository.Repository[recruitmentdomain.StatusHistory]
	Interviews repository.Repository[recruitmentdomain.Interview]
	SalarySvc  salarydomain.Service
	Clock      clock.Clock
	Locker     lock.Locker         `optional:"true"`
	AuditSvc   auditdomain.Service `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	cfg        config.RecruitmentConfig
	repo       recruitmentdomain.Repository
	history    repository.Repository[recruitmentdomain.StatusHistory]
	interviews repository.Repository[recruitmentdomain.Interview]
	salarySvc  salarydomain.Service
	clock      clock.Clock
	locker     lock.Locker
	auditSvc   auditdomain.Service
	metrics    *metrics.Metrics
	workflow   *metrics.WorkflowMetrics
}

func NewService(p Params) recruitmentdomain.Service {
	locker := p.Locker
	if locker == nil {
		locker = lock.NewNoopLocker()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("recruitment.service"),
		genID:      p.GenID,
		cfg:        p.Cfg.Recruitment,
		repo:       p.Repo,
		history:    p.History,
		interviews: p.Interviews,
		salarySvc:  p.SalarySvc,
		clock:      p.Clock,
		locker:     locker,
		auditSvc:   p.AuditSvc,
		metrics:    p.Metrics,
		workflow:   metrics.Workflow(),
	}
}

func (s *Service) orgID(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, recruitmentdomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}

// withApplicationLock serializes writers on one application across replicas.
// Offer and employee changes also take this key since they move the application.
func (s *Service) withApplicationLock(ctx context.Context, orgID, applicationID snowflake.ID, fn func() error) error {
	key := lock.EntityKey(orgID.String(), "application", applicationID.String())
	return lock.With(ctx, s.locker, key, fn)
}

func (s *Service) appendHistory(ctx context.Context, tx *gorm.DB, entry recruitmentdomain.StatusHistory) error {
	entry.ID = s.genID.Generate()
	return s.history.WithTrx(tx).Create(ctx, &entry)
}

// guardFailed records an expected refusal. These are user-correctable and
// are logged at info.
func (s *Service) guardFailed(ctx context.Context, entity string, err error) error {
	if apperr.IsKind(err, apperr.KindInvalidTransition) ||
		apperr.IsKind(err, apperr.KindPreconditionNotMet) ||
		apperr.IsKind(err, apperr.KindDataIncomplete) {
		s.workflow.IncRejection(entity, err)
		s.log.Info("workflow guard refused",
			zap.String("entity", entity),
			zap.String("actor", auditcontext.ActorLabel(ctx)),
			zap.Error(err),
		)
	}
	return err
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

type transition struct {
	entity string
	from   string
	to     string
}

func (s *Service) recordTransitions(transitions ...transition) {
	for _, t := range transitions {
		s.workflow.IncTransition(t.entity, t.from, t.to)
	}
}
