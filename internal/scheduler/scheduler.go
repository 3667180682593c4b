// Package scheduler runs the periodic offer expiry sweep.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/clock"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobExpireOffers = "expire_offers"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log         *zap.Logger
	Recruitment recruitmentdomain.Service
	Clock       clock.Clock
	Locker      lock.Locker `optional:"true"`
	Config      Config
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	recruitment recruitmentdomain.Service
	locker      lock.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Recruitment == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		recruitment: p.Recruitment,
		locker:      p.Locker,
	}, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce expires due offers in batches until a batch comes back short.
// Only one replica sweeps at a time; the others skip the tick.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runJob(ctx, jobExpireOffers, s.cfg.JobTimeout, func(ctx context.Context) error {
		return lock.With(ctx, s.locker, lock.EntityKey("system", "job", jobExpireOffers), func() error {
			total := 0
			for {
				n, err := s.recruitment.ExpireDueOffers(ctx, s.cfg.BatchSize)
				if err != nil {
					return err
				}
				total += n
				if n < s.cfg.BatchSize {
					break
				}
			}
			if total > 0 {
				s.log.Info("expired offers", zap.Int("count", total))
			}
			return nil
		})
	})
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeSystem, "scheduler")
	log := s.log.With(zap.String("job", name))

	err := fn(ctx)
	if err == nil {
		log.Debug("job finished", zap.Duration("duration", s.clock.Now().Sub(start)))
		return nil
	}

	if apperr.IsKind(err, apperr.KindPreconditionNotMet) {
		log.Debug("job skipped, another replica holds the lock")
		return nil
	}
	// deadline is a soft timeout; the next tick picks up the rest
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out", zap.Duration("timeout", timeout))
		return nil
	}
	return err
}
