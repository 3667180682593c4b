package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/db/option"
	"gorm.io/gorm"
)

// ScheduleInterview books the next round. The first interview moves a
// shortlisted application to INTERVIEW.
func (s *Service) ScheduleInterview(ctx context.Context, req recruitmentdomain.ScheduleInterviewRequest) (*recruitmentdomain.InterviewResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := recruitmentdomain.ParseID(req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if req.ScheduledAt.IsZero() {
		return nil, recruitmentdomain.ErrInvalidSchedule
	}

	actor := auditcontext.ActorLabel(ctx)
	var (
		interview   *recruitmentdomain.Interview
		transitions []transition
	)
	err = s.withApplicationLock(ctx, orgID, appID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			app, err := s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, appID)
			if err != nil {
				return err
			}
			if app == nil {
				return apperr.NotFound("application")
			}
			if app.Status != recruitmentdomain.ApplicationStatusShortlisted && app.Status != recruitmentdomain.ApplicationStatusInterview {
				return apperr.PreconditionWithStatus(apperr.CodeInterviewNotAllowed, "application", string(app.Status),
					"interviews can be scheduled only for shortlisted or interviewing applications")
			}

			store := s.interviews.WithTrx(tx)
			rounds, err := store.Count(ctx, &recruitmentdomain.Interview{OrgID: orgID, ApplicationID: appID})
			if err != nil {
				return err
			}

			now := s.now()
			interview = &recruitmentdomain.Interview{
				ID:            s.genID.Generate(),
				OrgID:         orgID,
				ApplicationID: appID,
				ScheduledAt:   req.ScheduledAt.UTC(),
				Interviewer:   strings.TrimSpace(req.Interviewer),
				Mode:          strings.ToUpper(strings.TrimSpace(req.Mode)),
				Round:         int(rounds) + 1,
				Status:        recruitmentdomain.InterviewStatusScheduled,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := store.Create(ctx, interview); err != nil {
				return err
			}

			if app.Status != recruitmentdomain.ApplicationStatusShortlisted {
				return nil
			}
			entry, err := recruitmentdomain.ChangeStatus(app, recruitmentdomain.ApplicationStatusInterview, actor, "interview scheduled", now)
			if err != nil {
				return err
			}
			transitions = append(transitions, transition{entity: "application", from: entry.FromStatus, to: entry.ToStatus})
			if err := s.repo.UpdateApplication(ctx, tx, app); err != nil {
				return err
			}
			return s.appendHistory(ctx, tx, entry)
		})
	})
	if err != nil {
		return nil, s.guardFailed(ctx, "interview", err)
	}

	s.recordTransitions(transitions...)
	s.emitAudit(ctx, orgID, "interview.scheduled", "interview", interview.ID, map[string]any{
		"application_id": appID.String(),
		"round":          interview.Round,
	})
	return toInterviewResponse(interview), nil
}

func (s *Service) ListInterviews(ctx context.Context, applicationID string) ([]recruitmentdomain.InterviewResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := recruitmentdomain.ParseID(applicationID)
	if err != nil {
		return nil, err
	}

	rows, err := s.interviews.Find(ctx,
		&recruitmentdomain.Interview{OrgID: orgID, ApplicationID: appID},
		option.WithOrder("round ASC"),
	)
	if err != nil {
		return nil, err
	}

	resp := make([]recruitmentdomain.InterviewResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, *toInterviewResponse(row))
	}
	return resp, nil
}
