package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"gorm.io/gorm"
)

// LoadLetterSubject gathers the application with its candidate, job, offer and
// employee. A due offer is expired first so letters never show a stale status.
func (s *Service) LoadLetterSubject(ctx context.Context, applicationID string) (*recruitmentdomain.LetterSubject, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := recruitmentdomain.ParseID(applicationID)
	if err != nil {
		return nil, err
	}

	app, err := s.repo.FindApplicationByID(ctx, s.db, orgID, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperr.NotFound("application")
	}

	subject := &recruitmentdomain.LetterSubject{}
	if app.OfferID != nil {
		if _, err := s.expireIfDue(ctx, orgID, *app.OfferID); err != nil {
			return nil, err
		}
		if app, err = s.repo.FindApplicationByID(ctx, s.db, orgID, appID); err != nil {
			return nil, err
		}
		if subject.Offer, err = s.repo.FindOfferByID(ctx, s.db, orgID, *app.OfferID); err != nil {
			return nil, err
		}
	}
	subject.Application = *app

	candidate, err := s.repo.FindCandidateByID(ctx, s.db, orgID, app.CandidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, apperr.NotFound("candidate")
	}
	subject.Candidate = *candidate

	job, err := s.repo.FindJobByID(ctx, s.db, orgID, app.JobID)
	if err != nil {
		return nil, err
	}
	if job != nil {
		subject.Job = *job
	}

	if app.EmployeeID != nil {
		if subject.Employee, err = s.repo.FindEmployeeByID(ctx, s.db, orgID, *app.EmployeeID); err != nil {
			return nil, err
		}
	}

	switch {
	case subject.Offer != nil && subject.Offer.HasSnapshot():
		subject.Snapshot, err = salarydomain.DecodeSnapshot(subject.Offer.SalarySnapshot)
	case subject.Employee != nil:
		subject.Snapshot, err = salarydomain.DecodeSnapshot(subject.Employee.SalarySnapshot)
	}
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *Service) AttachLetter(ctx context.Context, applicationID snowflake.ID, kind recruitmentdomain.LetterKind, path string) error {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return apperr.Validation("path", "required", "letter path is required")
	}
	if kind != recruitmentdomain.LetterKindOffer && kind != recruitmentdomain.LetterKindJoining {
		return recruitmentdomain.ErrInvalidLetterKind
	}

	return s.withApplicationLock(ctx, orgID, applicationID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			app, err := s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, applicationID)
			if err != nil {
				return err
			}
			if app == nil {
				return apperr.NotFound("application")
			}
			if kind == recruitmentdomain.LetterKindOffer {
				app.OfferLetterPath = path
			} else {
				app.JoiningLetterPath = path
			}
			app.UpdatedAt = s.now()
			return s.repo.UpdateApplication(ctx, tx, app)
		})
	})
}
