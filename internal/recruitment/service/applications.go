package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/db"
	"github.com/smallbiznis/peoplehub/pkg/db/option"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) SubmitApplication(ctx context.Context, req recruitmentdomain.SubmitApplicationRequest) (*recruitmentdomain.ApplicationResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	jobID, err := recruitmentdomain.ParseID(req.JobID)
	if err != nil {
		return nil, err
	}

	var candidateID snowflake.ID
	var input recruitmentdomain.CandidateInput
	if strings.TrimSpace(req.CandidateID) != "" {
		candidateID, err = recruitmentdomain.ParseID(req.CandidateID)
		if err != nil {
			return nil, err
		}
	} else {
		input, err = s.normalizeCandidate(req.Candidate)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	actor := auditcontext.ActorLabel(ctx)

	var (
		app       *recruitmentdomain.Application
		candidate *recruitmentdomain.Candidate
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindJobByID(ctx, tx, orgID, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return apperr.NotFound("job")
		}
		if job.Status != recruitmentdomain.JobStatusOpen {
			return apperr.PreconditionWithStatus(apperr.CodeJobClosed, "job", string(job.Status), "job is not accepting applications")
		}

		candidate, err = s.resolveCandidate(ctx, tx, orgID, candidateID, input, now)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindApplicationByJobCandidate(ctx, tx, orgID, job.ID, candidate.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateApplication(existing.Status)
		}

		designation := strings.TrimSpace(req.Designation)
		if designation == "" {
			designation = job.Title
		}
		app = &recruitmentdomain.Application{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			JobID:       job.ID,
			CandidateID: candidate.ID,
			Status:      recruitmentdomain.ApplicationStatusApplied,
			Designation: designation,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.InsertApplication(ctx, tx, app); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return duplicateApplication("")
			}
			return err
		}
		return s.appendHistory(ctx, tx, recruitmentdomain.InitialHistory(app, actor, now))
	})
	if err != nil {
		return nil, s.guardFailed(ctx, "application", err)
	}

	s.metrics.RecordApplicationSubmitted(ctx, orgID.String())
	s.recordTransitions(transition{entity: "application", to: string(app.Status)})
	s.emitAudit(ctx, orgID, "application.submitted", "application", app.ID, map[string]any{
		"job_id":       app.JobID.String(),
		"candidate_id": app.CandidateID.String(),
		"email":        candidate.Email,
	})

	resp := toApplicationResponse(app)
	resp.Candidate = toCandidateResponse(candidate)
	return resp, nil
}

func duplicateApplication(current recruitmentdomain.ApplicationStatus) error {
	msg := "candidate already applied to this job"
	if current == "" {
		return apperr.PreconditionNotMet(apperr.CodeDuplicateApplication, msg)
	}
	return apperr.PreconditionWithStatus(apperr.CodeDuplicateApplication, "application", string(current), msg)
}

func (s *Service) normalizeCandidate(in recruitmentdomain.CandidateInput) (recruitmentdomain.CandidateInput, error) {
	out := recruitmentdomain.CandidateInput{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Address:  strings.TrimSpace(in.Address),
	}
	if out.FullName == "" {
		return out, recruitmentdomain.ErrInvalidCandidate
	}
	if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
		return out, recruitmentdomain.ErrInvalidEmail
	}

	region := in.Region
	if strings.TrimSpace(region) == "" {
		region = s.cfg.PhoneRegion
	}
	phone, err := normalizePhone(in.Phone, region)
	if err != nil {
		return out, err
	}
	out.Phone = phone
	return out, nil
}

// resolveCandidate loads by id, or reuses the org's candidate with the same
// email, or creates one.
func (s *Service) resolveCandidate(ctx context.Context, tx *gorm.DB, orgID, candidateID snowflake.ID, input recruitmentdomain.CandidateInput, now time.Time) (*recruitmentdomain.Candidate, error) {
	if candidateID != 0 {
		candidate, err := s.repo.FindCandidateByID(ctx, tx, orgID, candidateID)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, apperr.NotFound("candidate")
		}
		return candidate, nil
	}

	candidate, err := s.repo.FindCandidateByEmail(ctx, tx, orgID, input.Email)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		return candidate, nil
	}

	candidate = &recruitmentdomain.Candidate{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The savepoint keeps the outer transaction usable when a concurrent
	// submission created the same email first.
	err = tx.Transaction(func(inner *gorm.DB) error {
		return s.repo.InsertCandidate(ctx, inner, candidate)
	})
	if err == nil {
		return candidate, nil
	}
	if !db.IsDuplicateKeyErr(err) {
		return nil, err
	}
	winner, err := s.repo.FindCandidateByEmail(ctx, tx, orgID, input.Email)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, apperr.PreconditionNotMet(apperr.CodeEntityLocked, "candidate is being created by another request")
	}
	return winner, nil
}

func (s *Service) GetApplication(ctx context.Context, id string) (*recruitmentdomain.ApplicationResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := recruitmentdomain.ParseID(id)
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
	if app.OfferID != nil {
		expired, err := s.expireIfDue(ctx, orgID, *app.OfferID)
		if err != nil {
			return nil, err
		}
		if expired {
			if app, err = s.repo.FindApplicationByID(ctx, s.db, orgID, appID); err != nil {
				return nil, err
			}
		}
	}

	candidate, err := s.repo.FindCandidateByID(ctx, s.db, orgID, app.CandidateID)
	if err != nil {
		return nil, err
	}

	resp := toApplicationResponse(app)
	resp.Candidate = toCandidateResponse(candidate)
	return resp, nil
}

func (s *Service) ListApplications(ctx context.Context, req recruitmentdomain.ListApplicationsRequest) (recruitmentdomain.ListApplicationsResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return recruitmentdomain.ListApplicationsResponse{}, err
	}

	limit := req.Limit(20, 100)
	filter := recruitmentdomain.ApplicationFilter{Limit: limit + 1}
	if strings.TrimSpace(req.JobID) != "" {
		if filter.JobID, err = recruitmentdomain.ParseID(req.JobID); err != nil {
			return recruitmentdomain.ListApplicationsResponse{}, err
		}
	}
	if strings.TrimSpace(req.CandidateID) != "" {
		if filter.CandidateID, err = recruitmentdomain.ParseID(req.CandidateID); err != nil {
			return recruitmentdomain.ListApplicationsResponse{}, err
		}
	}
	if strings.TrimSpace(req.Status) != "" {
		status, err := recruitmentdomain.ParseApplicationStatus(req.Status)
		if err != nil {
			return recruitmentdomain.ListApplicationsResponse{}, recruitmentdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.PageToken != "" {
		createdAt, id, err := decodePageToken(req.PageToken)
		if err != nil {
			return recruitmentdomain.ListApplicationsResponse{}, err
		}
		filter.BeforeCreatedAt = &createdAt
		filter.BeforeID = id
	}

	items, err := s.repo.ListApplications(ctx, s.db, orgID, filter)
	if err != nil {
		return recruitmentdomain.ListApplicationsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, limit, func(app *recruitmentdomain.Application) string {
		return encodePageToken(app.CreatedAt, app.ID)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	resp := recruitmentdomain.ListApplicationsResponse{
		PageInfo:     *pageInfo,
		Applications: make([]recruitmentdomain.ApplicationResponse, 0, len(items)),
	}
	for _, app := range items {
		resp.Applications = append(resp.Applications, *toApplicationResponse(app))
	}
	return resp, nil
}

// ChangeApplicationStatus applies a manual pipeline move. OFFERED and JOINED
// are reachable only through CreateOffer and ConvertToEmployee.
func (s *Service) ChangeApplicationStatus(ctx context.Context, req recruitmentdomain.ChangeStatusRequest) (*recruitmentdomain.ApplicationResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := recruitmentdomain.ParseID(req.ApplicationID)
	if err != nil {
		return nil, err
	}
	requested, err := recruitmentdomain.ParseApplicationStatus(req.Status)
	if err != nil {
		return nil, recruitmentdomain.ErrInvalidStatus
	}
	if requested == recruitmentdomain.ApplicationStatusOffered || requested == recruitmentdomain.ApplicationStatusJoined {
		return nil, s.guardFailed(ctx, "application", apperr.PreconditionNotMet(
			apperr.CodeWorkflowOnlyStatus,
			"status "+string(requested)+" is set by the offer workflow",
		))
	}

	actor := auditcontext.ActorLabel(ctx)
	reason := strings.TrimSpace(req.Reason)

	var (
		app         *recruitmentdomain.Application
		offer       *recruitmentdomain.Offer
		transitions []transition
	)
	err = s.withApplicationLock(ctx, orgID, appID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			app, err = s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, appID)
			if err != nil {
				return err
			}
			if app == nil {
				return apperr.NotFound("application")
			}

			from := app.Status
			entry, err := recruitmentdomain.ChangeStatus(app, requested, actor, reason, s.now())
			if err != nil {
				return err
			}
			transitions = append(transitions, transition{entity: "application", from: string(from), to: string(requested)})

			if from == recruitmentdomain.ApplicationStatusOffered && app.OfferID != nil {
				var offerFrom recruitmentdomain.OfferStatus
				offer, offerFrom, err = s.withdrawLinkedOffer(ctx, tx, app, reason)
				if err != nil {
					return err
				}
				if offer != nil {
					transitions = append(transitions, transition{entity: "offer", from: string(offerFrom), to: string(offer.Status)})
				}
			}

			if err := s.repo.UpdateApplication(ctx, tx, app); err != nil {
				return err
			}
			return s.appendHistory(ctx, tx, entry)
		})
	})
	if err != nil {
		return nil, s.guardFailed(ctx, "application", err)
	}

	s.recordTransitions(transitions...)
	s.emitAudit(ctx, orgID, "application.status_changed", "application", app.ID, map[string]any{
		"from":   transitions[0].from,
		"to":     string(app.Status),
		"reason": reason,
	})
	if offer != nil {
		s.emitAudit(ctx, orgID, "offer.withdrawn", "offer", offer.ID, map[string]any{"reason": reason})
	}
	return toApplicationResponse(app), nil
}

// withdrawLinkedOffer closes a still-open offer when its application leaves
// OFFERED. Offers already in a terminal status are left as they are.
func (s *Service) withdrawLinkedOffer(ctx context.Context, tx *gorm.DB, app *recruitmentdomain.Application, reason string) (*recruitmentdomain.Offer, recruitmentdomain.OfferStatus, error) {
	offer, err := s.repo.FindOfferByIDForUpdate(ctx, tx, app.OrgID, *app.OfferID)
	if err != nil {
		return nil, "", err
	}
	if offer == nil || offer.Status.Terminal() {
		return nil, "", nil
	}
	from := offer.Status
	if err := recruitmentdomain.ChangeOfferStatus(offer, recruitmentdomain.OfferStatusWithdrawn, s.now()); err != nil {
		return nil, "", err
	}
	offer.WithdrawalReason = reason
	if err := s.repo.UpdateOffer(ctx, tx, offer); err != nil {
		return nil, "", err
	}
	recruitmentdomain.ApplyOfferMirror(app, offer)
	return offer, from, nil
}

func (s *Service) ListStatusHistory(ctx context.Context, applicationID string) ([]recruitmentdomain.StatusHistoryResponse, error) {
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

	rows, err := s.history.Find(ctx,
		&recruitmentdomain.StatusHistory{OrgID: orgID, ApplicationID: appID},
		option.WithOrder("created_at ASC, id ASC"),
	)
	if err != nil {
		s.log.Error("failed to load status history", zap.String("application_id", appID.String()), zap.Error(err))
		return nil, err
	}

	resp := make([]recruitmentdomain.StatusHistoryResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, recruitmentdomain.StatusHistoryResponse{
			FromStatus: row.FromStatus,
			ToStatus:   row.ToStatus,
			Actor:      row.Actor,
			Reason:     row.Reason,
			CreatedAt:  row.CreatedAt,
		})
	}
	return resp, nil
}
