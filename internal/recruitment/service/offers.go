package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateOffer drafts the single offer for a SELECTED application and moves
// the application to OFFERED.
func (s *Service) CreateOffer(ctx context.Context, req recruitmentdomain.CreateOfferRequest) (*recruitmentdomain.OfferResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := recruitmentdomain.ParseID(req.ApplicationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	validUntil := req.ValidUntil
	if validUntil == nil && s.cfg.OfferValidity > 0 {
		v := now.Add(s.cfg.OfferValidity)
		validUntil = &v
	}
	if validUntil != nil && !validUntil.After(now) {
		return nil, recruitmentdomain.ErrInvalidOfferDates
	}

	snapshot, err := s.buildSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}
	var rawSnapshot datatypes.JSON
	if snapshot != nil {
		encoded, err := salarydomain.EncodeSnapshot(*snapshot)
		if err != nil {
			return nil, err
		}
		rawSnapshot = datatypes.JSON(encoded)
	}

	actor := auditcontext.ActorLabel(ctx)
	var offer *recruitmentdomain.Offer
	err = s.withApplicationLock(ctx, orgID, appID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			app, err := s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, appID)
			if err != nil {
				return err
			}
			if app == nil {
				return apperr.NotFound("application")
			}

			if app.OfferID != nil {
				return apperr.PreconditionWithStatus(apperr.CodeOfferExists, "application", string(app.Status), "application already has an offer")
			}
			existing, err := s.repo.FindOfferByApplicationForUpdate(ctx, tx, orgID, appID)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperr.PreconditionWithStatus(apperr.CodeOfferExists, "application", string(app.Status), "application already has an offer")
			}
			if app.Status != recruitmentdomain.ApplicationStatusSelected {
				return apperr.PreconditionWithStatus(apperr.CodeApplicationNotSelected, "application", string(app.Status), "offers can be created only for selected applications")
			}

			designation := strings.TrimSpace(req.Designation)
			if designation == "" {
				designation = app.Designation
			}
			offer = &recruitmentdomain.Offer{
				ID:             s.genID.Generate(),
				OrgID:          orgID,
				ApplicationID:  appID,
				Status:         recruitmentdomain.OfferStatusDraft,
				Designation:    designation,
				JoiningDate:    utcPtr(req.JoiningDate),
				ValidUntil:     utcPtr(validUntil),
				SalarySnapshot: rawSnapshot,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.repo.InsertOffer(ctx, tx, offer); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return apperr.PreconditionNotMet(apperr.CodeOfferExists, "application already has an offer")
				}
				return err
			}

			entry, err := recruitmentdomain.ChangeStatus(app, recruitmentdomain.ApplicationStatusOffered, actor, "offer created", now)
			if err != nil {
				return err
			}
			app.OfferID = &offer.ID
			app.Designation = designation
			recruitmentdomain.ApplyOfferMirror(app, offer)

			if err := s.repo.UpdateApplication(ctx, tx, app); err != nil {
				return err
			}
			return s.appendHistory(ctx, tx, entry)
		})
	})
	if err != nil {
		return nil, s.guardFailed(ctx, "offer", err)
	}

	s.recordTransitions(
		transition{entity: "application", from: string(recruitmentdomain.ApplicationStatusSelected), to: string(recruitmentdomain.ApplicationStatusOffered)},
		transition{entity: "offer", to: string(recruitmentdomain.OfferStatusDraft)},
	)
	s.emitAudit(ctx, orgID, "offer.created", "offer", offer.ID, map[string]any{
		"application_id":   appID.String(),
		"designation":      offer.Designation,
		"has_salary":       snapshot != nil,
		"salary_structure": strings.TrimSpace(req.SalaryStructureID),
	})
	return toOfferResponse(offer)
}

func (s *Service) buildSnapshot(ctx context.Context, req recruitmentdomain.CreateOfferRequest) (*salarydomain.Snapshot, error) {
	if id := strings.TrimSpace(req.SalaryStructureID); id != "" {
		return s.salarySvc.Snapshot(ctx, id)
	}
	if len(req.Components) > 0 {
		return s.salarySvc.SnapshotFromComponents(ctx, req.Components)
	}
	return nil, nil
}

func (s *Service) GetOffer(ctx context.Context, id string) (*recruitmentdomain.OfferResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	offerID, err := recruitmentdomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	if _, err := s.expireIfDue(ctx, orgID, offerID); err != nil {
		return nil, err
	}
	offer, err := s.repo.FindOfferByID(ctx, s.db, orgID, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperr.NotFound("offer")
	}
	return toOfferResponse(offer)
}

func (s *Service) SendOffer(ctx context.Context, id string) (*recruitmentdomain.OfferResponse, error) {
	return s.transitionOffer(ctx, id, recruitmentdomain.OfferStatusSent, "")
}

func (s *Service) AcceptOffer(ctx context.Context, id string) (*recruitmentdomain.OfferResponse, error) {
	return s.transitionOffer(ctx, id, recruitmentdomain.OfferStatusAccepted, "")
}

// RejectOffer records the candidate declining; the application becomes REJECTED.
func (s *Service) RejectOffer(ctx context.Context, id string) (*recruitmentdomain.OfferResponse, error) {
	return s.transitionOffer(ctx, id, recruitmentdomain.OfferStatusRejected, "offer declined")
}

// WithdrawOffer retracts an open offer; the application becomes WITHDRAWN.
func (s *Service) WithdrawOffer(ctx context.Context, req recruitmentdomain.WithdrawOfferRequest) (*recruitmentdomain.OfferResponse, error) {
	return s.transitionOffer(ctx, req.OfferID, recruitmentdomain.OfferStatusWithdrawn, strings.TrimSpace(req.Reason))
}

func (s *Service) transitionOffer(ctx context.Context, id string, requested recruitmentdomain.OfferStatus, reason string) (*recruitmentdomain.OfferResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	offerID, err := recruitmentdomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	// Expiry is committed on its own so a refused response still leaves the
	// offer EXPIRED.
	if _, err := s.expireIfDue(ctx, orgID, offerID); err != nil {
		return nil, err
	}

	current, err := s.repo.FindOfferByID(ctx, s.db, orgID, offerID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("offer")
	}

	actor := auditcontext.ActorLabel(ctx)
	var (
		offer       *recruitmentdomain.Offer
		transitions []transition
	)
	err = s.withApplicationLock(ctx, orgID, current.ApplicationID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			offer, err = s.repo.FindOfferByIDForUpdate(ctx, tx, orgID, offerID)
			if err != nil {
				return err
			}
			if offer == nil {
				return apperr.NotFound("offer")
			}
			app, err := s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, offer.ApplicationID)
			if err != nil {
				return err
			}
			if app == nil {
				return apperr.NotFound("application")
			}

			now := s.now()
			from := offer.Status
			if err := recruitmentdomain.ChangeOfferStatus(offer, requested, now); err != nil {
				return err
			}
			transitions = append(transitions, transition{entity: "offer", from: string(from), to: string(requested)})
			if requested == recruitmentdomain.OfferStatusWithdrawn {
				offer.WithdrawalReason = reason
			}
			if err := s.repo.UpdateOffer(ctx, tx, offer); err != nil {
				return err
			}

			var history *recruitmentdomain.StatusHistory
			switch requested {
			case recruitmentdomain.OfferStatusRejected, recruitmentdomain.OfferStatusWithdrawn:
				appTarget := recruitmentdomain.ApplicationStatusRejected
				if requested == recruitmentdomain.OfferStatusWithdrawn {
					appTarget = recruitmentdomain.ApplicationStatusWithdrawn
				}
				appFrom := app.Status
				entry, err := recruitmentdomain.ChangeStatus(app, appTarget, actor, reason, now)
				if err != nil {
					return err
				}
				history = &entry
				transitions = append(transitions, transition{entity: "application", from: string(appFrom), to: string(appTarget)})
			}
			recruitmentdomain.ApplyOfferMirror(app, offer)
			app.UpdatedAt = now

			if err := s.repo.UpdateApplication(ctx, tx, app); err != nil {
				return err
			}
			if history == nil {
				return nil
			}
			return s.appendHistory(ctx, tx, *history)
		})
	})
	if err != nil {
		return nil, s.guardFailed(ctx, "offer", err)
	}

	s.recordTransitions(transitions...)
	if requested.Terminal() {
		s.metrics.RecordOfferDecision(ctx, orgID.String(), string(requested))
	}
	metadata := map[string]any{"application_id": offer.ApplicationID.String()}
	if reason != "" {
		metadata["reason"] = reason
	}
	s.emitAudit(ctx, orgID, "offer."+strings.ToLower(string(requested)), "offer", offer.ID, metadata)
	return toOfferResponse(offer)
}

// expireIfDue applies SENT -> EXPIRED in its own transaction when the offer
// is past valid_until, mirroring EXPIRED onto the application.
func (s *Service) expireIfDue(ctx context.Context, orgID, offerID snowflake.ID) (bool, error) {
	now := s.now()

	peek, err := s.repo.FindOfferByID(ctx, s.db, orgID, offerID)
	if err != nil || peek == nil || !peek.Expired(now) {
		return false, err
	}

	expired := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := s.repo.FindOfferByIDForUpdate(ctx, tx, orgID, offerID)
		if err != nil {
			return err
		}
		if offer == nil || !offer.Expired(now) {
			return nil
		}
		if err := recruitmentdomain.ChangeOfferStatus(offer, recruitmentdomain.OfferStatusExpired, now); err != nil {
			return err
		}
		if err := s.repo.UpdateOffer(ctx, tx, offer); err != nil {
			return err
		}

		app, err := s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, offer.ApplicationID)
		if err != nil {
			return err
		}
		if app != nil {
			recruitmentdomain.ApplyOfferMirror(app, offer)
			app.UpdatedAt = now
			if err := s.repo.UpdateApplication(ctx, tx, app); err != nil {
				return err
			}
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if expired {
		s.recordTransitions(transition{entity: "offer", from: string(recruitmentdomain.OfferStatusSent), to: string(recruitmentdomain.OfferStatusExpired)})
		s.metrics.RecordOfferDecision(ctx, orgID.String(), string(recruitmentdomain.OfferStatusExpired))
		sysCtx := auditcontext.WithActor(ctx, auditcontext.ActorTypeSystem, "")
		s.emitAudit(sysCtx, orgID, "offer.expired", "offer", offerID, map[string]any{
			"application_id": peek.ApplicationID.String(),
		})
		s.log.Info("offer expired", zap.String("org_id", orgID.String()), zap.String("offer_id", offerID.String()))
	}
	return expired, nil
}

func (s *Service) ExpireDueOffers(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.cfg.ExpirySweepBatch
	}
	due, err := s.repo.ListDueOffers(ctx, s.db, s.now(), limit)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, offer := range due {
		orgCtx := orgcontext.WithOrgID(ctx, offer.OrgID)
		expired, err := s.expireIfDue(orgCtx, offer.OrgID, offer.ID)
		if err != nil {
			s.log.Warn("offer expiry failed",
				zap.String("org_id", offer.OrgID.String()),
				zap.String("offer_id", offer.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if expired {
			count++
		}
	}
	s.workflow.IncExpirySweep(count)
	return count, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
