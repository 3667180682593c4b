package domain

import (
	"strings"
	"time"

	"github.com/smallbiznis/peoplehub/pkg/apperr"
)

const (
	entityApplication = "application"
	entityOffer       = "offer"
)

// ChangeStatus applies a guarded application transition. On failure app is
// left untouched. On success the returned entry is ready to append once the
// caller assigns its ID.
func ChangeStatus(app *Application, requested ApplicationStatus, actor, reason string, now time.Time) (StatusHistory, error) {
	if app == nil {
		return StatusHistory{}, apperr.NotFound(entityApplication)
	}
	current := app.Status
	if !CanTransition(current, requested) {
		return StatusHistory{}, apperr.InvalidTransition(entityApplication, string(current), string(requested))
	}

	actor = strings.TrimSpace(actor)
	reason = strings.TrimSpace(reason)
	now = now.UTC()

	switch requested {
	case ApplicationStatusRejected:
		app.RejectedBy = actor
		app.RejectedAt = &now
		app.RejectedStage = string(current)
		app.RejectionReason = reason
	case ApplicationStatusWithdrawn:
		app.WithdrawnBy = actor
		app.WithdrawnAt = &now
		app.WithdrawalReason = reason
	}
	app.Status = requested
	app.UpdatedAt = now

	return StatusHistory{
		OrgID:         app.OrgID,
		ApplicationID: app.ID,
		FromStatus:    string(current),
		ToStatus:      string(requested),
		Actor:         actor,
		Reason:        reason,
		CreatedAt:     now,
	}, nil
}

// InitialHistory is the creation entry; it has no from status.
func InitialHistory(app *Application, actor string, now time.Time) StatusHistory {
	return StatusHistory{
		OrgID:         app.OrgID,
		ApplicationID: app.ID,
		ToStatus:      string(app.Status),
		Actor:         strings.TrimSpace(actor),
		CreatedAt:     now.UTC(),
	}
}

// ChangeOfferStatus applies a guarded offer transition. On failure offer is
// left untouched.
func ChangeOfferStatus(offer *Offer, requested OfferStatus, now time.Time) error {
	if offer == nil {
		return apperr.NotFound(entityOffer)
	}
	current := offer.Status
	if !CanTransitionOffer(current, requested) {
		return apperr.InvalidTransition(entityOffer, string(current), string(requested))
	}

	now = now.UTC()
	switch requested {
	case OfferStatusSent:
		if !offer.HasSnapshot() {
			return apperr.DataIncomplete("salary_snapshot", "offer has no salary snapshot")
		}
		if offer.JoiningDate == nil {
			return apperr.PreconditionWithStatus(apperr.CodeOfferTermsIncomplete, entityOffer, string(current), "offer has no joining date")
		}
		if offer.ValidUntil != nil && !offer.ValidUntil.After(now) {
			return apperr.PreconditionWithStatus(apperr.CodeOfferExpired, entityOffer, string(current), "offer validity has already passed")
		}
		offer.SentAt = &now
	case OfferStatusAccepted, OfferStatusRejected:
		if offer.Expired(now) {
			return apperr.PreconditionWithStatus(apperr.CodeOfferExpired, entityOffer, string(current), "offer has expired")
		}
		offer.RespondedAt = &now
	case OfferStatusExpired:
		if !offer.Expired(now) {
			return apperr.PreconditionWithStatus(apperr.CodeOfferExpired, entityOffer, string(current), "offer is still within its validity")
		}
		offer.ExpiredAt = &now
	case OfferStatusWithdrawn:
		offer.WithdrawnAt = &now
	}

	offer.Status = requested
	offer.UpdatedAt = now
	return nil
}

// ApplyOfferMirror copies the offer status onto the application sub-state.
func ApplyOfferMirror(app *Application, offer *Offer) {
	if app == nil || offer == nil {
		return
	}
	app.OfferStatus = MirrorOfferStatus(offer.Status)
}
