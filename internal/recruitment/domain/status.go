package domain

import (
	"fmt"
	"strings"
)

type ApplicationStatus string

const (
	ApplicationStatusApplied     ApplicationStatus = "APPLIED"
	ApplicationStatusShortlisted ApplicationStatus = "SHORTLISTED"
	ApplicationStatusInterview   ApplicationStatus = "INTERVIEW"
	ApplicationStatusSelected    ApplicationStatus = "SELECTED"
	ApplicationStatusOffered     ApplicationStatus = "OFFERED"
	ApplicationStatusJoined      ApplicationStatus = "JOINED"
	ApplicationStatusRejected    ApplicationStatus = "REJECTED"
	ApplicationStatusWithdrawn   ApplicationStatus = "WITHDRAWN"
	ApplicationStatusOnHold      ApplicationStatus = "ON_HOLD"
)

// AllApplicationStatuses lists every status in pipeline order.
var AllApplicationStatuses = []ApplicationStatus{
	ApplicationStatusApplied,
	ApplicationStatusShortlisted,
	ApplicationStatusInterview,
	ApplicationStatusSelected,
	ApplicationStatusOffered,
	ApplicationStatusJoined,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
	ApplicationStatusOnHold,
}

// ApplicationTransitions is the allowed edge set. Statuses missing from the
// map, or mapped to nothing, are terminal.
var ApplicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusApplied:     {ApplicationStatusShortlisted, ApplicationStatusRejected, ApplicationStatusWithdrawn, ApplicationStatusOnHold},
	ApplicationStatusShortlisted: {ApplicationStatusInterview, ApplicationStatusRejected, ApplicationStatusWithdrawn, ApplicationStatusOnHold},
	ApplicationStatusInterview:   {ApplicationStatusSelected, ApplicationStatusRejected, ApplicationStatusWithdrawn, ApplicationStatusOnHold},
	ApplicationStatusSelected:    {ApplicationStatusOffered, ApplicationStatusRejected, ApplicationStatusWithdrawn},
	ApplicationStatusOffered:     {ApplicationStatusJoined, ApplicationStatusRejected, ApplicationStatusWithdrawn},
	ApplicationStatusOnHold:      {ApplicationStatusApplied, ApplicationStatusShortlisted, ApplicationStatusInterview, ApplicationStatusSelected, ApplicationStatusRejected},
	ApplicationStatusRejected:    {},
	ApplicationStatusJoined:      {},
	ApplicationStatusWithdrawn:   {},
}

func (s ApplicationStatus) Valid() bool {
	_, ok := ApplicationTransitions[s]
	return ok
}

func (s ApplicationStatus) Terminal() bool {
	return s.Valid() && len(ApplicationTransitions[s]) == 0
}

// CanTransition reports whether from -> to is a declared edge.
func CanTransition(from, to ApplicationStatus) bool {
	for _, next := range ApplicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown application status %q", value)
	}
	return status, nil
}

// ApplicationOfferStatus mirrors the linked offer on the application. It has
// no withdrawn value; a withdrawn offer clears it.
type ApplicationOfferStatus string

const (
	ApplicationOfferPending  ApplicationOfferStatus = "PENDING"
	ApplicationOfferSent     ApplicationOfferStatus = "SENT"
	ApplicationOfferAccepted ApplicationOfferStatus = "ACCEPTED"
	ApplicationOfferRejected ApplicationOfferStatus = "REJECTED"
	ApplicationOfferExpired  ApplicationOfferStatus = "EXPIRED"
)

type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "DRAFT"
	OfferStatusSent      OfferStatus = "SENT"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusExpired   OfferStatus = "EXPIRED"
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
)

var OfferTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusDraft:     {OfferStatusSent, OfferStatusWithdrawn},
	OfferStatusSent:      {OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired, OfferStatusWithdrawn},
	OfferStatusAccepted:  {},
	OfferStatusRejected:  {},
	OfferStatusExpired:   {},
	OfferStatusWithdrawn: {},
}

func (s OfferStatus) Valid() bool {
	_, ok := OfferTransitions[s]
	return ok
}

func (s OfferStatus) Terminal() bool {
	return s.Valid() && len(OfferTransitions[s]) == 0
}

func CanTransitionOffer(from, to OfferStatus) bool {
	for _, next := range OfferTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MirrorOfferStatus maps an offer status onto the application's sub-state.
// WITHDRAWN has no counterpart and returns nil.
func MirrorOfferStatus(status OfferStatus) *ApplicationOfferStatus {
	var mirrored ApplicationOfferStatus
	switch status {
	case OfferStatusDraft:
		mirrored = ApplicationOfferPending
	case OfferStatusSent:
		mirrored = ApplicationOfferSent
	case OfferStatusAccepted:
		mirrored = ApplicationOfferAccepted
	case OfferStatusRejected:
		mirrored = ApplicationOfferRejected
	case OfferStatusExpired:
		mirrored = ApplicationOfferExpired
	default:
		return nil
	}
	return &mirrored
}

type JobStatus string

const (
	JobStatusOpen   JobStatus = "OPEN"
	JobStatusClosed JobStatus = "CLOSED"
)

type InterviewStatus string

const (
	InterviewStatusScheduled InterviewStatus = "SCHEDULED"
	InterviewStatusCompleted InterviewStatus = "COMPLETED"
	InterviewStatusCancelled InterviewStatus = "CANCELLED"
)
