package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
)

type CreateJobRequest struct {
	Title          string `json:"title"`
	Department     string `json:"department"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type"`
}

type ListJobsRequest struct {
	Status string
}

type CandidateInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	// Region is the ISO country used to parse a phone without a + prefix.
	Region  string `json:"region"`
	Address string `json:"address"`
}

type SubmitApplicationRequest struct {
	JobID       string         `json:"job_id"`
	CandidateID string         `json:"candidate_id"`
	Candidate   CandidateInput `json:"candidate"`
	Designation string         `json:"designation"`
}

type ListApplicationsRequest struct {
	pagination.Pagination
	JobID       string
	CandidateID string
	Status      string
}

type ListApplicationsResponse struct {
	pagination.PageInfo
	Applications []ApplicationResponse `json:"applications"`
}

type ChangeStatusRequest struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
}

type ScheduleInterviewRequest struct {
	ApplicationID string    `json:"application_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Interviewer   string    `json:"interviewer"`
	Mode          string    `json:"mode"`
}

// CreateOfferRequest takes its snapshot from a structure or inline
// components; the structure wins when both are given.
type CreateOfferRequest struct {
	ApplicationID     string                        `json:"application_id"`
	Designation       string                        `json:"designation"`
	JoiningDate       *time.Time                    `json:"joining_date"`
	ValidUntil        *time.Time                    `json:"valid_until"`
	SalaryStructureID string                        `json:"salary_structure_id"`
	Components        []salarydomain.ComponentInput `json:"components"`
}

type WithdrawOfferRequest struct {
	OfferID string `json:"offer_id"`
	Reason  string `json:"reason"`
}

type ConvertToEmployeeRequest struct {
	OfferID string `json:"offer_id"`
}

type ListEmployeesRequest struct {
	pagination.Pagination
}

type ListEmployeesResponse struct {
	pagination.PageInfo
	Employees []EmployeeResponse `json:"employees"`
}

type JobResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Department     string    `json:"department,omitempty"`
	Location       string    `json:"location,omitempty"`
	EmploymentType string    `json:"employment_type,omitempty"`
	Status         JobStatus `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CandidateResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

type ApplicationResponse struct {
	ID                string                  `json:"id"`
	JobID             string                  `json:"job_id"`
	CandidateID       string                  `json:"candidate_id"`
	Status            ApplicationStatus       `json:"status"`
	OfferStatus       *ApplicationOfferStatus `json:"offer_status"`
	OfferID           *string                 `json:"offer_id,omitempty"`
	EmployeeID        *string                 `json:"employee_id,omitempty"`
	Designation       string                  `json:"designation,omitempty"`
	RejectedBy        string                  `json:"rejected_by,omitempty"`
	RejectedAt        *time.Time              `json:"rejected_at,omitempty"`
	RejectedStage     string                  `json:"rejected_stage,omitempty"`
	RejectionReason   string                  `json:"rejection_reason,omitempty"`
	WithdrawnBy       string                  `json:"withdrawn_by,omitempty"`
	WithdrawnAt       *time.Time              `json:"withdrawn_at,omitempty"`
	WithdrawalReason  string                  `json:"withdrawal_reason,omitempty"`
	OfferLetterPath   string                  `json:"offer_letter_path,omitempty"`
	JoiningLetterPath string                  `json:"joining_letter_path,omitempty"`
	Candidate         *CandidateResponse      `json:"candidate,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

type StatusHistoryResponse struct {
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type InterviewResponse struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	ScheduledAt   time.Time       `json:"scheduled_at"`
	Interviewer   string          `json:"interviewer,omitempty"`
	Mode          string          `json:"mode,omitempty"`
	Round         int             `json:"round"`
	Status        InterviewStatus `json:"status"`
}

type OfferResponse struct {
	ID               string                 `json:"id"`
	ApplicationID    string                 `json:"application_id"`
	Status           OfferStatus            `json:"status"`
	Designation      string                 `json:"designation,omitempty"`
	JoiningDate      *time.Time             `json:"joining_date,omitempty"`
	ValidUntil       *time.Time             `json:"valid_until,omitempty"`
	SalarySnapshot   *salarydomain.Snapshot `json:"salary_snapshot,omitempty"`
	SentAt           *time.Time             `json:"sent_at,omitempty"`
	RespondedAt      *time.Time             `json:"responded_at,omitempty"`
	ExpiredAt        *time.Time             `json:"expired_at,omitempty"`
	WithdrawnAt      *time.Time             `json:"withdrawn_at,omitempty"`
	WithdrawalReason string                 `json:"withdrawal_reason,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type EmployeeResponse struct {
	ID             string                 `json:"id"`
	EmployeeCode   string                 `json:"employee_code"`
	CandidateID    string                 `json:"candidate_id"`
	ApplicationID  string                 `json:"application_id"`
	OfferID        string                 `json:"offer_id"`
	FullName       string                 `json:"full_name"`
	Email          string                 `json:"email,omitempty"`
	Phone          string                 `json:"phone,omitempty"`
	Designation    string                 `json:"designation,omitempty"`
	JoiningDate    *time.Time             `json:"joining_date,omitempty"`
	SalarySnapshot *salarydomain.Snapshot `json:"salary_snapshot,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// LetterSubject is everything letter generation reads about one application.
type LetterSubject struct {
	Application Application
	Candidate   Candidate
	Job         Job
	Offer       *Offer
	Employee    *Employee
	Snapshot    *salarydomain.Snapshot
}

type LetterKind string

const (
	LetterKindOffer   LetterKind = "offer"
	LetterKindJoining LetterKind = "joining"
)

type Service interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*JobResponse, error)
	ListJobs(ctx context.Context, req ListJobsRequest) ([]JobResponse, error)
	CloseJob(ctx context.Context, id string) (*JobResponse, error)

	SubmitApplication(ctx context.Context, req SubmitApplicationRequest) (*ApplicationResponse, error)
	GetApplication(ctx context.Context, id string) (*ApplicationResponse, error)
	ListApplications(ctx context.Context, req ListApplicationsRequest) (ListApplicationsResponse, error)
	ChangeApplicationStatus(ctx context.Context, req ChangeStatusRequest) (*ApplicationResponse, error)
	ListStatusHistory(ctx context.Context, applicationID string) ([]StatusHistoryResponse, error)

	ScheduleInterview(ctx context.Context, req ScheduleInterviewRequest) (*InterviewResponse, error)
	ListInterviews(ctx context.Context, applicationID string) ([]InterviewResponse, error)

	CreateOffer(ctx context.Context, req CreateOfferRequest) (*OfferResponse, error)
	GetOffer(ctx context.Context, id string) (*OfferResponse, error)
	SendOffer(ctx context.Context, id string) (*OfferResponse, error)
	AcceptOffer(ctx context.Context, id string) (*OfferResponse, error)
	RejectOffer(ctx context.Context, id string) (*OfferResponse, error)
	WithdrawOffer(ctx context.Context, req WithdrawOfferRequest) (*OfferResponse, error)
	// ExpireDueOffers moves every sent offer past valid_until to EXPIRED
	// across all orgs and returns how many were expired.
	ExpireDueOffers(ctx context.Context, limit int) (int, error)

	ConvertToEmployee(ctx context.Context, req ConvertToEmployeeRequest) (*EmployeeResponse, error)
	GetEmployee(ctx context.Context, id string) (*EmployeeResponse, error)
	ListEmployees(ctx context.Context, req ListEmployeesRequest) (ListEmployeesResponse, error)
	// LoadEmployee returns the stored employee with its decoded snapshot.
	LoadEmployee(ctx context.Context, id string) (*Employee, *salarydomain.Snapshot, error)

	LoadLetterSubject(ctx context.Context, applicationID string) (*LetterSubject, error)
	// AttachLetter records a confirmed artifact path on the application.
	AttachLetter(ctx context.Context, applicationID snowflake.ID, kind LetterKind, path string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidCandidate    = errors.New("invalid_candidate")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidPhone        = errors.New("invalid_phone")
	ErrInvalidSchedule     = errors.New("invalid_schedule")
	ErrInvalidOfferDates   = errors.New("invalid_offer_dates")
	ErrInvalidLetterKind   = errors.New("invalid_letter_kind")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
