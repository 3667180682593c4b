package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ApplicationFilter struct {
	JobID       snowflake.ID
	CandidateID snowflake.ID
	Status      ApplicationStatus
	// Cursor pages newest first.
	BeforeCreatedAt *time.Time
	BeforeID        snowflake.ID
	Limit           int
}

type EmployeeFilter struct {
	BeforeCreatedAt *time.Time
	BeforeID        snowflake.ID
	Limit           int
}

// Repository methods return nil, nil when a row does not exist.
type Repository interface {
	InsertJob(ctx context.Context, db *gorm.DB, job *Job) error
	UpdateJob(ctx context.Context, db *gorm.DB, job *Job) error
	FindJobByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Job, error)
	FindJobByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Job, error)
	ListJobs(ctx context.Context, db *gorm.DB, orgID snowflake.ID, status JobStatus) ([]Job, error)

	InsertCandidate(ctx context.Context, db *gorm.DB, candidate *Candidate) error
	FindCandidateByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Candidate, error)
	FindCandidateByEmail(ctx context.Context, db *gorm.DB, orgID snowflake.ID, email string) (*Candidate, error)

	InsertApplication(ctx context.Context, db *gorm.DB, app *Application) error
	UpdateApplication(ctx context.Context, db *gorm.DB, app *Application) error
	FindApplicationByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Application, error)
	FindApplicationByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Application, error)
	FindApplicationByJobCandidate(ctx context.Context, db *gorm.DB, orgID, jobID, candidateID snowflake.ID) (*Application, error)
	ListApplications(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ApplicationFilter) ([]*Application, error)

	InsertOffer(ctx context.Context, db *gorm.DB, offer *Offer) error
	UpdateOffer(ctx context.Context, db *gorm.DB, offer *Offer) error
	FindOfferByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Offer, error)
	FindOfferByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Offer, error)
	FindOfferByApplicationForUpdate(ctx context.Context, db *gorm.DB, orgID, applicationID snowflake.ID) (*Offer, error)
	// ListDueOffers spans all orgs; it is only used by the expiry sweep.
	ListDueOffers(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]Offer, error)

	InsertEmployee(ctx context.Context, db *gorm.DB, employee *Employee) error
	FindEmployeeByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Employee, error)
	FindEmployeeByApplication(ctx context.Context, db *gorm.DB, orgID, applicationID snowflake.ID) (*Employee, error)
	ListEmployees(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter EmployeeFilter) ([]*Employee, error)
}
