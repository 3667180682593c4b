package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() recruitmentdomain.Repository {
	return &repo{}
}

func (r *repo) InsertJob(ctx context.Context, conn *gorm.DB, job *recruitmentdomain.Job) error {
	return conn.WithContext(ctx).Create(job).Error
}

func (r *repo) UpdateJob(ctx context.Context, conn *gorm.DB, job *recruitmentdomain.Job) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE jobs
		 SET title = ?, department = ?, location = ?, employment_type = ?, status = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		job.Title,
		job.Department,
		job.Location,
		job.EmploymentType,
		job.Status,
		job.UpdatedAt,
		job.OrgID,
		job.ID,
	).Error
}

func (r *repo) FindJobByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Job, error) {
	return first[recruitmentdomain.Job](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindJobByIDForUpdate(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Job, error) {
	return first[recruitmentdomain.Job](db.ForUpdate(conn.WithContext(ctx)).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) ListJobs(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, status recruitmentdomain.JobStatus) ([]recruitmentdomain.Job, error) {
	var items []recruitmentdomain.Job
	stmt := conn.WithContext(ctx).Where("org_id = ?", orgID)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertCandidate(ctx context.Context, conn *gorm.DB, candidate *recruitmentdomain.Candidate) error {
	return conn.WithContext(ctx).Create(candidate).Error
}

func (r *repo) FindCandidateByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Candidate, error) {
	return first[recruitmentdomain.Candidate](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindCandidateByEmail(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, email string) (*recruitmentdomain.Candidate, error) {
	return first[recruitmentdomain.Candidate](conn.WithContext(ctx).Where("org_id = ? AND email = ?", orgID, email))
}

func (r *repo) InsertApplication(ctx context.Context, conn *gorm.DB, app *recruitmentdomain.Application) error {
	return conn.WithContext(ctx).Create(app).Error
}

func (r *repo) UpdateApplication(ctx context.Context, conn *gorm.DB, app *recruitmentdomain.Application) error {
	return conn.WithContext(ctx).
		Model(&recruitmentdomain.Application{}).
		Where("org_id = ? AND id = ?", app.OrgID, app.ID).
		Select(
			"status", "offer_status", "offer_id", "employee_id", "designation",
			"rejected_by", "rejected_at", "rejected_stage", "rejection_reason",
			"withdrawn_by", "withdrawn_at", "withdrawal_reason",
			"offer_letter_path", "joining_letter_path", "updated_at",
		).
		Updates(app).Error
}

func (r *repo) FindApplicationByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Application, error) {
	return first[recruitmentdomain.Application](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindApplicationByIDForUpdate(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Application, error) {
	return first[recruitmentdomain.Application](db.ForUpdate(conn.WithContext(ctx)).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindApplicationByJobCandidate(ctx context.Context, conn *gorm.DB, orgID, jobID, candidateID snowflake.ID) (*recruitmentdomain.Application, error) {
	return first[recruitmentdomain.Application](conn.WithContext(ctx).
		Where("org_id = ? AND job_id = ? AND candidate_id = ?", orgID, jobID, candidateID))
}

func (r *repo) ListApplications(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, filter recruitmentdomain.ApplicationFilter) ([]*recruitmentdomain.Application, error) {
	stmt := conn.WithContext(ctx).Where("org_id = ?", orgID)
	if filter.JobID != 0 {
		stmt = stmt.Where("job_id = ?", filter.JobID)
	}
	if filter.CandidateID != 0 {
		stmt = stmt.Where("candidate_id = ?", filter.CandidateID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.BeforeCreatedAt != nil {
		stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			*filter.BeforeCreatedAt, *filter.BeforeCreatedAt, filter.BeforeID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []*recruitmentdomain.Application
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertOffer(ctx context.Context, conn *gorm.DB, offer *recruitmentdomain.Offer) error {
	return conn.WithContext(ctx).Create(offer).Error
}

// UpdateOffer never writes the salary snapshot; it is fixed at creation.
func (r *repo) UpdateOffer(ctx context.Context, conn *gorm.DB, offer *recruitmentdomain.Offer) error {
	return conn.WithContext(ctx).
		Model(&recruitmentdomain.Offer{}).
		Where("org_id = ? AND id = ?", offer.OrgID, offer.ID).
		Select(
			"status", "designation", "joining_date", "valid_until",
			"sent_at", "responded_at", "expired_at", "withdrawn_at", "withdrawal_reason", "updated_at",
		).
		Updates(offer).Error
}

func (r *repo) FindOfferByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Offer, error) {
	return first[recruitmentdomain.Offer](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindOfferByIDForUpdate(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Offer, error) {
	return first[recruitmentdomain.Offer](db.ForUpdate(conn.WithContext(ctx)).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindOfferByApplicationForUpdate(ctx context.Context, conn *gorm.DB, orgID, applicationID snowflake.ID) (*recruitmentdomain.Offer, error) {
	return first[recruitmentdomain.Offer](db.ForUpdate(conn.WithContext(ctx)).
		Where("org_id = ? AND application_id = ?", orgID, applicationID))
}

func (r *repo) ListDueOffers(ctx context.Context, conn *gorm.DB, now time.Time, limit int) ([]recruitmentdomain.Offer, error) {
	stmt := conn.WithContext(ctx).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", recruitmentdomain.OfferStatusSent, now).
		Order("valid_until ASC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var items []recruitmentdomain.Offer
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertEmployee(ctx context.Context, conn *gorm.DB, employee *recruitmentdomain.Employee) error {
	return conn.WithContext(ctx).Create(employee).Error
}

func (r *repo) FindEmployeeByID(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (*recruitmentdomain.Employee, error) {
	return first[recruitmentdomain.Employee](conn.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

func (r *repo) FindEmployeeByApplication(ctx context.Context, conn *gorm.DB, orgID, applicationID snowflake.ID) (*recruitmentdomain.Employee, error) {
	return first[recruitmentdomain.Employee](conn.WithContext(ctx).
		Where("org_id = ? AND application_id = ?", orgID, applicationID))
}

func (r *repo) ListEmployees(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, filter recruitmentdomain.EmployeeFilter) ([]*recruitmentdomain.Employee, error) {
	stmt := conn.WithContext(ctx).Where("org_id = ?", orgID)
	if filter.BeforeCreatedAt != nil {
		stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			*filter.BeforeCreatedAt, *filter.BeforeCreatedAt, filter.BeforeID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []*recruitmentdomain.Employee
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func first[T any](stmt *gorm.DB) (*T, error) {
	var items []T
	if err := stmt.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
