// Package domain holds the recruitment pipeline models and its state machines.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Job struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	OrgID          snowflake.ID `gorm:"not null;index"`
	Title          string       `gorm:"type:text;not null"`
	Department     string       `gorm:"type:text"`
	Location       string       `gorm:"type:text"`
	EmploymentType string       `gorm:"type:text"`
	Status         JobStatus    `gorm:"type:text;not null"`
	CreatedAt      time.Time    `gorm:"not null"`
	UpdatedAt      time.Time    `gorm:"not null"`
}

func (Job) TableName() string { return "jobs" }

type Candidate struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;uniqueIndex:ux_candidates_org_email"`
	FullName  string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null;uniqueIndex:ux_candidates_org_email"`
	Phone     string       `gorm:"type:text"`
	Address   string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (Candidate) TableName() string { return "candidates" }

// Application is one candidate's pursuit of one job.
type Application struct {
	ID          snowflake.ID            `gorm:"primaryKey"`
	OrgID       snowflake.ID            `gorm:"not null;uniqueIndex:ux_applications_org_job_candidate"`
	JobID       snowflake.ID            `gorm:"not null;uniqueIndex:ux_applications_org_job_candidate"`
	CandidateID snowflake.ID            `gorm:"not null;uniqueIndex:ux_applications_org_job_candidate"`
	Status      ApplicationStatus       `gorm:"type:text;not null"`
	OfferStatus *ApplicationOfferStatus `gorm:"type:text"`
	OfferID     *snowflake.ID           `gorm:""`
	EmployeeID  *snowflake.ID           `gorm:""`
	Designation string                  `gorm:"type:text"`

	RejectedBy      string     `gorm:"type:text"`
	RejectedAt      *time.Time `gorm:""`
	RejectedStage   string     `gorm:"type:text"`
	RejectionReason string     `gorm:"type:text"`

	WithdrawnBy      string     `gorm:"type:text"`
	WithdrawnAt      *time.Time `gorm:""`
	WithdrawalReason string     `gorm:"type:text"`

	OfferLetterPath   string `gorm:"type:text"`
	JoiningLetterPath string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Application) TableName() string { return "applications" }

// StatusHistory is append-only; one row per transition including creation.
type StatusHistory struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OrgID         snowflake.ID `gorm:"not null;index"`
	ApplicationID snowflake.ID `gorm:"not null;index"`
	FromStatus    string       `gorm:"type:text"`
	ToStatus      string       `gorm:"type:text;not null"`
	Actor         string       `gorm:"type:text;not null"`
	Reason        string       `gorm:"type:text"`
	CreatedAt     time.Time    `gorm:"not null"`
}

func (StatusHistory) TableName() string { return "application_status_history" }

type Interview struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	OrgID         snowflake.ID    `gorm:"not null;index"`
	ApplicationID snowflake.ID    `gorm:"not null;index"`
	ScheduledAt   time.Time       `gorm:"not null"`
	Interviewer   string          `gorm:"type:text"`
	Mode          string          `gorm:"type:text"`
	Round         int             `gorm:"not null"`
	Status        InterviewStatus `gorm:"type:text;not null"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

func (Interview) TableName() string { return "interviews" }

type Offer struct {
	ID               snowflake.ID   `gorm:"primaryKey"`
	OrgID            snowflake.ID   `gorm:"not null;index"`
	ApplicationID    snowflake.ID   `gorm:"not null;uniqueIndex"`
	Status           OfferStatus    `gorm:"type:text;not null"`
	Designation      string         `gorm:"type:text"`
	JoiningDate      *time.Time     `gorm:""`
	ValidUntil       *time.Time     `gorm:""`
	SalarySnapshot   datatypes.JSON `gorm:"type:json"`
	SentAt           *time.Time     `gorm:""`
	RespondedAt      *time.Time     `gorm:""`
	ExpiredAt        *time.Time     `gorm:""`
	WithdrawnAt      *time.Time     `gorm:""`
	WithdrawalReason string         `gorm:"type:text"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

func (Offer) TableName() string { return "offers" }

// HasSnapshot reports whether a salary snapshot is attached.
func (o *Offer) HasSnapshot() bool {
	if o == nil {
		return false
	}
	raw := string(o.SalarySnapshot)
	return raw != "" && raw != "null"
}

// Expired reports whether a sent offer has passed valid_until.
func (o *Offer) Expired(now time.Time) bool {
	if o == nil || o.Status != OfferStatusSent || o.ValidUntil == nil {
		return false
	}
	return o.ValidUntil.Before(now)
}

type Employee struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	OrgID          snowflake.ID   `gorm:"not null;uniqueIndex:ux_employees_org_code"`
	EmployeeCode   string         `gorm:"type:text;not null;uniqueIndex:ux_employees_org_code"`
	CandidateID    snowflake.ID   `gorm:"not null;index"`
	ApplicationID  snowflake.ID   `gorm:"not null;uniqueIndex"`
	OfferID        snowflake.ID   `gorm:"not null"`
	FullName       string         `gorm:"type:text;not null"`
	Email          string         `gorm:"type:text"`
	Phone          string         `gorm:"type:text"`
	Designation    string         `gorm:"type:text"`
	JoiningDate    *time.Time     `gorm:""`
	SalarySnapshot datatypes.JSON `gorm:"type:json"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

func (Employee) TableName() string { return "employees" }
