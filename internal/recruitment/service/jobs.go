package service

import (
	"context"
	"strings"

	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"gorm.io/gorm"
)

func (s *Service) CreateJob(ctx context.Context, req recruitmentdomain.CreateJobRequest) (*recruitmentdomain.JobResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, recruitmentdomain.ErrInvalidTitle
	}

	now := s.now()
	job := &recruitmentdomain.Job{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		Title:          title,
		Department:     strings.TrimSpace(req.Department),
		Location:       strings.TrimSpace(req.Location),
		EmploymentType: strings.ToUpper(strings.TrimSpace(req.EmploymentType)),
		Status:         recruitmentdomain.JobStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.InsertJob(ctx, s.db, job); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, orgID, "job.created", "job", job.ID, map[string]any{"title": job.Title})
	return toJobResponse(job), nil
}

func (s *Service) ListJobs(ctx context.Context, req recruitmentdomain.ListJobsRequest) ([]recruitmentdomain.JobResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	var status recruitmentdomain.JobStatus
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status = recruitmentdomain.JobStatus(raw)
		if status != recruitmentdomain.JobStatusOpen && status != recruitmentdomain.JobStatusClosed {
			return nil, recruitmentdomain.ErrInvalidStatus
		}
	}

	items, err := s.repo.ListJobs(ctx, s.db, orgID, status)
	if err != nil {
		return nil, err
	}

	resp := make([]recruitmentdomain.JobResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *toJobResponse(&items[i]))
	}
	return resp, nil
}

// CloseJob stops new applications; existing ones continue through the pipeline.
func (s *Service) CloseJob(ctx context.Context, id string) (*recruitmentdomain.JobResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	jobID, err := recruitmentdomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	var (
		job     *recruitmentdomain.Job
		changed bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err = s.repo.FindJobByIDForUpdate(ctx, tx, orgID, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return apperr.NotFound("job")
		}
		if job.Status == recruitmentdomain.JobStatusClosed {
			return nil
		}
		job.Status = recruitmentdomain.JobStatusClosed
		job.UpdatedAt = s.now()
		changed = true
		return s.repo.UpdateJob(ctx, tx, job)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.recordTransitions(transition{entity: "job", from: string(recruitmentdomain.JobStatusOpen), to: string(recruitmentdomain.JobStatusClosed)})
		s.emitAudit(ctx, orgID, "job.closed", "job", job.ID, nil)
	}
	return toJobResponse(job), nil
}
