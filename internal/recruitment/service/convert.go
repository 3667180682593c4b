package service

import (
	"github.com/bwmarrin/snowflake"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
)

func toJobResponse(job *recruitmentdomain.Job) *recruitmentdomain.JobResponse {
	return &recruitmentdomain.JobResponse{
		ID:             job.ID.String(),
		Title:          job.Title,
		Department:     job.Department,
		Location:       job.Location,
		EmploymentType: job.EmploymentType,
		Status:         job.Status,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func toCandidateResponse(candidate *recruitmentdomain.Candidate) *recruitmentdomain.CandidateResponse {
	if candidate == nil {
		return nil
	}
	return &recruitmentdomain.CandidateResponse{
		ID:       candidate.ID.String(),
		FullName: candidate.FullName,
		Email:    candidate.Email,
		Phone:    candidate.Phone,
		Address:  candidate.Address,
	}
}

func toApplicationResponse(app *recruitmentdomain.Application) *recruitmentdomain.ApplicationResponse {
	return &recruitmentdomain.ApplicationResponse{
		ID:                app.ID.String(),
		JobID:             app.JobID.String(),
		CandidateID:       app.CandidateID.String(),
		Status:            app.Status,
		OfferStatus:       app.OfferStatus,
		OfferID:           idString(app.OfferID),
		EmployeeID:        idString(app.EmployeeID),
		Designation:       app.Designation,
		RejectedBy:        app.RejectedBy,
		RejectedAt:        app.RejectedAt,
		RejectedStage:     app.RejectedStage,
		RejectionReason:   app.RejectionReason,
		WithdrawnBy:       app.WithdrawnBy,
		WithdrawnAt:       app.WithdrawnAt,
		WithdrawalReason:  app.WithdrawalReason,
		OfferLetterPath:   app.OfferLetterPath,
		JoiningLetterPath: app.JoiningLetterPath,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
}

func toInterviewResponse(interview *recruitmentdomain.Interview) *recruitmentdomain.InterviewResponse {
	return &recruitmentdomain.InterviewResponse{
		ID:            interview.ID.String(),
		ApplicationID: interview.ApplicationID.String(),
		ScheduledAt:   interview.ScheduledAt,
		Interviewer:   interview.Interviewer,
		Mode:          interview.Mode,
		Round:         interview.Round,
		Status:        interview.Status,
	}
}

func toOfferResponse(offer *recruitmentdomain.Offer) (*recruitmentdomain.OfferResponse, error) {
	snapshot, err := salarydomain.DecodeSnapshot(offer.SalarySnapshot)
	if err != nil {
		return nil, err
	}
	return &recruitmentdomain.OfferResponse{
		ID:               offer.ID.String(),
		ApplicationID:    offer.ApplicationID.String(),
		Status:           offer.Status,
		Designation:      offer.Designation,
		JoiningDate:      offer.JoiningDate,
		ValidUntil:       offer.ValidUntil,
		SalarySnapshot:   snapshot,
		SentAt:           offer.SentAt,
		RespondedAt:      offer.RespondedAt,
		ExpiredAt:        offer.ExpiredAt,
		WithdrawnAt:      offer.WithdrawnAt,
		WithdrawalReason: offer.WithdrawalReason,
		CreatedAt:        offer.CreatedAt,
		UpdatedAt:        offer.UpdatedAt,
	}, nil
}

func toEmployeeResponse(employee *recruitmentdomain.Employee) (*recruitmentdomain.EmployeeResponse, error) {
	snapshot, err := salarydomain.DecodeSnapshot(employee.SalarySnapshot)
	if err != nil {
		return nil, err
	}
	return &recruitmentdomain.EmployeeResponse{
		ID:             employee.ID.String(),
		EmployeeCode:   employee.EmployeeCode,
		CandidateID:    employee.CandidateID.String(),
		ApplicationID:  employee.ApplicationID.String(),
		OfferID:        employee.OfferID.String(),
		FullName:       employee.FullName,
		Email:          employee.Email,
		Phone:          employee.Phone,
		Designation:    employee.Designation,
		JoiningDate:    employee.JoiningDate,
		SalarySnapshot: snapshot,
		CreatedAt:      employee.CreatedAt,
	}, nil
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
