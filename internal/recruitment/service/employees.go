package service

import (
	"context"

	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/db"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
	"gorm.io/gorm"
)

// ConvertToEmployee creates the employee for an ACCEPTED offer and moves the
// application to JOINED. The salary snapshot is copied, never recomputed.
func (s *Service) ConvertToEmployee(ctx context.Context, req recruitmentdomain.ConvertToEmployeeRequest) (*recruitmentdomain.EmployeeResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	offerID, err := recruitmentdomain.ParseID(req.OfferID)
	if err != nil {
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
	var employee *recruitmentdomain.Employee
	err = s.withApplicationLock(ctx, orgID, current.ApplicationID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			offer, err := s.repo.FindOfferByIDForUpdate(ctx, tx, orgID, offerID)
			if err != nil {
				return err
			}
			if offer == nil {
				return apperr.NotFound("offer")
			}
			if offer.Status != recruitmentdomain.OfferStatusAccepted {
				return apperr.PreconditionWithStatus(apperr.CodeOfferNotAccepted, "offer", string(offer.Status), "only accepted offers can be converted")
			}

			app, err := s.repo.FindApplicationByIDForUpdate(ctx, tx, orgID, offer.ApplicationID)
			if err != nil {
				return err
			}
			if app == nil {
				return apperr.NotFound("application")
			}
			if app.EmployeeID != nil {
				return apperr.PreconditionWithStatus(apperr.CodeEmployeeExists, "application", string(app.Status), "application already has an employee")
			}
			existing, err := s.repo.FindEmployeeByApplication(ctx, tx, orgID, app.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperr.PreconditionWithStatus(apperr.CodeEmployeeExists, "application", string(app.Status), "application already has an employee")
			}

			candidate, err := s.repo.FindCandidateByID(ctx, tx, orgID, app.CandidateID)
			if err != nil {
				return err
			}
			if candidate == nil {
				return apperr.NotFound("candidate")
			}

			now := s.now()
			entry, err := recruitmentdomain.ChangeStatus(app, recruitmentdomain.ApplicationStatusJoined, actor, "converted to employee", now)
			if err != nil {
				return err
			}

			id := s.genID.Generate()
			joinedAt := now
			if offer.JoiningDate != nil {
				joinedAt = *offer.JoiningDate
			}
			code, err := recruitmentdomain.FormatEmployeeCode(s.cfg.EmployeeCodeTemplate, joinedAt, id)
			if err != nil {
				return err
			}

			employee = &recruitmentdomain.Employee{
				ID:             id,
				OrgID:          orgID,
				EmployeeCode:   code,
				CandidateID:    candidate.ID,
				ApplicationID:  app.ID,
				OfferID:        offer.ID,
				FullName:       candidate.FullName,
				Email:          candidate.Email,
				Phone:          candidate.Phone,
				Designation:    offer.Designation,
				JoiningDate:    offer.JoiningDate,
				SalarySnapshot: offer.SalarySnapshot,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.repo.InsertEmployee(ctx, tx, employee); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return apperr.PreconditionNotMet(apperr.CodeEmployeeExists, "application already has an employee")
				}
				return err
			}

			app.EmployeeID = &employee.ID
			if err := s.repo.UpdateApplication(ctx, tx, app); err != nil {
				return err
			}
			return s.appendHistory(ctx, tx, entry)
		})
	})
	if err != nil {
		return nil, s.guardFailed(ctx, "employee", err)
	}

	s.metrics.RecordEmployeeConverted(ctx, orgID.String())
	s.recordTransitions(transition{
		entity: "application",
		from:   string(recruitmentdomain.ApplicationStatusOffered),
		to:     string(recruitmentdomain.ApplicationStatusJoined),
	})
	s.emitAudit(ctx, orgID, "employee.converted", "employee", employee.ID, map[string]any{
		"application_id": employee.ApplicationID.String(),
		"offer_id":       employee.OfferID.String(),
		"employee_code":  employee.EmployeeCode,
	})
	return toEmployeeResponse(employee)
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*recruitmentdomain.EmployeeResponse, error) {
	employee, _, err := s.LoadEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee)
}

func (s *Service) LoadEmployee(ctx context.Context, id string) (*recruitmentdomain.Employee, *salarydomain.Snapshot, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, nil, err
	}
	employeeID, err := recruitmentdomain.ParseID(id)
	if err != nil {
		return nil, nil, err
	}

	employee, err := s.repo.FindEmployeeByID(ctx, s.db, orgID, employeeID)
	if err != nil {
		return nil, nil, err
	}
	if employee == nil {
		return nil, nil, apperr.NotFound("employee")
	}
	snapshot, err := salarydomain.DecodeSnapshot(employee.SalarySnapshot)
	if err != nil {
		return nil, nil, err
	}
	return employee, snapshot, nil
}

func (s *Service) ListEmployees(ctx context.Context, req recruitmentdomain.ListEmployeesRequest) (recruitmentdomain.ListEmployeesResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return recruitmentdomain.ListEmployeesResponse{}, err
	}

	limit := req.Limit(20, 100)
	filter := recruitmentdomain.EmployeeFilter{Limit: limit + 1}
	if req.PageToken != "" {
		createdAt, id, err := decodePageToken(req.PageToken)
		if err != nil {
			return recruitmentdomain.ListEmployeesResponse{}, err
		}
		filter.BeforeCreatedAt = &createdAt
		filter.BeforeID = id
	}

	items, err := s.repo.ListEmployees(ctx, s.db, orgID, filter)
	if err != nil {
		return recruitmentdomain.ListEmployeesResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, limit, func(e *recruitmentdomain.Employee) string {
		return encodePageToken(e.CreatedAt, e.ID)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	resp := recruitmentdomain.ListEmployeesResponse{
		PageInfo:  *pageInfo,
		Employees: make([]recruitmentdomain.EmployeeResponse, 0, len(items)),
	}
	for _, item := range items {
		converted, err := toEmployeeResponse(item)
		if err != nil {
			return recruitmentdomain.ListEmployeesResponse{}, err
		}
		resp.Employees = append(resp.Employees, *converted)
	}
	return resp, nil
}
