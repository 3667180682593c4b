package service

import (
	"context"
	"path"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/config"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/letter/mapping"
	"github.com/smallbiznis/peoplehub/internal/letter/render"
	"github.com/smallbiznis/peoplehub/internal/ratelimit"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/internal/storage/object"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

func (s *Service) GenerateOfferLetter(ctx context.Context, req letterdomain.GenerateLetterRequest) (*letterdomain.LetterResponse, error) {
	return s.generate(ctx, letterdomain.LetterTypeOffer, req)
}

// GenerateJoiningLetter requires an offer letter already on the application.
func (s *Service) GenerateJoiningLetter(ctx context.Context, req letterdomain.GenerateLetterRequest) (*letterdomain.LetterResponse, error) {
	return s.generate(ctx, letterdomain.LetterTypeJoining, req)
}

func (s *Service) PreviewLetter(ctx context.Context, req letterdomain.PreviewLetterRequest) (*letterdomain.LetterFile, error) {
	letterType := letterdomain.LetterType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !letterType.Valid() {
		return nil, letterdomain.ErrInvalidLetterType
	}
	ctx, correlationID := correlation.EnsureCorrelationID(ctx)

	job, err := s.prepare(ctx, letterType, req.GenerateLetterRequest, true)
	if err != nil {
		return nil, err
	}
	result, err := s.renderer.Render(ctx, job.request(true))
	s.workflow.IncRender(string(letterType), err)
	if err != nil {
		return nil, s.renderFailed(ctx, job, correlationID, err)
	}

	data, modTime, err := s.renderer.Load(ctx, result.PDFKey)
	if err != nil {
		return nil, err
	}
	return &letterdomain.LetterFile{
		FileName:    path.Base(result.PDFKey),
		ContentType: object.ContentType(result.PDFKey),
		Content:     data,
		ModTime:     modTime,
	}, nil
}

func (s *Service) ListGeneratedLetters(ctx context.Context, req letterdomain.ListGeneratedLettersRequest) ([]letterdomain.LetterResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	var applicationID snowflake.ID
	if strings.TrimSpace(req.ApplicationID) != "" {
		if applicationID, err = letterdomain.ParseID(req.ApplicationID); err != nil {
			return nil, err
		}
	}

	items, err := s.repo.ListGenerated(ctx, s.db, orgID, applicationID)
	if err != nil {
		return nil, err
	}
	resp := make([]letterdomain.LetterResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toLetterResponse(&items[i]))
	}
	return resp, nil
}

// OpenLetter returns the stored PDF of a generated letter.
func (s *Service) OpenLetter(ctx context.Context, id string) (*letterdomain.LetterFile, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	letterID, err := letterdomain.ParseID(id)
	if err != nil {
		return nil, err
	}
	letter, err := s.repo.FindGeneratedByID(ctx, s.db, orgID, letterID)
	if err != nil {
		return nil, err
	}
	if letter == nil || letter.Status != letterdomain.GeneratedStatusGenerated || letter.PDFPath == "" {
		return nil, apperr.NotFound("letter")
	}

	data, modTime, err := s.renderer.Load(ctx, letter.PDFPath)
	if err != nil {
		return nil, err
	}
	return &letterdomain.LetterFile{
		FileName:    path.Base(letter.PDFPath),
		ContentType: object.ContentType(letter.PDFPath),
		Content:     data,
		ModTime:     modTime,
	}, nil
}

type renderJob struct {
	orgID      snowflake.ID
	letterType letterdomain.LetterType
	subject    *recruitmentdomain.LetterSubject
	template   *letterdomain.LetterTemplate
	values     mapping.Placeholders
}

func (j *renderJob) request(preview bool) render.Request {
	return render.Request{
		Template:      j.template,
		LetterType:    j.letterType,
		ApplicationID: j.subject.Application.ID.String(),
		Values:        j.values.Map(),
		Preview:       preview,
	}
}

func (s *Service) generate(ctx context.Context, letterType letterdomain.LetterType, req letterdomain.GenerateLetterRequest) (*letterdomain.LetterResponse, error) {
	ctx, correlationID := correlation.EnsureCorrelationID(ctx)

	job, err := s.prepare(ctx, letterType, req, false)
	if err != nil {
		return nil, err
	}

	result, err := s.renderer.Render(ctx, job.request(false))
	s.workflow.IncRender(string(letterType), err)
	if err != nil {
		return nil, s.renderFailed(ctx, job, correlationID, err)
	}

	letter := &letterdomain.GeneratedLetter{
		ID:            s.genID.Generate(),
		OrgID:         job.orgID,
		TemplateID:    job.template.ID,
		ApplicationID: job.subject.Application.ID,
		Type:          letterType,
		DocxPath:      result.DocumentKey,
		PDFPath:       result.PDFKey,
		Status:        letterdomain.GeneratedStatusGenerated,
		CorrelationID: correlationID,
		CreatedAt:     s.now(),
	}
	if err := s.repo.InsertGenerated(ctx, s.db, letter); err != nil {
		return nil, err
	}

	// The artifact is verified by now, so the application may point at it.
	if err := s.recruitment.AttachLetter(ctx, job.subject.Application.ID, recruitmentdomain.LetterKind(letterType), result.PDFKey); err != nil {
		return nil, err
	}

	s.metrics.RecordLetterGenerated(ctx, job.orgID.String(), string(letterType))
	s.log.Info("letter generated",
		zap.String("letter_id", letter.ID.String()),
		zap.String("application_id", letter.ApplicationID.String()),
		zap.String("type", string(letterType)),
		zap.Int64("pdf_bytes", result.PDFSize),
		zap.String("correlation_id", correlationID),
	)
	s.emitAudit(ctx, job.orgID, "letter."+string(letterType)+".generated", "application", letter.ApplicationID, map[string]any{
		"letter_id":   letter.ID.String(),
		"template_id": letter.TemplateID.String(),
		"pdf_path":    letter.PDFPath,
	})
	return s.toLetterResponse(letter), nil
}

// prepare runs every check that does not need the converter and resolves
// the placeholder values.
func (s *Service) prepare(ctx context.Context, letterType letterdomain.LetterType, req letterdomain.GenerateLetterRequest, preview bool) (*renderJob, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if s.limiter != nil {
		cost := ratelimit.CostGenerate
		if preview {
			cost = ratelimit.CostPreview
		}
		res, err := s.limiter.AllowOrg(ctx, orgID.String(), cost)
		if err != nil {
			s.log.Warn("render rate limit check failed", zap.Error(err))
		} else if !res.Allowed {
			return nil, letterdomain.ErrRateLimited
		}
	}

	subject, err := s.recruitment.LoadLetterSubject(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if letterType == letterdomain.LetterTypeJoining && !preview && strings.TrimSpace(subject.Application.OfferLetterPath) == "" {
		return nil, s.refused(ctx, apperr.PreconditionNotMet(apperr.CodeOfferLetterRequired,
			"an offer letter must be generated before the joining letter"))
	}
	if subject.Snapshot == nil {
		return nil, s.refused(ctx, apperr.PreconditionNotMet(apperr.CodeSalarySnapshotRequired,
			"the application has no salary snapshot"))
	}

	tmpl, err := s.pickTemplate(ctx, orgID, letterType, req.TemplateID)
	if err != nil {
		return nil, err
	}

	cfg := s.letterCfg.Get()
	mapper := mapping.New(mapping.Options{
		Formatter:  salarydomain.Formatter{Locale: cfg.Locale, ZeroLabel: cfg.ZeroAmountLabel},
		DateLayout: cfg.DateLayout,
		Defaults:   cfg.Defaults,
		Now:        s.now,

		KeepBlankOverrides: cfg.BlankOverrides == config.BlankOverridesKeep,
	})
	values, err := mapper.MapToPlaceholders(applicantView(letterType, subject), req.Overrides, subject.Snapshot)
	if err != nil {
		return nil, s.refused(ctx, err)
	}

	return &renderJob{
		orgID:      orgID,
		letterType: letterType,
		subject:    subject,
		template:   tmpl,
		values:     values,
	}, nil
}

func (s *Service) pickTemplate(ctx context.Context, orgID snowflake.ID, letterType letterdomain.LetterType, rawID string) (*letterdomain.LetterTemplate, error) {
	if strings.TrimSpace(rawID) == "" {
		tmpl, err := s.repo.FindDefaultTemplate(ctx, s.db, orgID, letterType)
		if err != nil {
			return nil, err
		}
		if tmpl == nil {
			return nil, apperr.NotFound("letter_template")
		}
		return tmpl, nil
	}

	tmpl, err := s.loadTemplate(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if tmpl.Type != letterType {
		return nil, s.refused(ctx, apperr.PreconditionNotMet(apperr.CodeTemplateTypeMismatch,
			"template "+tmpl.ID.String()+" is a "+string(tmpl.Type)+" template"))
	}
	return tmpl, nil
}

// renderFailed records the attempt and tags converter errors with the
// correlation id returned to the caller.
func (s *Service) renderFailed(ctx context.Context, job *renderJob, correlationID string, err error) error {
	fields := []zap.Field{
		zap.String("application_id", job.subject.Application.ID.String()),
		zap.String("template_id", job.template.ID.String()),
		zap.String("type", string(job.letterType)),
		zap.String("correlation_id", correlationID),
		zap.String("actor", auditcontext.ActorLabel(ctx)),
		zap.Error(err),
	}
	if !apperr.IsInfrastructure(err) {
		s.log.Info("letter render refused", fields...)
		return err
	}
	s.log.Error("letter render failed", fields...)

	failed := &letterdomain.GeneratedLetter{
		ID:            s.genID.Generate(),
		OrgID:         job.orgID,
		TemplateID:    job.template.ID,
		ApplicationID: job.subject.Application.ID,
		Type:          job.letterType,
		Status:        letterdomain.GeneratedStatusFailed,
		CorrelationID: correlationID,
		CreatedAt:     s.now(),
	}
	if insertErr := s.repo.InsertGenerated(ctx, s.db, failed); insertErr != nil {
		s.log.Warn("failed letter not recorded", zap.String("correlation_id", correlationID), zap.Error(insertErr))
	}

	if appErr, ok := apperr.As(err); ok {
		return appErr.WithCorrelationID(correlationID)
	}
	return err
}

func (s *Service) refused(ctx context.Context, err error) error {
	s.workflow.IncRejection("letter", err)
	s.log.Info("letter guard refused", zap.String("actor", auditcontext.ActorLabel(ctx)), zap.Error(err))
	return err
}

func applicantView(letterType letterdomain.LetterType, subject *recruitmentdomain.LetterSubject) mapping.ApplicantView {
	view := mapping.ApplicantView{
		LetterType:     letterType,
		ApplicationID:  subject.Application.ID.String(),
		CandidateName:  subject.Candidate.FullName,
		Email:          subject.Candidate.Email,
		Phone:          subject.Candidate.Phone,
		Address:        subject.Candidate.Address,
		Designation:    subject.Application.Designation,
		JobTitle:       subject.Job.Title,
		Department:     subject.Job.Department,
		Location:       subject.Job.Location,
		EmploymentType: subject.Job.EmploymentType,
	}
	if offer := subject.Offer; offer != nil {
		if strings.TrimSpace(offer.Designation) != "" {
			view.Designation = offer.Designation
		}
		view.JoiningDate = offer.JoiningDate
		view.ValidUntil = offer.ValidUntil
	}
	if employee := subject.Employee; employee != nil {
		view.EmployeeCode = employee.EmployeeCode
		if employee.JoiningDate != nil {
			view.JoiningDate = employee.JoiningDate
		}
		if strings.TrimSpace(employee.Designation) != "" {
			view.Designation = employee.Designation
		}
	}
	return view
}
