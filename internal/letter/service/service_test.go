package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/letter/convert"
	"github.com/smallbiznis/peoplehub/internal/letter/convert/mocks"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/letter/render"
	"github.com/smallbiznis/peoplehub/internal/letter/repository"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	recruitmentrepository "github.com/smallbiznis/peoplehub/internal/recruitment/repository"
	recruitmentservice "github.com/smallbiznis/peoplehub/internal/recruitment/service"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	salaryrepository "github.com/smallbiznis/peoplehub/internal/salary/repository"
	salaryservice "github.com/smallbiznis/peoplehub/internal/salary/service"
	"github.com/smallbiznis/peoplehub/internal/storage/object/local"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	store "github.com/smallbiznis/peoplehub/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testStart = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc         letterdomain.Service
	recruitment recruitmentdomain.Service
	db          *gorm.DB
	store       *local.Store
	office      *mocks.MockConverter
	ctx         context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&recruitmentdomain.Job{},
		&recruitmentdomain.Candidate{},
		&recruitmentdomain.Application{},
		&recruitmentdomain.StatusHistory{},
		&recruitmentdomain.Interview{},
		&recruitmentdomain.Offer{},
		&recruitmentdomain.Employee{},
		&salarydomain.SalaryStructure{},
		&letterdomain.LetterTemplate{},
		&letterdomain.GeneratedLetter{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(testStart)
	letterCfg := config.NewStaticLetterConfigHolder(config.LetterConfig{
		Defaults: map[string]string{"company_name": "Acme Pvt Ltd", "hr_name": "Priya"},
	})

	salarySvc := salaryservice.NewService(salaryservice.Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      salaryrepository.Provide(),
		Clock:     fake,
		LetterCfg: letterCfg,
	})
	recruitment := recruitmentservice.NewService(recruitmentservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg: config.Config{Recruitment: config.RecruitmentConfig{
			EmployeeCodeTemplate: recruitmentdomain.DefaultEmployeeCodeTemplate,
			PhoneRegion:          "IN",
			OfferValidity:        14 * 24 * time.Hour,
		}},
		Repo:       recruitmentrepository.Provide(),
		History:    store.ProvideStore[recruitmentdomain.StatusHistory](conn),
		Interviews: store.ProvideStore[recruitmentdomain.Interview](conn),
		SalarySvc:  salarySvc,
		Clock:      fake,
	})

	objects, err := local.New(t.TempDir())
	require.NoError(t, err)
	office := mocks.NewMockConverter(gomock.NewController(t))
	renderer := render.New(objects, office, convert.NewHTML(), t.TempDir(), letterCfg, fake, zap.NewNop())

	svc := NewService(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		LetterCfg:   letterCfg,
		Repo:        repository.Provide(),
		Recruitment: recruitment,
		Renderer:    renderer,
		Store:       objects,
		Clock:       fake,
	})

	return &fixture{
		svc:         svc,
		recruitment: recruitment,
		db:          conn,
		store:       objects,
		office:      office,
		ctx:         orgcontext.WithOrgID(context.Background(), snowflake.ID(42)),
	}
}

// selectedWithOffer returns an application in SELECTED with a draft offer.
func (f *fixture) selectedWithOffer(t *testing.T, email string, withOffer bool) string {
	t.Helper()
	job, err := f.recruitment.CreateJob(f.ctx, recruitmentdomain.CreateJobRequest{Title: "Backend Engineer", Location: "Bengaluru"})
	require.NoError(t, err)
	app, err := f.recruitment.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID:     job.ID,
		Candidate: recruitmentdomain.CandidateInput{FullName: "Asha Rao", Email: email},
	})
	require.NoError(t, err)
	for _, status := range []recruitmentdomain.ApplicationStatus{
		recruitmentdomain.ApplicationStatusShortlisted,
		recruitmentdomain.ApplicationStatusInterview,
		recruitmentdomain.ApplicationStatusSelected,
	} {
		_, err := f.recruitment.ChangeApplicationStatus(f.ctx, recruitmentdomain.ChangeStatusRequest{ApplicationID: app.ID, Status: string(status)})
		require.NoError(t, err)
	}
	if !withOffer {
		return app.ID
	}

	joining := testStart.AddDate(0, 1, 0)
	_, err = f.recruitment.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{
		ApplicationID: app.ID,
		Designation:   "Senior Engineer",
		JoiningDate:   &joining,
		Components: []salarydomain.ComponentInput{
			{Label: "Basic", Category: "EARNING", Annual: "600000"},
			{Label: "PF", Category: "DEDUCTION", Annual: "21600"},
		},
	})
	require.NoError(t, err)
	return app.ID
}

func (f *fixture) htmlTemplate(t *testing.T, letterType letterdomain.LetterType, body string) *letterdomain.TemplateResponse {
	t.Helper()
	tmpl, err := f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{
		Name:         string(letterType) + " letter",
		Type:         string(letterType),
		TemplateType: "blank",
		HTMLContent:  body,
	})
	require.NoError(t, err)
	return tmpl
}

func wordTemplate(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString(`<w:p>` + p + `</w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:document xmlns:w="w"><w:body>` + body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestUploadWordTemplateExtractsPlaceholders(t *testing.T) {
	f := newFixture(t)
	content := wordTemplate(t,
		`<w:r><w:t>Dear {{cand</w:t></w:r><w:r><w:t>idate_name}},</w:t></w:r>`,
		`<w:r><w:t>{{ designation }} at {{company_name}} for {{candidate_name}}</w:t></w:r>`,
	)

	tmpl, err := f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{
		Name:     "Standard offer",
		Type:     "OFFER",
		FileName: "Standard Offer (v2).docx",
		Content:  content,
	})
	require.NoError(t, err)

	assert.Equal(t, letterdomain.TemplateTypeWord, tmpl.TemplateType)
	assert.Equal(t, []string{"candidate_name", "designation", "company_name"}, tmpl.Placeholders)
	assert.Equal(t, "42/standard-offer-v2-"+tmpl.ID+".docx", tmpl.FilePath)
	assert.True(t, tmpl.IsDefault)

	stored, err := f.store.Read(f.ctx, "uploads/"+tmpl.FilePath)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestUploadTemplateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{Name: "x", Type: "relieving", HTMLContent: "<p>x</p>", TemplateType: "BLANK"})
	assert.ErrorIs(t, err, letterdomain.ErrInvalidLetterType)

	_, err = f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{Name: "x", Type: "offer", FileName: "offer.pdf", Content: []byte("%PDF")})
	assert.ErrorIs(t, err, letterdomain.ErrInvalidTemplateFile)

	_, err = f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{Name: "x", Type: "offer", FileName: "offer.docx", Content: []byte("not a zip")})
	assert.ErrorIs(t, err, letterdomain.ErrInvalidTemplateFile)

	_, err = f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{Name: "x", Type: "offer", TemplateType: "LETTER_PAD", HTMLContent: "  "})
	assert.ErrorIs(t, err, letterdomain.ErrEmptyTemplate)

	_, err = f.svc.UploadTemplate(context.Background(), letterdomain.UploadTemplateRequest{Name: "x", Type: "offer", TemplateType: "BLANK", HTMLContent: "<p/>"})
	assert.ErrorIs(t, err, letterdomain.ErrInvalidOrganization)
}

func TestSetDefaultTemplateIsPerType(t *testing.T) {
	f := newFixture(t)
	first := f.htmlTemplate(t, letterdomain.LetterTypeOffer, "<p>{{candidate_name}}</p>")
	second := f.htmlTemplate(t, letterdomain.LetterTypeOffer, "<p>{{designation}}</p>")
	joining := f.htmlTemplate(t, letterdomain.LetterTypeJoining, "<p>{{employee_code}}</p>")
	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)
	assert.True(t, joining.IsDefault)

	updated, err := f.svc.SetDefaultTemplate(f.ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	offers, err := f.svc.ListTemplates(f.ctx, letterdomain.ListTemplatesRequest{Type: "offer"})
	require.NoError(t, err)
	require.Len(t, offers, 2)
	for _, tmpl := range offers {
		assert.Equal(t, tmpl.ID == second.ID, tmpl.IsDefault, tmpl.ID)
	}

	got, err := f.svc.GetTemplate(f.ctx, joining.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
}

func TestJoiningLetterRequiresOfferLetter(t *testing.T) {
	f := newFixture(t)
	appID := f.selectedWithOffer(t, "asha@example.com", true)
	f.htmlTemplate(t, letterdomain.LetterTypeOffer, "<p>Dear {{candidate_name}}, you are offered {{designation}} at {{ctc_annual}}.</p>")
	f.htmlTemplate(t, letterdomain.LetterTypeJoining, "<p>Welcome {{employee_name}}, joining {{joining_date}}.</p>")

	_, err := f.svc.GenerateJoiningLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID})
	requireCode(t, err, apperr.CodeOfferLetterRequired)
	assert.True(t, apperr.IsKind(err, apperr.KindPreconditionNotMet))

	offer, err := f.svc.GenerateOfferLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID})
	require.NoError(t, err)
	assert.Equal(t, letterdomain.GeneratedStatusGenerated, offer.Status)
	assert.Equal(t, "/api/letters/"+offer.ID+"/download", offer.DownloadURL)

	app, err := f.recruitment.GetApplication(f.ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, offer.PDFPath, app.OfferLetterPath)

	joining, err := f.svc.GenerateJoiningLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID})
	require.NoError(t, err)
	assert.NotEmpty(t, joining.DownloadURL)

	app, err = f.recruitment.GetApplication(f.ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, joining.PDFPath, app.JoiningLetterPath)

	letters, err := f.svc.ListGeneratedLetters(f.ctx, letterdomain.ListGeneratedLettersRequest{ApplicationID: appID})
	require.NoError(t, err)
	assert.Len(t, letters, 2)

	file, err := f.svc.OpenLetter(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NoError(t, render.VerifyPDF(file.Content))
}

func TestGenerateRequiresSalarySnapshot(t *testing.T) {
	f := newFixture(t)
	appID := f.selectedWithOffer(t, "asha@example.com", false)
	f.htmlTemplate(t, letterdomain.LetterTypeOffer, "<p>{{candidate_name}}</p>")

	_, err := f.svc.GenerateOfferLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID})
	requireCode(t, err, apperr.CodeSalarySnapshotRequired)
}

func TestGenerateRejectsTemplateOfOtherType(t *testing.T) {
	f := newFixture(t)
	appID := f.selectedWithOffer(t, "asha@example.com", true)
	joining := f.htmlTemplate(t, letterdomain.LetterTypeJoining, "<p>{{employee_code}}</p>")

	_, err := f.svc.GenerateOfferLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID, TemplateID: joining.ID})
	requireCode(t, err, apperr.CodeTemplateTypeMismatch)
}

func TestGenerateWithoutTemplate(t *testing.T) {
	f := newFixture(t)
	appID := f.selectedWithOffer(t, "asha@example.com", true)

	_, err := f.svc.GenerateOfferLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestConversionFailureRecordsAttemptOnly(t *testing.T) {
	f := newFixture(t)
	appID := f.selectedWithOffer(t, "asha@example.com", true)
	_, err := f.svc.UploadTemplate(f.ctx, letterdomain.UploadTemplateRequest{
		Name:     "Offer",
		Type:     "offer",
		FileName: "offer.docx",
		Content:  wordTemplate(t, `<w:r><w:t>Dear {{candidate_name}}</w:t></w:r>`),
	})
	require.NoError(t, err)

	f.office.EXPECT().
		Convert(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", apperr.ConversionFailure("Error: source file could not be loaded", nil))

	_, err = f.svc.GenerateOfferLetter(f.ctx, letterdomain.GenerateLetterRequest{ApplicationID: appID})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConversionFailure, appErr.Kind)
	assert.NotEmpty(t, appErr.CorrelationID)

	app, err := f.recruitment.GetApplication(f.ctx, appID)
	require.NoError(t, err)
	assert.Empty(t, app.OfferLetterPath)

	letters, err := f.svc.ListGeneratedLetters(f.ctx, letterdomain.ListGeneratedLettersRequest{ApplicationID: appID})
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, letterdomain.GeneratedStatusFailed, letters[0].Status)
	assert.Empty(t, letters[0].DownloadURL)

	_, err = f.svc.OpenLetter(f.ctx, letters[0].ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPreviewLetterPersistsNothing(t *testing.T) {
	f := newFixture(t)
	appID := f.selectedWithOffer(t, "asha@example.com", true)
	f.htmlTemplate(t, letterdomain.LetterTypeJoining, "<p>Welcome {{employee_name}}</p>")

	file, err := f.svc.PreviewLetter(f.ctx, letterdomain.PreviewLetterRequest{
		GenerateLetterRequest: letterdomain.GenerateLetterRequest{
			ApplicationID: appID,
			Overrides:     map[string]any{"employee_name": "A. Rao"},
		},
		Type: "joining",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^Preview_Joining_Letter_\d+_\d+\.pdf$`, file.FileName)
	assert.NoError(t, render.VerifyPDF(file.Content))

	app, err := f.recruitment.GetApplication(f.ctx, appID)
	require.NoError(t, err)
	assert.Empty(t, app.OfferLetterPath)
	assert.Empty(t, app.JoiningLetterPath)

	letters, err := f.svc.ListGeneratedLetters(f.ctx, letterdomain.ListGeneratedLettersRequest{})
	require.NoError(t, err)
	assert.Empty(t, letters)
}

func TestPreviewLetterRejectsUnknownType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PreviewLetter(f.ctx, letterdomain.PreviewLetterRequest{Type: "memo"})
	assert.ErrorIs(t, err, letterdomain.ErrInvalidLetterType)
}
