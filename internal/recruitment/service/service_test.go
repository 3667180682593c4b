package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/internal/recruitment/repository"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	salaryrepository "github.com/smallbiznis/peoplehub/internal/salary/repository"
	salaryservice "github.com/smallbiznis/peoplehub/internal/salary/service"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
	store "github.com/smallbiznis/peoplehub/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testStart = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   recruitmentdomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, repository.Provide())
}

func newFixtureWithRepo(t *testing.T, repo recruitmentdomain.Repository) *fixture {
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
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(testStart)

	salarySvc := salaryservice.NewService(salaryservice.Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      salaryrepository.Provide(),
		Clock:     fake,
		LetterCfg: config.NewStaticLetterConfigHolder(config.DefaultLetterConfig()),
	})

	svc := NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg: config.Config{Recruitment: config.RecruitmentConfig{
			EmployeeCodeTemplate: recruitmentdomain.DefaultEmployeeCodeTemplate,
			PhoneRegion:          "IN",
			OfferValidity:        14 * 24 * time.Hour,
		}},
		Repo:       repo,
		History:    store.ProvideStore[recruitmentdomain.StatusHistory](conn),
		Interviews: store.ProvideStore[recruitmentdomain.Interview](conn),
		SalarySvc:  salarySvc,
		Clock:      fake,
	})

	return &fixture{
		svc:   svc,
		db:    conn,
		clock: fake,
		ctx:   orgcontext.WithOrgID(context.Background(), snowflake.ID(42)),
	}
}

func (f *fixture) submit(t *testing.T, email string) *recruitmentdomain.ApplicationResponse {
	t.Helper()
	job, err := f.svc.CreateJob(f.ctx, recruitmentdomain.CreateJobRequest{Title: "Backend Engineer"})
	require.NoError(t, err)

	app, err := f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID: job.ID,
		Candidate: recruitmentdomain.CandidateInput{
			FullName: "Asha Rao",
			Email:    email,
			Phone:    "98765 43210",
		},
	})
	require.NoError(t, err)
	return app
}

func (f *fixture) move(t *testing.T, appID string, statuses ...recruitmentdomain.ApplicationStatus) {
	t.Helper()
	for _, status := range statuses {
		_, err := f.svc.ChangeApplicationStatus(f.ctx, recruitmentdomain.ChangeStatusRequest{
			ApplicationID: appID,
			Status:        string(status),
		})
		require.NoError(t, err)
	}
}

func (f *fixture) selected(t *testing.T, email string) *recruitmentdomain.ApplicationResponse {
	t.Helper()
	app := f.submit(t, email)
	f.move(t, app.ID,
		recruitmentdomain.ApplicationStatusShortlisted,
		recruitmentdomain.ApplicationStatusInterview,
		recruitmentdomain.ApplicationStatusSelected,
	)
	return app
}

func (f *fixture) draftOffer(t *testing.T, appID string) *recruitmentdomain.OfferResponse {
	t.Helper()
	joining := testStart.AddDate(0, 1, 0)
	offer, err := f.svc.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{
		ApplicationID: appID,
		Designation:   "Senior Engineer",
		JoiningDate:   &joining,
		Components: []salarydomain.ComponentInput{
			{Label: "Basic", Category: "EARNING", Annual: "600000"},
			{Label: "PF", Category: "DEDUCTION", Annual: "21600"},
		},
	})
	require.NoError(t, err)
	return offer
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestSubmitApplicationNormalizesCandidate(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "  Asha@Example.COM ")

	assert.Equal(t, recruitmentdomain.ApplicationStatusApplied, app.Status)
	assert.Nil(t, app.OfferStatus)
	require.NotNil(t, app.Candidate)
	assert.Equal(t, "asha@example.com", app.Candidate.Email)
	assert.Equal(t, "+919876543210", app.Candidate.Phone)
	assert.Equal(t, "Backend Engineer", app.Designation)

	history, err := f.svc.ListStatusHistory(f.ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "APPLIED", history[0].ToStatus)
	assert.Empty(t, history[0].FromStatus)
}

func TestSubmitApplicationRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	_, err := f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID:       app.JobID,
		CandidateID: app.CandidateID,
	})
	requireCode(t, err, apperr.CodeDuplicateApplication)
}

func TestSubmitApplicationValidatesInput(t *testing.T) {
	f := newFixture(t)
	job, err := f.svc.CreateJob(f.ctx, recruitmentdomain.CreateJobRequest{Title: "Designer"})
	require.NoError(t, err)

	_, err = f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID:     job.ID,
		Candidate: recruitmentdomain.CandidateInput{FullName: "Ravi", Email: "not-an-email"},
	})
	assert.ErrorIs(t, err, recruitmentdomain.ErrInvalidEmail)

	_, err = f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID:     job.ID,
		Candidate: recruitmentdomain.CandidateInput{FullName: "Ravi", Email: "ravi@example.com", Phone: "12"},
	})
	assert.ErrorIs(t, err, recruitmentdomain.ErrInvalidPhone)

	_, err = f.svc.SubmitApplication(context.Background(), recruitmentdomain.SubmitApplicationRequest{JobID: job.ID})
	assert.ErrorIs(t, err, recruitmentdomain.ErrInvalidOrganization)
}

func TestSubmitApplicationToClosedJob(t *testing.T) {
	f := newFixture(t)
	job, err := f.svc.CreateJob(f.ctx, recruitmentdomain.CreateJobRequest{Title: "Analyst"})
	require.NoError(t, err)
	_, err = f.svc.CloseJob(f.ctx, job.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID:     job.ID,
		Candidate: recruitmentdomain.CandidateInput{FullName: "Ravi", Email: "ravi@example.com"},
	})
	requireCode(t, err, apperr.CodeJobClosed)
}

func TestChangeStatusRefusesWorkflowOnlyTargets(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")

	for _, status := range []string{"OFFERED", "JOINED"} {
		_, err := f.svc.ChangeApplicationStatus(f.ctx, recruitmentdomain.ChangeStatusRequest{
			ApplicationID: app.ID,
			Status:        status,
		})
		requireCode(t, err, apperr.CodeWorkflowOnlyStatus)
	}
}

func TestChangeStatusRefusesIllegalEdge(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	_, err := f.svc.ChangeApplicationStatus(f.ctx, recruitmentdomain.ChangeStatusRequest{
		ApplicationID: app.ID,
		Status:        "SELECTED",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusApplied, got.Status)
}

func TestRejectionRecordsMetadata(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")
	f.move(t, app.ID, recruitmentdomain.ApplicationStatusShortlisted)

	got, err := f.svc.ChangeApplicationStatus(f.ctx, recruitmentdomain.ChangeStatusRequest{
		ApplicationID: app.ID,
		Status:        "REJECTED",
		Reason:        "skills mismatch",
	})
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusRejected, got.Status)
	assert.Equal(t, "SHORTLISTED", got.RejectedStage)
	assert.Equal(t, "skills mismatch", got.RejectionReason)
	assert.Equal(t, "system", got.RejectedBy)
	require.NotNil(t, got.RejectedAt)

	history, err := f.svc.ListStatusHistory(f.ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "SHORTLISTED", history[2].FromStatus)
	assert.Equal(t, "REJECTED", history[2].ToStatus)
}

func TestScheduleInterviewNumbersRounds(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	_, err := f.svc.ScheduleInterview(f.ctx, recruitmentdomain.ScheduleInterviewRequest{
		ApplicationID: app.ID,
		ScheduledAt:   testStart.Add(48 * time.Hour),
	})
	requireCode(t, err, apperr.CodeInterviewNotAllowed)

	f.move(t, app.ID, recruitmentdomain.ApplicationStatusShortlisted)
	first, err := f.svc.ScheduleInterview(f.ctx, recruitmentdomain.ScheduleInterviewRequest{
		ApplicationID: app.ID,
		ScheduledAt:   testStart.Add(48 * time.Hour),
		Interviewer:   "Meera",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Round)

	second, err := f.svc.ScheduleInterview(f.ctx, recruitmentdomain.ScheduleInterviewRequest{
		ApplicationID: app.ID,
		ScheduledAt:   testStart.Add(96 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Round)

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusInterview, got.Status)

	rounds, err := f.svc.ListInterviews(f.ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "Meera", rounds[0].Interviewer)
}

func TestCreateOfferRequiresSelected(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	_, err := f.svc.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{ApplicationID: app.ID})
	requireCode(t, err, apperr.CodeApplicationNotSelected)
}

func TestCreateOfferMovesApplicationToOffered(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)

	assert.Equal(t, recruitmentdomain.OfferStatusDraft, offer.Status)
	require.NotNil(t, offer.ValidUntil)
	assert.True(t, offer.ValidUntil.Equal(testStart.Add(14*24*time.Hour)))
	require.NotNil(t, offer.SalarySnapshot)
	assert.Equal(t, "600000", offer.SalarySnapshot.Totals.GrossEarnings.String())

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusOffered, got.Status)
	require.NotNil(t, got.OfferStatus)
	assert.Equal(t, recruitmentdomain.ApplicationOfferPending, *got.OfferStatus)
	require.NotNil(t, got.OfferID)
	assert.Equal(t, offer.ID, *got.OfferID)
	assert.Equal(t, "Senior Engineer", got.Designation)

	_, err = f.svc.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{ApplicationID: app.ID})
	requireCode(t, err, apperr.CodeOfferExists)
}

func TestSendOfferWithoutSalaryIsIncomplete(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	joining := testStart.AddDate(0, 1, 0)
	offer, err := f.svc.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{
		ApplicationID: app.ID,
		JoiningDate:   &joining,
	})
	require.NoError(t, err)

	_, err = f.svc.SendOffer(f.ctx, offer.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDataIncomplete))

	got, err := f.svc.GetOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.OfferStatusDraft, got.Status)
}

func TestAcceptOfferAndConvert(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)

	_, err := f.svc.ConvertToEmployee(f.ctx, recruitmentdomain.ConvertToEmployeeRequest{OfferID: offer.ID})
	requireCode(t, err, apperr.CodeOfferNotAccepted)

	sent, err := f.svc.SendOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.NotNil(t, sent.SentAt)

	accepted, err := f.svc.AcceptOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.OfferStatusAccepted, accepted.Status)

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusOffered, got.Status)
	assert.Equal(t, recruitmentdomain.ApplicationOfferAccepted, *got.OfferStatus)

	employee, err := f.svc.ConvertToEmployee(f.ctx, recruitmentdomain.ConvertToEmployeeRequest{OfferID: offer.ID})
	require.NoError(t, err)
	assert.Regexp(t, `^EMP-202608-[0-9A-Z]+$`, employee.EmployeeCode)
	assert.Equal(t, "Asha Rao", employee.FullName)
	assert.Equal(t, "Senior Engineer", employee.Designation)
	require.NotNil(t, employee.SalarySnapshot)
	assert.True(t, employee.SalarySnapshot.Totals.NetSalary.Equal(accepted.SalarySnapshot.Totals.NetSalary))

	got, err = f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusJoined, got.Status)
	require.NotNil(t, got.EmployeeID)
	assert.Equal(t, employee.ID, *got.EmployeeID)

	_, err = f.svc.ConvertToEmployee(f.ctx, recruitmentdomain.ConvertToEmployeeRequest{OfferID: offer.ID})
	requireCode(t, err, apperr.CodeEmployeeExists)

	list, err := f.svc.ListEmployees(f.ctx, recruitmentdomain.ListEmployeesRequest{})
	require.NoError(t, err)
	require.Len(t, list.Employees, 1)
	assert.Equal(t, employee.ID, list.Employees[0].ID)
}

func TestRejectOfferRejectsApplication(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)
	_, err := f.svc.SendOffer(f.ctx, offer.ID)
	require.NoError(t, err)

	rejected, err := f.svc.RejectOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.OfferStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RespondedAt)

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusRejected, got.Status)
	assert.Equal(t, recruitmentdomain.ApplicationOfferRejected, *got.OfferStatus)
	assert.Equal(t, "OFFERED", got.RejectedStage)
}

func TestWithdrawOfferClearsMirror(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)

	withdrawn, err := f.svc.WithdrawOffer(f.ctx, recruitmentdomain.WithdrawOfferRequest{
		OfferID: offer.ID,
		Reason:  "position frozen",
	})
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.OfferStatusWithdrawn, withdrawn.Status)
	assert.Equal(t, "position frozen", withdrawn.WithdrawalReason)

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusWithdrawn, got.Status)
	assert.Nil(t, got.OfferStatus)

	_, err = f.svc.AcceptOffer(f.ctx, offer.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestManualRejectWithdrawsOpenOffer(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)
	_, err := f.svc.SendOffer(f.ctx, offer.ID)
	require.NoError(t, err)

	_, err = f.svc.ChangeApplicationStatus(f.ctx, recruitmentdomain.ChangeStatusRequest{
		ApplicationID: app.ID,
		Status:        "REJECTED",
		Reason:        "background check",
	})
	require.NoError(t, err)

	got, err := f.svc.GetOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.OfferStatusWithdrawn, got.Status)
}

func TestExpiryOnTouchRefusesAccept(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)
	_, err := f.svc.SendOffer(f.ctx, offer.ID)
	require.NoError(t, err)

	f.clock.Advance(15 * 24 * time.Hour)

	_, err = f.svc.AcceptOffer(f.ctx, offer.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))

	got, err := f.svc.GetOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.OfferStatusExpired, got.Status)
	assert.NotNil(t, got.ExpiredAt)

	gotApp, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusOffered, gotApp.Status)
	assert.Equal(t, recruitmentdomain.ApplicationOfferExpired, *gotApp.OfferStatus)
}

func TestExpireDueOffersSweepsAcrossOrgs(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)
	_, err := f.svc.SendOffer(f.ctx, offer.ID)
	require.NoError(t, err)

	n, err := f.svc.ExpireDueOffers(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(30 * 24 * time.Hour)
	n, err = f.svc.ExpireDueOffers(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var stored recruitmentdomain.Offer
	require.NoError(t, f.db.First(&stored).Error)
	assert.Equal(t, recruitmentdomain.OfferStatusExpired, stored.Status)
}

func TestListApplicationsPaginates(t *testing.T) {
	f := newFixture(t)
	job, err := f.svc.CreateJob(f.ctx, recruitmentdomain.CreateJobRequest{Title: "Support"})
	require.NoError(t, err)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
			JobID:     job.ID,
			Candidate: recruitmentdomain.CandidateInput{FullName: "Candidate", Email: email},
		})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	page, err := f.svc.ListApplications(f.ctx, recruitmentdomain.ListApplicationsRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		JobID:      job.ID,
	})
	require.NoError(t, err)
	require.Len(t, page.Applications, 2)
	require.True(t, page.HasMore)

	next, err := f.svc.ListApplications(f.ctx, recruitmentdomain.ListApplicationsRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken},
		JobID:      job.ID,
	})
	require.NoError(t, err)
	require.Len(t, next.Applications, 1)
	assert.False(t, next.HasMore)

	_, err = f.svc.ListApplications(f.ctx, recruitmentdomain.ListApplicationsRequest{
		Pagination: pagination.Pagination{PageToken: "garbage"},
	})
	assert.True(t, errors.Is(err, recruitmentdomain.ErrInvalidPageToken))
}

func TestLoadLetterSubjectCarriesSnapshot(t *testing.T) {
	f := newFixture(t)
	app := f.selected(t, "asha@example.com")
	f.draftOffer(t, app.ID)

	subject, err := f.svc.LoadLetterSubject(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", subject.Candidate.FullName)
	assert.Equal(t, "Backend Engineer", subject.Job.Title)
	require.NotNil(t, subject.Offer)
	require.NotNil(t, subject.Snapshot)
	assert.Len(t, subject.Snapshot.Earnings, 1)

	appID, err := recruitmentdomain.ParseID(app.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.AttachLetter(f.ctx, appID, recruitmentdomain.LetterKindOffer, "generated/Offer_Letter_1.pdf"))

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated/Offer_Letter_1.pdf", got.OfferLetterPath)
}
