package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/internal/recruitment/repository"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// staleReadRepo answers the pre-insert existence checks as if a concurrent
// writer had not committed yet, leaving the unique indexes as the only guard.
type staleReadRepo struct {
	recruitmentdomain.Repository

	staleGuards         atomic.Bool
	staleCandidateReads atomic.Int32
}

func newStaleReadRepo() *staleReadRepo {
	return &staleReadRepo{Repository: repository.Provide()}
}

func (r *staleReadRepo) FindApplicationByJobCandidate(ctx context.Context, conn *gorm.DB, orgID, jobID, candidateID snowflake.ID) (*recruitmentdomain.Application, error) {
	if r.staleGuards.Load() {
		return nil, nil
	}
	return r.Repository.FindApplicationByJobCandidate(ctx, conn, orgID, jobID, candidateID)
}

func (r *staleReadRepo) FindOfferByApplicationForUpdate(ctx context.Context, conn *gorm.DB, orgID, applicationID snowflake.ID) (*recruitmentdomain.Offer, error) {
	if r.staleGuards.Load() {
		return nil, nil
	}
	return r.Repository.FindOfferByApplicationForUpdate(ctx, conn, orgID, applicationID)
}

func (r *staleReadRepo) FindEmployeeByApplication(ctx context.Context, conn *gorm.DB, orgID, applicationID snowflake.ID) (*recruitmentdomain.Employee, error) {
	if r.staleGuards.Load() {
		return nil, nil
	}
	return r.Repository.FindEmployeeByApplication(ctx, conn, orgID, applicationID)
}

func (r *staleReadRepo) FindCandidateByEmail(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, email string) (*recruitmentdomain.Candidate, error) {
	if r.staleCandidateReads.Add(-1) >= 0 {
		return nil, nil
	}
	return r.Repository.FindCandidateByEmail(ctx, conn, orgID, email)
}

func mustID(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}

func TestSubmitApplicationUniqueIndexRejectsSecondWriter(t *testing.T) {
	repo := newStaleReadRepo()
	f := newFixtureWithRepo(t, repo)
	app := f.submit(t, "asha@example.com")

	repo.staleGuards.Store(true)
	_, err := f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID:       app.JobID,
		CandidateID: app.CandidateID,
	})
	requireCode(t, err, apperr.CodeDuplicateApplication)

	var count int64
	require.NoError(t, f.db.Model(&recruitmentdomain.Application{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateOfferUniqueIndexRejectsSecondWriter(t *testing.T) {
	repo := newStaleReadRepo()
	f := newFixtureWithRepo(t, repo)
	app := f.selected(t, "asha@example.com")

	require.NoError(t, f.db.Create(&recruitmentdomain.Offer{
		ID:            snowflake.ID(9001),
		OrgID:         snowflake.ID(42),
		ApplicationID: mustID(t, app.ID),
		Status:        recruitmentdomain.OfferStatusDraft,
		CreatedAt:     testStart,
		UpdatedAt:     testStart,
	}).Error)

	repo.staleGuards.Store(true)
	_, err := f.svc.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{ApplicationID: app.ID})
	requireCode(t, err, apperr.CodeOfferExists)

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusSelected, got.Status)
}

func TestConvertToEmployeeUniqueIndexRejectsSecondWriter(t *testing.T) {
	repo := newStaleReadRepo()
	f := newFixtureWithRepo(t, repo)
	app := f.selected(t, "asha@example.com")
	offer := f.draftOffer(t, app.ID)
	_, err := f.svc.SendOffer(f.ctx, offer.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptOffer(f.ctx, offer.ID)
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&recruitmentdomain.Employee{
		ID:            snowflake.ID(9002),
		OrgID:         snowflake.ID(42),
		EmployeeCode:  "EMP-OTHER",
		CandidateID:   mustID(t, app.CandidateID),
		ApplicationID: mustID(t, app.ID),
		OfferID:       mustID(t, offer.ID),
		FullName:      "Asha Rao",
		CreatedAt:     testStart,
		UpdatedAt:     testStart,
	}).Error)

	repo.staleGuards.Store(true)
	_, err = f.svc.ConvertToEmployee(f.ctx, recruitmentdomain.ConvertToEmployeeRequest{OfferID: offer.ID})
	requireCode(t, err, apperr.CodeEmployeeExists)

	got, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitmentdomain.ApplicationStatusOffered, got.Status)
	assert.Nil(t, got.EmployeeID)
}

func TestSubmitApplicationReusesCandidateCreatedConcurrently(t *testing.T) {
	repo := newStaleReadRepo()
	f := newFixtureWithRepo(t, repo)
	first := f.submit(t, "asha@example.com")

	job, err := f.svc.CreateJob(f.ctx, recruitmentdomain.CreateJobRequest{Title: "Platform Engineer"})
	require.NoError(t, err)

	repo.staleCandidateReads.Store(1)
	second, err := f.svc.SubmitApplication(f.ctx, recruitmentdomain.SubmitApplicationRequest{
		JobID: job.ID,
		Candidate: recruitmentdomain.CandidateInput{
			FullName: "Asha Rao",
			Email:    "asha@example.com",
			Phone:    "98765 43210",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.CandidateID, second.CandidateID)

	var count int64
	require.NoError(t, f.db.Model(&recruitmentdomain.Candidate{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateOfferConcurrentCallsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	app := f.selected(t, "asha@example.com")

	const callers = 2
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		errs     = make([]error, callers)
		resolved = make([]*recruitmentdomain.OfferResponse, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			resolved[i], errs[i] = f.svc.CreateOffer(f.ctx, recruitmentdomain.CreateOfferRequest{ApplicationID: app.ID})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for i := range errs {
		if errs[i] == nil {
			succeeded++
			require.NotNil(t, resolved[i])
			continue
		}
		requireCode(t, errs[i], apperr.CodeOfferExists)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, f.db.Model(&recruitmentdomain.Offer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
