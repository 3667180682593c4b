package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/peoplehub/internal/apikey"
	apikeydomain "github.com/smallbiznis/peoplehub/internal/apikey/domain"
	"github.com/smallbiznis/peoplehub/internal/audit"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/authorization"
	"github.com/smallbiznis/peoplehub/internal/compensation"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/letter"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/observability"
	obslogger "github.com/smallbiznis/peoplehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/peoplehub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/peoplehub/internal/observability/tracing"
	"github.com/smallbiznis/peoplehub/internal/organization"
	organizationdomain "github.com/smallbiznis/peoplehub/internal/organization/domain"
	"github.com/smallbiznis/peoplehub/internal/providers"
	"github.com/smallbiznis/peoplehub/internal/ratelimit"
	"github.com/smallbiznis/peoplehub/internal/recruitment"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/internal/salary"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/internal/seed"
	"github.com/smallbiznis/peoplehub/internal/storage"
	"github.com/smallbiznis/peoplehub/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	apikey.Module,
	organization.Module,
	lock.Module,
	ratelimit.Module,
	storage.Module,
	providers.Module,
	salary.Module,
	recruitment.Module,
	letter.Module,
	compensation.Module,
	seed.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	apiKeySvc       apikeydomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	organizationSvc organizationdomain.Service
	recruitmentSvc  recruitmentdomain.Service
	salarySvc       salarydomain.Service
	letterSvc       letterdomain.Service
	compensationSvc *compensation.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	APIKeySvc       apikeydomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	OrganizationSvc organizationdomain.Service
	RecruitmentSvc  recruitmentdomain.Service
	SalarySvc       salarydomain.Service
	LetterSvc       letterdomain.Service
	CompensationSvc *compensation.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		apiKeySvc:       p.APIKeySvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		organizationSvc: p.OrganizationSvc,
		recruitmentSvc:  p.RecruitmentSvc,
		salarySvc:       p.SalarySvc,
		letterSvc:       p.LetterSvc,
		compensationSvc: p.CompensationSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.APIKeyRequired())

	// -------- Jobs --------
	api.GET("/jobs", s.authorizeOrgAction(authorization.ObjectJob, authorization.ActionJobView), s.ListJobs)
	api.POST("/jobs", s.authorizeOrgAction(authorization.ObjectJob, authorization.ActionJobCreate), s.CreateJob)
	api.POST("/jobs/:id/close", s.authorizeOrgAction(authorization.ObjectJob, authorization.ActionJobClose), s.CloseJob)

	// -------- Applications --------
	api.GET("/applications", s.authorizeOrgAction(authorization.ObjectApplication, authorization.ActionApplicationView), s.ListApplications)
	api.POST("/applications", s.authorizeOrgAction(authorization.ObjectApplication, authorization.ActionApplicationSubmit), s.SubmitApplication)
	api.GET("/applications/:id", s.authorizeOrgAction(authorization.ObjectApplication, authorization.ActionApplicationView), s.GetApplication)
	api.POST("/applications/:id/status", s.authorizeOrgAction(authorization.ObjectApplication, authorization.ActionApplicationChangeStatus), s.ChangeApplicationStatus)
	api.GET("/applications/:id/history", s.authorizeOrgAction(authorization.ObjectApplication, authorization.ActionApplicationView), s.ListStatusHistory)
	api.GET("/applications/:id/interviews", s.authorizeOrgAction(authorization.ObjectInterview, authorization.ActionInterviewView), s.ListInterviews)
	api.POST("/applications/:id/interviews", s.authorizeOrgAction(authorization.ObjectInterview, authorization.ActionInterviewSchedule), s.ScheduleInterview)
	api.GET("/applications/:id/letters", s.authorizeOrgAction(authorization.ObjectLetter, authorization.ActionLetterView), s.ListGeneratedLetters)
	api.GET("/applications/:id/annexure", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferView), s.DownloadOfferAnnexure)

	// -------- Offers --------
	api.POST("/offers", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferCreate), s.CreateOffer)
	api.GET("/offers/:id", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferView), s.GetOffer)
	api.POST("/offers/:id/send", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferSend), s.SendOffer)
	api.POST("/offers/:id/accept", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferRespond), s.AcceptOffer)
	api.POST("/offers/:id/reject", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferRespond), s.RejectOffer)
	api.POST("/offers/:id/withdraw", s.authorizeOrgAction(authorization.ObjectOffer, authorization.ActionOfferWithdraw), s.WithdrawOffer)
	api.POST("/offers/:id/convert", s.authorizeOrgAction(authorization.ObjectEmployee, authorization.ActionEmployeeConvert), s.ConvertToEmployee)

	// -------- Employees --------
	api.GET("/employees", s.authorizeOrgAction(authorization.ObjectEmployee, authorization.ActionEmployeeView), s.ListEmployees)
	api.GET("/employees/:id", s.authorizeOrgAction(authorization.ObjectEmployee, authorization.ActionEmployeeView), s.GetEmployee)
	api.GET("/employees/:id/payslips/:period", s.authorizeOrgAction(authorization.ObjectPayslip, authorization.ActionPayslipView), s.DownloadPayslip)

	// -------- Salary structures --------
	api.GET("/salary-structures", s.authorizeOrgAction(authorization.ObjectSalaryStructure, authorization.ActionSalaryStructureView), s.ListSalaryStructures)
	api.POST("/salary-structures", s.authorizeOrgAction(authorization.ObjectSalaryStructure, authorization.ActionSalaryStructureCreate), s.CreateSalaryStructure)
	api.GET("/salary-structures/:id", s.authorizeOrgAction(authorization.ObjectSalaryStructure, authorization.ActionSalaryStructureView), s.GetSalaryStructure)
	api.GET("/salary-structures/:id/export", s.authorizeOrgAction(authorization.ObjectSalaryStructure, authorization.ActionSalaryStructureExport), s.ExportSalaryStructure)

	// -------- Letter templates --------
	api.GET("/letter-templates", s.authorizeOrgAction(authorization.ObjectLetterTemplate, authorization.ActionLetterTemplateView), s.ListLetterTemplates)
	api.POST("/letter-templates", s.authorizeOrgAction(authorization.ObjectLetterTemplate, authorization.ActionLetterTemplateUpload), s.UploadLetterTemplate)
	api.GET("/letter-templates/:id", s.authorizeOrgAction(authorization.ObjectLetterTemplate, authorization.ActionLetterTemplateView), s.GetLetterTemplate)
	api.POST("/letter-templates/:id/default", s.authorizeOrgAction(authorization.ObjectLetterTemplate, authorization.ActionLetterTemplateManage), s.SetDefaultLetterTemplate)

	// -------- Letters --------
	api.POST("/letters/offer", s.authorizeOrgAction(authorization.ObjectLetter, authorization.ActionLetterGenerate), s.GenerateOfferLetter)
	api.POST("/letters/joining", s.authorizeOrgAction(authorization.ObjectLetter, authorization.ActionLetterGenerate), s.GenerateJoiningLetter)
	api.POST("/letters/preview", s.authorizeOrgAction(authorization.ObjectLetter, authorization.ActionLetterPreview), s.PreviewLetter)
	api.GET("/letters/:id/download", s.authorizeOrgAction(authorization.ObjectLetter, authorization.ActionLetterView), s.DownloadLetter)

	// -------- Organization --------
	api.GET("/org", s.authorizeOrgAction(authorization.ObjectOrgMember, authorization.ActionOrgMemberView), s.GetCurrentOrganization)
	api.GET("/org/members", s.authorizeOrgAction(authorization.ObjectOrgMember, authorization.ActionOrgMemberView), s.ListOrgMembers)
	api.POST("/org/members", s.authorizeOrgAction(authorization.ObjectOrgMember, authorization.ActionOrgMemberManage), s.AddOrgMember)
	api.PATCH("/org/members/:user_id", s.authorizeOrgAction(authorization.ObjectOrgMember, authorization.ActionOrgMemberManage), s.ChangeOrgMemberRole)

	// -------- API keys --------
	api.GET("/api-keys", s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyView), s.ListAPIKeys)
	api.POST("/api-keys", s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyManage), s.CreateAPIKey)
	api.POST("/api-keys/:key_id/rotate", s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyManage), s.RotateAPIKey)
	api.POST("/api-keys/:key_id/revoke", s.authorizeOrgAction(authorization.ObjectAPIKey, authorization.ActionAPIKeyManage), s.RevokeAPIKey)

	api.GET("/audit-logs", s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
