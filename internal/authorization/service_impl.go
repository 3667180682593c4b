package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectJob             = "job"
	ObjectCandidate       = "candidate"
	ObjectApplication     = "application"
	ObjectInterview       = "interview"
	ObjectOffer           = "offer"
	ObjectEmployee        = "employee"
	ObjectSalaryStructure = "salary_structure"
	ObjectLetterTemplate  = "letter_template"
	ObjectLetter          = "letter"
	ObjectPayslip         = "payslip"
	ObjectAuditLog        = "audit_log"
	ObjectOrgMember       = "org_member"
	ObjectAPIKey          = "api_key"
)

const (
	ActionJobView   = "job.view"
	ActionJobCreate = "job.create"
	ActionJobClose  = "job.close"

	ActionApplicationView         = "application.view"
	ActionApplicationSubmit       = "application.submit"
	ActionApplicationChangeStatus = "application.change_status"

	ActionInterviewView     = "interview.view"
	ActionInterviewSchedule = "interview.schedule"

	ActionOfferView     = "offer.view"
	ActionOfferCreate   = "offer.create"
	ActionOfferSend     = "offer.send"
	ActionOfferRespond  = "offer.respond"
	ActionOfferWithdraw = "offer.withdraw"
	ActionOfferExpire   = "offer.expire"

	ActionEmployeeView    = "employee.view"
	ActionEmployeeConvert = "employee.convert"

	ActionSalaryStructureView   = "salary_structure.view"
	ActionSalaryStructureCreate = "salary_structure.create"
	ActionSalaryStructureExport = "salary_structure.export"

	ActionLetterTemplateView   = "letter_template.view"
	ActionLetterTemplateUpload = "letter_template.upload"
	ActionLetterTemplateManage = "letter_template.manage"

	ActionLetterView     = "letter.view"
	ActionLetterGenerate = "letter.generate"
	ActionLetterPreview  = "letter.preview"

	ActionPayslipView = "payslip.view"

	ActionAuditLogView = "audit_log.view"

	ActionOrgMemberView   = "org_member.view"
	ActionOrgMemberManage = "org_member.manage"

	ActionAPIKeyView   = "api_key.view"
	ActionAPIKeyManage = "api_key.manage"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, actorType, actorID, err := s.resolveActor(ctx, actor, orgID)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, orgID, object, action)
		return err
	}

	domain := fmt.Sprintf("org:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, orgID, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditGranted(ctx, actorType, actorID, orgID, object, action)
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, orgID string) (string, string, string, *string, error) {
	if actor == "system" {
		roleName := "role:system"
		return actor, roleName, "system", nil, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", "", nil, ErrInvalidActor
		}
		parsedOrgID, err := snowflake.ParseString(orgID)
		userIDStr := userID.String()
		if err != nil || parsedOrgID == 0 {
			return actor, "", "user", &userIDStr, ErrInvalidOrganization
		}
		role, err := s.roleForUser(ctx, parsedOrgID, userID)
		if err != nil {
			return actor, "", "user", &userIDStr, err
		}
		roleName := fmt.Sprintf("role:%s", strings.ToLower(role))
		return actor, roleName, "user", &userIDStr, nil
	}
	return "", "", "", nil, ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM org_members
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, orgID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedOrgID, err := snowflake.ParseString(orgID)
	if err != nil || parsedOrgID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedOrgID, actorType, actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"actor":   actorType,
		"org_id":  orgID,
		"subject": actorSubject(actorType, actorID),
	})
}

func (s *ServiceImpl) auditGranted(ctx context.Context, actorType string, actorID *string, orgID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedOrgID, err := snowflake.ParseString(orgID)
	if err != nil || parsedOrgID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedOrgID, actorType, actorID, "authorization.granted", "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"actor":   actorType,
		"org_id":  orgID,
		"subject": actorSubject(actorType, actorID),
	})
}

func actorSubject(actorType string, actorID *string) string {
	switch actorType {
	case "system":
		return "system"
	case "user":
		if actorID != nil && strings.TrimSpace(*actorID) != "" {
			return fmt.Sprintf("user:%s", strings.TrimSpace(*actorID))
		}
	}
	return ""
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionOfferWithdraw, ActionEmployeeConvert, ActionLetterTemplateManage,
		ActionOrgMemberManage, ActionAPIKeyManage:
		return true
	default:
		return false
	}
}

var (
	viewerActions = [][2]string{
		{ObjectJob, ActionJobView},
		{ObjectApplication, ActionApplicationView},
		{ObjectInterview, ActionInterviewView},
		{ObjectOffer, ActionOfferView},
		{ObjectEmployee, ActionEmployeeView},
		{ObjectSalaryStructure, ActionSalaryStructureView},
		{ObjectLetterTemplate, ActionLetterTemplateView},
		{ObjectLetter, ActionLetterView},
	}
	recruiterActions = [][2]string{
		{ObjectJob, ActionJobCreate},
		{ObjectApplication, ActionApplicationSubmit},
		{ObjectApplication, ActionApplicationChangeStatus},
		{ObjectInterview, ActionInterviewSchedule},
		{ObjectLetter, ActionLetterPreview},
	}
	hrAdminActions = [][2]string{
		{ObjectJob, ActionJobClose},
		{ObjectOffer, ActionOfferCreate},
		{ObjectOffer, ActionOfferSend},
		{ObjectOffer, ActionOfferRespond},
		{ObjectOffer, ActionOfferWithdraw},
		{ObjectEmployee, ActionEmployeeConvert},
		{ObjectSalaryStructure, ActionSalaryStructureCreate},
		{ObjectSalaryStructure, ActionSalaryStructureExport},
		{ObjectLetterTemplate, ActionLetterTemplateUpload},
		{ObjectLetterTemplate, ActionLetterTemplateManage},
		{ObjectLetter, ActionLetterGenerate},
		{ObjectPayslip, ActionPayslipView},
		{ObjectOrgMember, ActionOrgMemberView},
	}
	ownerActions = [][2]string{
		{ObjectAuditLog, ActionAuditLogView},
		{ObjectOrgMember, ActionOrgMemberManage},
		{ObjectAPIKey, ActionAPIKeyView},
		{ObjectAPIKey, ActionAPIKeyManage},
	}
	systemActions = [][2]string{
		{ObjectOffer, ActionOfferView},
		{ObjectOffer, ActionOfferExpire},
	}
)

// seedPolicies builds the role ladder viewer < recruiter < hr_admin < owner.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	ladder := []struct {
		role    string
		actions [][][2]string
	}{
		{"role:viewer", [][][2]string{viewerActions}},
		{"role:recruiter", [][][2]string{viewerActions, recruiterActions}},
		{"role:hr_admin", [][][2]string{viewerActions, recruiterActions, hrAdminActions}},
		{"role:owner", [][][2]string{viewerActions, recruiterActions, hrAdminActions, ownerActions}},
		{"role:system", [][][2]string{systemActions}},
	}

	for _, entry := range ladder {
		for _, group := range entry.actions {
			for _, rule := range group {
				has, err := enforcer.HasPolicy(entry.role, rule[0], rule[1])
				if err != nil {
					return err
				}
				if has {
					continue
				}
				if _, err := enforcer.AddPolicy(entry.role, rule[0], rule[1]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
