package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/smallbiznis/peoplehub/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/clock"
	orgdomain "github.com/smallbiznis/peoplehub/internal/organization/domain"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	apiKeySecretBytes         = 32
	apiKeyRotationGracePeriod = 24 * time.Hour
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     apikeydomain.Repository
	Members  orgdomain.Repository
	Clock    clock.Clock         `optional:"true"`
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     apikeydomain.Repository
	members  orgdomain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
}

func New(p Params) apikeydomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("apikey.service"),
		repo:     p.Repo,
		members:  p.Members,
		genID:    p.GenID,
		clock:    clk,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) List(ctx context.Context) ([]apikeydomain.Response, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]apikeydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i]))
	}

	return resp, nil
}

func (s *Service) Create(ctx context.Context, req apikeydomain.CreateRequest) (*apikeydomain.SecretResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apikeydomain.ErrInvalidName
	}

	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, apikeydomain.ErrInvalidExpiry
	}

	userID, err := s.resolveUser(ctx, orgID, req.UserID)
	if err != nil {
		return nil, err
	}

	id := s.genID.Generate()
	keyID := newKeyID(id)
	plain, hash, err := generateAPIKey(keyID)
	if err != nil {
		return nil, err
	}

	key := &apikeydomain.APIKey{
		ID:        id,
		OrgID:     orgID,
		UserID:    userID,
		KeyID:     keyID,
		Name:      name,
		KeyHash:   hash,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: req.ExpiresAt,
	}

	if err := s.repo.Insert(ctx, s.db, key); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, orgID, "api_key.created", key.KeyID, map[string]any{"user_id": userID.String()})
	return &apikeydomain.SecretResponse{KeyID: key.KeyID, APIKey: plain}, nil
}

func (s *Service) Rotate(ctx context.Context, keyID string) (*apikeydomain.SecretResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(keyID)
	if trimmed == "" {
		return nil, apikeydomain.ErrInvalidKeyID
	}

	var result *apikeydomain.SecretResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByKeyID(ctx, tx, orgID, trimmed)
		if err != nil {
			return err
		}
		now := s.now()
		if current == nil || !current.Usable(now) {
			return apikeydomain.ErrNotFound
		}

		current.ExpiresAt = ptrTime(now.Add(apiKeyRotationGracePeriod))
		current.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return err
		}

		id := s.genID.Generate()
		newKeyID := newKeyID(id)
		plain, hash, err := generateAPIKey(newKeyID)
		if err != nil {
			return err
		}

		rotatedFrom := current.KeyID
		next := &apikeydomain.APIKey{
			ID:               id,
			OrgID:            orgID,
			UserID:           current.UserID,
			KeyID:            newKeyID,
			Name:             current.Name,
			KeyHash:          hash,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
			RotatedFromKeyID: &rotatedFrom,
		}

		if err := s.repo.Insert(ctx, tx, next); err != nil {
			return err
		}

		result = &apikeydomain.SecretResponse{KeyID: next.KeyID, APIKey: plain}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, orgID, "api_key.rotated", result.KeyID, map[string]any{"rotated_from": trimmed})
	return result, nil
}

func (s *Service) Revoke(ctx context.Context, keyID string) error {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	trimmed := strings.TrimSpace(keyID)
	if trimmed == "" {
		return apikeydomain.ErrInvalidKeyID
	}

	key, err := s.repo.FindByKeyID(ctx, s.db, orgID, trimmed)
	if err != nil {
		return err
	}
	if key == nil {
		return apikeydomain.ErrNotFound
	}

	now := s.now()
	key.IsActive = false
	key.UpdatedAt = now
	if key.ExpiresAt == nil || key.ExpiresAt.After(now) {
		key.ExpiresAt = &now
	}
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		return err
	}

	s.emitAudit(ctx, orgID, "api_key.revoked", key.KeyID, nil)
	return nil
}

func (s *Service) Authenticate(ctx context.Context, secret string) (*apikeydomain.Principal, error) {
	secret = strings.TrimSpace(secret)
	if !apikeydomain.LooksLikeSecret(secret) {
		return nil, apikeydomain.ErrUnauthenticated
	}

	hash := apikeydomain.HashAPIKey(secret)
	key, err := s.repo.FindByHash(ctx, s.db, hash)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if key == nil || subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 || !key.Usable(now) {
		return nil, apikeydomain.ErrUnauthenticated
	}

	member, err := s.members.FindMember(ctx, key.OrgID, key.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apikeydomain.ErrUnauthenticated
	}

	if err := s.repo.TouchLastUsed(ctx, s.db, key.ID, now); err != nil {
		s.log.Debug("last_used_at not updated", zap.String("key_id", key.KeyID), zap.Error(err))
	}

	return &apikeydomain.Principal{KeyID: key.ID, OrgID: key.OrgID, UserID: key.UserID}, nil
}

func (s *Service) Register(ctx context.Context, orgID, userID snowflake.ID, name, secret string) error {
	secret = strings.TrimSpace(secret)
	if !apikeydomain.LooksLikeSecret(secret) {
		return fmt.Errorf("api key must start with %q", apikeydomain.SecretPrefix)
	}
	hash := apikeydomain.HashAPIKey(secret)
	existing, err := s.repo.FindByHash(ctx, s.db, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.now()
	id := s.genID.Generate()
	return s.repo.Insert(ctx, s.db, &apikeydomain.APIKey{
		ID:        id,
		OrgID:     orgID,
		UserID:    userID,
		KeyID:     newKeyID(id),
		Name:      strings.TrimSpace(name),
		KeyHash:   hash,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// resolveUser defaults to the calling member and checks membership.
func (s *Service) resolveUser(ctx context.Context, orgID snowflake.ID, raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		actorType, actorID := auditcontext.ActorFromContext(ctx)
		if actorType != auditcontext.ActorTypeUser {
			return 0, apikeydomain.ErrInvalidUser
		}
		raw = actorID
	}
	userID, err := snowflake.ParseString(raw)
	if err != nil || userID == 0 {
		return 0, apikeydomain.ErrInvalidUser
	}
	member, err := s.members.FindMember(ctx, orgID, userID)
	if err != nil {
		return 0, err
	}
	if member == nil {
		return 0, apikeydomain.ErrInvalidUser
	}
	return userID, nil
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, apikeydomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) emitAudit(ctx context.Context, orgID snowflake.ID, action, keyID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, "api_key", &keyID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) toResponse(key *apikeydomain.APIKey) apikeydomain.Response {
	return apikeydomain.Response{
		KeyID:            key.KeyID,
		Name:             key.Name,
		UserID:           key.UserID.String(),
		IsActive:         key.IsActive,
		CreatedAt:        key.CreatedAt,
		LastUsedAt:       key.LastUsedAt,
		ExpiresAt:        key.ExpiresAt,
		RotatedFromKeyID: key.RotatedFromKeyID,
	}
}

func generateAPIKey(keyID string) (string, string, error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	secretPart := hex.EncodeToString(secret)
	trimmed := strings.TrimPrefix(keyID, "key_")
	plain := fmt.Sprintf("%s%s_%s", apikeydomain.SecretPrefix, strings.ToLower(trimmed), secretPart)
	return plain, apikeydomain.HashAPIKey(plain), nil
}

func newKeyID(id snowflake.ID) string {
	return "key_" + strings.ToUpper(strconv.FormatInt(int64(id), 36))
}

func ptrTime(value time.Time) *time.Time {
	return &value
}
