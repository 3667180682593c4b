package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey stores a hashed credential that acts as one org member.
type APIKey struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	OrgID            snowflake.ID `gorm:"column:org_id;not null;uniqueIndex:ux_api_keys_org_key_id,priority:1"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	KeyID            string       `gorm:"column:key_id;type:text;not null;uniqueIndex:ux_api_keys_org_key_id,priority:2"`
	Name             string       `gorm:"type:text;not null"`
	KeyHash          string       `gorm:"column:key_hash;type:text;not null;uniqueIndex"`
	IsActive         bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time    `gorm:"not null"`
	UpdatedAt        time.Time    `gorm:"not null"`
	LastUsedAt       *time.Time   `gorm:"column:last_used_at"`
	ExpiresAt        *time.Time   `gorm:"column:expires_at"`
	RotatedFromKeyID *string      `gorm:"column:rotated_from_key_id;type:text"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// Usable reports whether the key may authenticate at now.
func (k *APIKey) Usable(now time.Time) bool {
	if k == nil || !k.IsActive {
		return false
	}
	return k.ExpiresAt == nil || k.ExpiresAt.After(now)
}

// SecretPrefix marks PeopleHub secrets so they are easy to spot in logs and
// secret scanners.
const SecretPrefix = "phk_live_"

// HashAPIKey is the stored form of a secret. Only the hash is persisted.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

// LooksLikeSecret rejects strings that cannot be ours before touching the store.
func LooksLikeSecret(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, SecretPrefix) && len(raw) > len(SecretPrefix)
}
