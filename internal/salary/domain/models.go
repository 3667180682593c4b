package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SalaryStructure is a named, org-scoped list of components.
type SalaryStructure struct {
	ID          snowflake.ID                   `gorm:"primaryKey"`
	OrgID       snowflake.ID                   `gorm:"not null;index"`
	Name        string                         `gorm:"type:text;not null"`
	Description string                         `gorm:"type:text"`
	Components  datatypes.JSONSlice[Component] `gorm:"type:json;not null"`
	CreatedAt   time.Time                      `gorm:"not null"`
	UpdatedAt   time.Time                      `gorm:"not null"`
}

func (SalaryStructure) TableName() string { return "salary_structures" }
