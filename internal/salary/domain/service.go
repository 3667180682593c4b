package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, structure *SalaryStructure) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*SalaryStructure, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListRequest) ([]SalaryStructure, error)
}

// ComponentInput accepts either an annual or a monthly figure as a decimal
// string. Annual wins when both are present.
type ComponentInput struct {
	Label       string `json:"label"`
	Category    string `json:"category"`
	Annual      string `json:"annual,omitempty"`
	Monthly     string `json:"monthly,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
}

type CreateRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Components  []ComponentInput `json:"components"`
}

type ListRequest struct {
	Name string
}

type Response struct {
	ID          string      `json:"id"`
	OrgID       string      `json:"organization_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Components  []Component `json:"components"`
	Totals      Totals      `json:"totals"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	// Snapshot copies the structure's components and totals for attaching
	// to an offer.
	Snapshot(ctx context.Context, id string) (*Snapshot, error)
	// SnapshotFromComponents builds a snapshot from inline components.
	SnapshotFromComponents(ctx context.Context, components []ComponentInput) (*Snapshot, error)
	ExportBreakdown(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidComponents   = errors.New("invalid_components")
	ErrInvalidLabel        = errors.New("invalid_component_label")
	ErrInvalidCategory     = errors.New("invalid_component_category")
	ErrInvalidAmount       = errors.New("invalid_component_amount")
	ErrNotFound            = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

// ParseComponents validates inputs and converts monthly figures to annual.
func ParseComponents(inputs []ComponentInput) ([]Component, error) {
	if len(inputs) == 0 {
		return nil, ErrInvalidComponents
	}
	out := make([]Component, 0, len(inputs))
	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, ErrInvalidLabel
		}
		category := Category(strings.ToUpper(strings.TrimSpace(in.Category)))
		if !category.Valid() {
			return nil, ErrInvalidCategory
		}
		annual, err := parseAnnual(in)
		if err != nil {
			return nil, err
		}
		out = append(out, Component{
			Label:       label,
			Category:    category,
			Annual:      annual,
			DisplayText: strings.TrimSpace(in.DisplayText),
		})
	}
	return out, nil
}

func parseAnnual(in ComponentInput) (decimal.Decimal, error) {
	annual := strings.TrimSpace(in.Annual)
	monthly := strings.TrimSpace(in.Monthly)

	var amount decimal.Decimal
	switch {
	case annual != "":
		v, err := decimal.NewFromString(annual)
		if err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		amount = v
	case monthly != "":
		v, err := decimal.NewFromString(monthly)
		if err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		amount = v.Mul(monthsPerYear)
	default:
		amount = decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
