package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is an immutable copy of a structure's components with totals.
// Once attached to an offer it is only ever read.
type Snapshot struct {
	StructureID   string      `json:"structure_id,omitempty"`
	StructureName string      `json:"structure_name,omitempty"`
	Earnings      []Component `json:"earnings"`
	Deductions    []Component `json:"deductions"`
	Benefits      []Component `json:"employer_benefits"`
	Totals        Totals      `json:"totals"`
	CapturedAt    time.Time   `json:"captured_at"`
}

// NewSnapshot splits components and computes totals once.
func NewSnapshot(structureID, name string, components []Component, capturedAt time.Time) Snapshot {
	earnings, deductions, benefits := Split(components)
	return Snapshot{
		StructureID:   structureID,
		StructureName: name,
		Earnings:      nonNil(earnings),
		Deductions:    nonNil(deductions),
		Benefits:      nonNil(benefits),
		Totals:        ComputeTotals(earnings, deductions, benefits),
		CapturedAt:    capturedAt.UTC(),
	}
}

func (s Snapshot) Components() []Component {
	out := make([]Component, 0, len(s.Earnings)+len(s.Deductions)+len(s.Benefits))
	out = append(out, s.Earnings...)
	out = append(out, s.Deductions...)
	return append(out, s.Benefits...)
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot returns nil for empty or null payloads.
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func nonNil(components []Component) []Component {
	if components == nil {
		return []Component{}
	}
	return components
}
