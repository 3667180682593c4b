// Package mapping turns an applicant, caller overrides and a salary snapshot
// into the placeholder dictionary used by letter templates.
package mapping

import (
	"fmt"
	"strings"
	"time"

	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
)

// Version identifies the key set below. Bump it when keys are renamed or
// removed; adding keys is compatible.
const Version = 1

var commonKeys = []string{
	"letter_date",
	"company_name",
	"hr_name",
	"application_id",
	"candidate_name",
	"employee_name",
	"email",
	"phone",
	"address",
	"designation",
	"job_title",
	"department",
	"work_location",
	"employment_type",
	"joining_date",
}

var typeKeys = map[letterdomain.LetterType][]string{
	letterdomain.LetterTypeOffer:   {"offer_valid_until"},
	letterdomain.LetterTypeJoining: {"employee_code"},
}

// Salary keys are derived from the snapshot only and ignore overrides.
var aggregateKeys = []string{
	"gross_monthly",
	"gross_annual",
	"total_deductions_monthly",
	"total_deductions_annual",
	"net_monthly",
	"net_annual",
	"employer_benefits_monthly",
	"employer_benefits_annual",
	"ctc_monthly",
	"ctc_annual",
}

// Keys lists the fixed keys for a letter type in output order. Component keys
// follow them at render time.
func Keys(letterType letterdomain.LetterType) []string {
	keys := make([]string, 0, len(commonKeys)+2+len(aggregateKeys))
	keys = append(keys, commonKeys...)
	keys = append(keys, typeKeys[letterType]...)
	return append(keys, aggregateKeys...)
}

// ApplicantView is the entity data a letter can draw on.
type ApplicantView struct {
	LetterType     letterdomain.LetterType
	ApplicationID  string
	CandidateName  string
	Email          string
	Phone          string
	Address        string
	Designation    string
	JobTitle       string
	Department     string
	Location       string
	EmploymentType string
	EmployeeCode   string
	JoiningDate    *time.Time
	ValidUntil     *time.Time
}

type Options struct {
	Formatter  salarydomain.Formatter
	DateLayout string
	// Defaults are used when neither an override nor the entity has a value.
	Defaults map[string]string
	// KeepBlankOverrides makes a present but blank override win over the
	// entity value and the default.
	KeepBlankOverrides bool
	Now                func() time.Time
}

type Mapper struct {
	opts Options
}

func New(opts Options) *Mapper {
	if opts.DateLayout == "" {
		opts.DateLayout = "02 Jan 2006"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Mapper{opts: opts}
}

// MapToPlaceholders resolves every key as override, then entity field, then
// default. Blank overrides count as missing unless KeepBlankOverrides is set.
func (m *Mapper) MapToPlaceholders(applicant ApplicantView, overrides map[string]any, snapshot *salarydomain.Snapshot) (Placeholders, error) {
	if snapshot == nil {
		return Placeholders{}, apperr.DataIncomplete("salary_snapshot", "salary snapshot is required to render the letter")
	}
	if !applicant.LetterType.Valid() {
		return Placeholders{}, fmt.Errorf("unknown letter type %q", applicant.LetterType)
	}

	entity := m.entityValues(applicant)
	out := newPlaceholders()
	keys := append(append([]string{}, commonKeys...), typeKeys[applicant.LetterType]...)
	for _, key := range keys {
		out.set(key, m.resolve(key, overrides, entity))
	}

	f := m.opts.Formatter
	totals := snapshot.Totals
	out.set("gross_monthly", f.FormatAmount(totals.MonthlyGross))
	out.set("gross_annual", f.FormatAmount(totals.GrossEarnings))
	out.set("total_deductions_monthly", f.FormatAmount(salarydomain.Monthly(totals.TotalDeductions)))
	out.set("total_deductions_annual", f.FormatAmount(totals.TotalDeductions))
	out.set("net_monthly", f.FormatAmount(totals.MonthlyNet))
	out.set("net_annual", f.FormatAmount(totals.NetSalary))
	out.set("employer_benefits_monthly", f.FormatAmount(salarydomain.Monthly(totals.EmployerBenefitsTotal)))
	out.set("employer_benefits_annual", f.FormatAmount(totals.EmployerBenefitsTotal))
	out.set("ctc_monthly", f.FormatAmount(totals.MonthlyCTC))
	out.set("ctc_annual", f.FormatAmount(totals.AnnualCTC))

	for _, group := range [][]salarydomain.Component{snapshot.Earnings, snapshot.Deductions, snapshot.Benefits} {
		for _, c := range group {
			label := salarydomain.NormalizeLabel(c.Label)
			if label == "" {
				continue
			}
			out.set(label+"_monthly", f.FormatComponent(c, c.Monthly()))
			out.set(label+"_annual", f.FormatComponent(c, c.Annual))
		}
	}
	return out, nil
}

func (m *Mapper) entityValues(a ApplicantView) map[string]string {
	return map[string]string{
		"letter_date":       m.opts.Now().UTC().Format(m.opts.DateLayout),
		"application_id":    a.ApplicationID,
		"candidate_name":    a.CandidateName,
		"employee_name":     a.CandidateName,
		"email":             a.Email,
		"phone":             a.Phone,
		"address":           a.Address,
		"designation":       firstNonBlank(a.Designation, a.JobTitle),
		"job_title":         a.JobTitle,
		"department":        a.Department,
		"work_location":     a.Location,
		"employment_type":   a.EmploymentType,
		"joining_date":      m.formatDate(a.JoiningDate),
		"offer_valid_until": m.formatDate(a.ValidUntil),
		"employee_code":     a.EmployeeCode,
	}
}

func (m *Mapper) resolve(key string, overrides map[string]any, entity map[string]string) string {
	if v, ok := overrides[key]; ok {
		s := m.coerce(v)
		if strings.TrimSpace(s) != "" {
			return s
		}
		if m.opts.KeepBlankOverrides {
			return ""
		}
	}
	if s := entity[key]; strings.TrimSpace(s) != "" {
		return s
	}
	return m.opts.Defaults[key]
}

func (m *Mapper) coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.UTC().Format(m.opts.DateLayout)
	case *time.Time:
		return m.formatDate(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (m *Mapper) formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(m.opts.DateLayout)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
