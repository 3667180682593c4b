// Package compensation renders salary documents from stored snapshots: the
// annexure attached to an offer and monthly payslips for employees.
package compensation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/providers/pdf"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("compensation.service",
	fx.Provide(NewService),
)

type Document struct {
	FileName    string
	ContentType string
	Content     []byte
}

type PayslipRequest struct {
	EmployeeID string
	Period     string
	LOPDays    int
}

type Params struct {
	fx.In

	Log         *zap.Logger
	LetterCfg   *config.LetterConfigHolder
	Recruitment recruitmentdomain.Service
	PDF         pdf.Provider
	Clock       clock.Clock `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	letterCfg   *config.LetterConfigHolder
	recruitment recruitmentdomain.Service
	pdf         pdf.Provider
	clock       clock.Clock
}

func NewService(p Params) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		log:         p.Log.Named("compensation.service"),
		letterCfg:   p.LetterCfg,
		recruitment: p.Recruitment,
		pdf:         p.PDF,
		clock:       clk,
	}
}

// Payslip renders one month for an employee, prorating earnings for loss of pay.
func (s *Service) Payslip(ctx context.Context, req PayslipRequest) (*Document, error) {
	period, err := salarydomain.ParsePeriod(req.Period)
	if err != nil {
		return nil, apperr.Validation("period", "INVALID_PERIOD", "period must be YYYY-MM")
	}

	employee, snapshot, err := s.recruitment.LoadEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, apperr.DataIncomplete("salary_snapshot", "employee has no salary snapshot")
	}

	slip, err := salarydomain.ComputePayslip(*snapshot, period, req.LOPDays)
	if err != nil {
		return nil, apperr.Validation("lop_days", "INVALID_LOP_DAYS", "loss of pay days must be between 0 and the days in the month")
	}

	cfg := s.letterCfg.Get()
	f := salarydomain.Formatter{Locale: cfg.Locale, ZeroLabel: cfg.ZeroAmountLabel}
	data := pdf.PayslipData{
		CompanyName:     cfg.Defaults["company_name"],
		EmployeeName:    employee.FullName,
		EmployeeCode:    employee.EmployeeCode,
		Designation:     employee.Designation,
		Period:          slip.Period.Format("January 2006"),
		DaysInMonth:     slip.DaysInMonth,
		LOPDays:         slip.LOPDays,
		PayableDays:     slip.PayableDays,
		Earnings:        payslipRows(slip.Earnings, f),
		Deductions:      payslipRows(slip.Deductions, f),
		Gross:           f.FormatAmount(slip.Gross),
		TotalDeductions: f.FormatAmount(slip.TotalDeductions),
		Net:             f.FormatAmount(slip.Net),
	}

	reader, err := s.pdf.GeneratePayslip(ctx, data)
	if err != nil {
		return nil, apperr.ConversionFailure("generate payslip", err)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	s.log.Info("payslip rendered",
		zap.String("employee_id", employee.ID.String()),
		zap.String("period", slip.Period.Format(salarydomain.PeriodLayout)),
		zap.Int("lop_days", slip.LOPDays),
	)
	return &Document{
		FileName:    fmt.Sprintf("Payslip_%s_%s.pdf", employee.EmployeeCode, slip.Period.Format(salarydomain.PeriodLayout)),
		ContentType: pdf.ContentType,
		Content:     content,
	}, nil
}

// OfferAnnexure renders the compensation breakdown of an application's offer.
func (s *Service) OfferAnnexure(ctx context.Context, applicationID string) (*Document, error) {
	subject, err := s.recruitment.LoadLetterSubject(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if subject.Offer == nil || subject.Snapshot == nil {
		return nil, apperr.PreconditionNotMet(apperr.CodeSalarySnapshotRequired, "offer has no salary snapshot")
	}

	cfg := s.letterCfg.Get()
	f := salarydomain.Formatter{Locale: cfg.Locale, ZeroLabel: cfg.ZeroAmountLabel}
	snap := subject.Snapshot
	t := snap.Totals

	designation := strings.TrimSpace(subject.Offer.Designation)
	if designation == "" {
		designation = subject.Application.Designation
	}

	data := pdf.AnnexureData{
		CompanyName:   cfg.Defaults["company_name"],
		CandidateName: subject.Candidate.FullName,
		Designation:   designation,
		IssueDate:     s.clock.Now().UTC().Format(cfg.DateLayout),
		Sections: []pdf.AnnexureSection{
			{Title: "Earnings", Rows: annexureRows(snap.Earnings, f)},
			{Title: "Deductions", Rows: annexureRows(snap.Deductions, f)},
			{Title: "Employer Benefits", Rows: annexureRows(snap.Benefits, f)},
		},
		Totals: []pdf.Row{
			{Label: "Gross Earnings", Monthly: f.FormatAmount(t.MonthlyGross), Annual: f.FormatAmount(t.GrossEarnings)},
			{Label: "Net Salary", Monthly: f.FormatAmount(t.MonthlyNet), Annual: f.FormatAmount(t.NetSalary)},
			{Label: "Cost to Company", Monthly: f.FormatAmount(t.MonthlyCTC), Annual: f.FormatAmount(t.AnnualCTC)},
		},
	}

	reader, err := s.pdf.GenerateAnnexure(ctx, data)
	if err != nil {
		return nil, apperr.ConversionFailure("generate annexure", err)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return &Document{
		FileName:    fmt.Sprintf("Annexure_%s.pdf", subject.Application.ID.String()),
		ContentType: pdf.ContentType,
		Content:     content,
	}, nil
}

func payslipRows(lines []salarydomain.PayslipLine, f salarydomain.Formatter) []pdf.Row {
	rows := make([]pdf.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, pdf.Row{Label: l.Label, Monthly: f.FormatAmount(l.Amount)})
	}
	return rows
}

func annexureRows(components []salarydomain.Component, f salarydomain.Formatter) []pdf.Row {
	rows := make([]pdf.Row, 0, len(components))
	for _, c := range components {
		rows = append(rows, pdf.Row{
			Label:   c.Label,
			Monthly: f.FormatComponent(c, c.Monthly()),
			Annual:  f.FormatComponent(c, c.Annual),
		})
	}
	return rows
}
