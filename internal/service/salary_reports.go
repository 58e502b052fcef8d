package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// Stats aggregates the salaries matching req by calculated status.
// Pagination and the status filter are ignored.
func (s *SalaryService) Stats(ctx context.Context, req *ListSalariesRequest) (*salary.Stats, error) {
	scope := *req
	scope.Status = ""
	filter, err := s.buildFilter(&scope)
	if err != nil {
		return nil, err
	}

	records, _, err := s.store.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}

	stats := salary.Aggregate(records, s.clock.Now())
	return &stats, nil
}

// Analytics breaks a year of salaries down by month, branch and payment
// method. An empty year means the current one.
func (s *SalaryService) Analytics(ctx context.Context, pgID, branchID, year string) (*salary.Analytics, error) {
	if year == "" {
		year = fmt.Sprint(s.clock.Now().Year())
	}

	filter, err := s.buildFilter(&ListSalariesRequest{PGID: pgID, BranchID: branchID, Year: year})
	if err != nil {
		return nil, err
	}

	records, _, err := s.store.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}

	analytics := salary.Analyze(records, *filter.Year)
	return &analytics, nil
}

// MaintainerSummary totals the salary history of one maintainer
func (s *SalaryService) MaintainerSummary(ctx context.Context, pgID, maintainerID string) (*salary.MaintainerSummary, error) {
	if !validUUID(maintainerID) {
		return nil, errors.InvalidInput("maintainerId", "must be a valid id")
	}
	if _, err := s.maintainers.GetByID(ctx, maintainerID, pgID); err != nil {
		return nil, err
	}

	filter, err := s.buildFilter(&ListSalariesRequest{PGID: pgID, MaintainerID: maintainerID})
	if err != nil {
		return nil, err
	}

	records, _, err := s.store.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}

	summary := salary.SummarizeMaintainer(maintainerID, records, s.clock.Now())
	return &summary, nil
}

var exportHeaders = []string{
	"Period", "Maintainer", "Branch", "Base Salary", "Bonus", "Overtime",
	"Gross Salary", "Deductions", "Net Salary", "Paid", "Pending", "Status", "Payments",
}

// ExportSalaries renders the salaries matching req as an XLSX workbook.
// Pagination is ignored.
func (s *SalaryService) ExportSalaries(ctx context.Context, req *ListSalariesRequest) (*excelize.File, error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	records, _, err := s.store.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	maintainerName := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := id
		if m, err := s.maintainers.GetByID(ctx, id, req.PGID); err == nil {
			name = m.Name
		} else {
			s.log.Debug().Err(err).Str("maintainer_id", id).Msg("Export: maintainer lookup failed")
		}
		names[id] = name
		return name
	}

	now := s.clock.Now()
	f := excelize.NewFile()
	sheet := "Salaries"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, rec := range records {
		row := []any{
			rec.Period(),
			maintainerName(rec.MaintainerID),
			rec.BranchID,
			rec.BaseSalary.InexactFloat64(),
			rec.Bonus.InexactFloat64(),
			rec.Overtime.Amount.InexactFloat64(),
			rec.GrossSalary.InexactFloat64(),
			rec.TotalDeductions.InexactFloat64(),
			rec.NetSalary.InexactFloat64(),
			rec.PaidAmount.InexactFloat64(),
			rec.PendingAmount.InexactFloat64(),
			string(rec.DisplayStatus(now)),
			len(rec.Payments),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to write export row")
		}
	}

	stats := salary.Aggregate(records, now)
	totalRow := len(records) + 3
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	totals := []any{
		"Total", fmt.Sprintf("%d salaries", stats.TotalCount), "", "", "", "", "", "",
		stats.TotalAmount.InexactFloat64(),
		stats.TotalPaid.InexactFloat64(),
		stats.TotalPending.InexactFloat64(),
	}
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to write export totals")
	}
	end, _ := excelize.CoordinatesToCellName(len(exportHeaders), totalRow)
	f.SetCellStyle(sheet, cell, end, totalStyle)

	return f, nil
}
