// Package report renders approval queues as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// PendingSheet is the worksheet name of the pending approvals export
const PendingSheet = "Pending Approvals"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var pendingHeaders = []string{"Expense ID", "Step", "Amount", "Currency", "Category", "Submitted", "Status"}

// PendingExporter writes an approver's queue to an XLSX workbook
type PendingExporter struct {
	logger *zap.Logger
}

// NewPendingExporter creates a PendingExporter
func NewPendingExporter(logger *zap.Logger) *PendingExporter {
	return &PendingExporter{logger: logger}
}

// Write renders one row per approval, in the order given. Approvals must
// carry their expense.
func (p *PendingExporter) Write(w io.Writer, approvals []*entity.Approval) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PendingSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := p.writeHeader(f); err != nil {
		return err
	}

	for i, a := range approvals {
		if a.Expense == nil {
			return fmt.Errorf("approval %d has no expense attached", a.ID)
		}
		row := i + 2
		e := a.Expense

		p.setCell(f, row, 1, e.ID)
		p.setCell(f, row, 2, a.Sequence)
		p.setCell(f, row, 3, e.Amount.InexactFloat64())
		p.setCell(f, row, 4, e.Currency)
		p.setCell(f, row, 5, e.Category)
		p.setCell(f, row, 6, e.CreatedAt.Format("2006-01-02"))
		p.setCell(f, row, 7, a.Status.String())
	}

	if err := f.SetColWidth(PendingSheet, "A", "G", 16); err != nil {
		p.logger.Warn("Failed to set column width", zap.Error(err))
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	p.logger.Info("Pending approvals exported", zap.Int("rows", len(approvals)))
	return nil
}

func (p *PendingExporter) writeHeader(f *excelize.File) error {
	for col, h := range pendingHeaders {
		p.setCell(f, 1, col+1, h)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(pendingHeaders), 1)
	if err := f.SetCellStyle(PendingSheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func (p *PendingExporter) setCell(f *excelize.File, row, col int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		p.logger.Warn("Invalid cell coordinates", zap.Int("row", row), zap.Int("col", col), zap.Error(err))
		return
	}
	if err := f.SetCellValue(PendingSheet, cell, value); err != nil {
		p.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// WritePendingApprovals renders approvals with a no-op logger
func WritePendingApprovals(w io.Writer, approvals []*entity.Approval) error {
	return NewPendingExporter(zap.NewNop()).Write(w, approvals)
}
