package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/payments-service/internal/model"
)

const summarySheet = "Summary"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes the ranking into a single sheet workbook: report metadata
// on top, then one row per key in ranking order.
func (g *Generator) Generate(report model.RankingReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.RankingReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	total := int64(0)
	for _, row := range report.Rows {
		total += row.AmountPaid
	}

	set("A1", "Report")
	set("B1", reportTitle(report))
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Total paid")
	set("B4", total)

	tableRow := 6
	set(fmt.Sprintf("A%d", tableRow), "Rank")
	set(fmt.Sprintf("B%d", tableRow), string(report.Attribute))
	set(fmt.Sprintf("C%d", tableRow), "amountPaid")

	for i, row := range report.Rows {
		line := tableRow + 1 + i
		set(fmt.Sprintf("A%d", line), i+1)
		set(fmt.Sprintf("B%d", line), row.Key)
		set(fmt.Sprintf("C%d", line), row.AmountPaid)
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	headerEnd, _ := excelize.CoordinatesToCellName(3, tableRow)
	if err := file.SetCellStyle(sheet, fmt.Sprintf("A%d", tableRow), headerEnd, style); err != nil {
		return err
	}

	_ = file.SetColWidth(sheet, "A", "A", 16)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "C", "C", 16)
	return nil
}

func reportTitle(report model.RankingReport) string {
	side := "contractor"
	if report.Role == model.ReportRoleClient {
		side = "client"
	}
	return fmt.Sprintf("Best %s by %s", side, strings.TrimSpace(string(report.Attribute)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
