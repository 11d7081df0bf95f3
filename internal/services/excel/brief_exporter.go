// Package excel exports a campaign brief as a spreadsheet.
package excel

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

const (
	SheetBrief    = "Brief"
	SheetProducts = "Products"
	SheetPersonas = "Personas"
	SheetContent  = "Content"
	SheetCanvas   = "Canvas"
)

// BriefExporter writes the bundle of an editing session to a workbook
type BriefExporter struct {
	now func() time.Time
}

func NewBriefExporter() *BriefExporter {
	return &BriefExporter{now: time.Now}
}

// Filename is the download name of a brief
func (e *BriefExporter) Filename(sessionID string) string {
	return fmt.Sprintf("campaign_brief_%s_%d.xlsx", sessionID, e.now().Unix())
}

// Export renders the brief. The refreshed records are preferred over the
// canvas snapshots when the review stage has been reached.
func (e *BriefExporter) Export(b wizard.Bundle, g canvas.CampaignGraph) (*bytes.Buffer, error) {
	summary := b.Summary()
	if b.Rehydrated != nil {
		summary = *b.Rehydrated
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetBrief); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeTable(f, SheetBrief, headerStyle, []string{"field", "value"}, briefRows(b, summary.CompanyInfo)); err != nil {
		return nil, err
	}

	products := make([][]interface{}, 0, len(summary.Products))
	for _, p := range summary.Products {
		products = append(products, []interface{}{p.CanvasID, p.ID, p.Name, p.Description, p.Category, p.Price})
	}
	if err := writeSheet(f, SheetProducts, headerStyle,
		[]string{"canvas_id", "id", "name", "description", "category", "price"}, products); err != nil {
		return nil, err
	}

	personas := make([][]interface{}, 0, len(summary.Personas))
	for _, p := range summary.Personas {
		personas = append(personas, []interface{}{p.CanvasID, p.ID, p.Name, p.Description, p.AgeRange, p.Occupation, p.Goals, p.PainPoints})
	}
	if err := writeSheet(f, SheetPersonas, headerStyle,
		[]string{"canvas_id", "id", "name", "description", "age_range", "occupation", "goals", "pain_points"}, personas); err != nil {
		return nil, err
	}

	content := make([][]interface{}, 0, len(summary.Content))
	for _, c := range summary.Content {
		content = append(content, []interface{}{c.CanvasID, c.ID, c.Name, c.Description, c.Format, c.Tone})
	}
	if err := writeSheet(f, SheetContent, headerStyle,
		[]string{"canvas_id", "id", "name", "description", "format", "tone"}, content); err != nil {
		return nil, err
	}

	nodes := make([][]interface{}, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, []interface{}{n.ID, string(n.Kind), n.DisplayName, n.SourceRef, n.Position.X, n.Position.Y, targetsOf(g, n.ID)})
	}
	if err := writeSheet(f, SheetCanvas, headerStyle,
		[]string{"id", "kind", "name", "source_ref", "x", "y", "connected_to"}, nodes); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func briefRows(b wizard.Bundle, company *extraction.CompanyInfo) [][]interface{} {
	rows := [][]interface{}{
		{"organization_id", b.SelectedOrganizationID},
	}
	if company != nil {
		rows = append(rows,
			[]interface{}{"company", company.Name},
			[]interface{}{"industry", company.Industry},
			[]interface{}{"mission", company.Mission},
			[]interface{}{"vision", company.Vision},
			[]interface{}{"objectives", company.Objectives},
			[]interface{}{"purpose", company.Purpose},
		)
	}
	specs := make([]string, 0, len(b.SelectedSpecs))
	for _, s := range b.SelectedSpecs {
		specs = append(specs, fmt.Sprintf("%s:%s", s.Channel, s.ID))
	}
	rows = append(rows,
		[]interface{}{"media", strings.Join(b.SelectedMedia, ", ")},
		[]interface{}{"specs", strings.Join(specs, ", ")},
		[]interface{}{"correlation_id", b.CorrelationID},
		[]interface{}{"generated_asset", b.GeneratedAssetURL},
	)
	if b.SubmittedAt != nil {
		rows = append(rows, []interface{}{"submitted_at", b.SubmittedAt.UTC().Format(time.RFC3339)})
	}
	return rows
}

func targetsOf(g canvas.CampaignGraph, id string) string {
	var out []string
	for _, e := range g.Edges {
		if e.SourceID == id {
			out = append(out, e.TargetID)
		}
	}
	return strings.Join(out, ", ")
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, columns []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return writeTable(f, sheet, headerStyle, columns, rows)
}

func writeTable(f *excelize.File, sheet string, headerStyle int, columns []string, rows [][]interface{}) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header %s: %w", col, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	for i, col := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := 20.0
		switch col {
		case "description", "value", "goals", "pain_points":
			width = 50.0
		case "name", "source_ref", "connected_to":
			width = 30.0
		case "x", "y":
			width = 10.0
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, sheet, err)
		}
	}
	return nil
}
