package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/xuri/excelize/v2"
)

var ErrNoRows = errors.New("failed to generate report, 0 employees were provided")

const (
	maxSheetName    = 31
	headerRow       = 1
	unassignedSheet = "Unassigned"
)

var headers = []string{"ID", "Name", "Email", "Mobile", "Designation", "Gender", "Course", "Created", "Status"}

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// ExcelRow holds the structured row for excel file.
type ExcelRow struct {
	ID          int64     `json:"id"`          // Sequential employee ID
	Name        string    `json:"name"`        // Full name
	Email       string    `json:"email"`       // Email address
	Mobile      string    `json:"mobile"`      // Mobile number
	Designation string    `json:"designation"` // Designation, also the sheet the row lands on
	Gender      string    `json:"gender"`      // Gender
	Courses     string    `json:"courses"`     // Comma separated course list
	CreatedAt   time.Time `json:"created_at"`  // Record creation time
	Active      bool      `json:"active"`      // Activity flag
}

// RowsFromEmployees converts rendered rows keeping their order.
func RowsFromEmployees(employees []models.Employee) []ExcelRow {
	rows := make([]ExcelRow, 0, len(employees))
	for _, emp := range employees {
		rows = append(rows, ExcelRow{
			ID:          int64(emp.ID),
			Name:        emp.Name,
			Email:       emp.Email,
			Mobile:      emp.Mobile.String(),
			Designation: string(emp.Designation),
			Gender:      string(emp.Gender),
			Courses:     emp.Courses.Join(),
			CreatedAt:   emp.CreatedAt.Time,
			Active:      emp.IsActive,
		})
	}
	return rows
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// GenerateExcelReport writes the rows into an xlsx workbook with one sheet per
// designation. Sheets appear in the order their designation first occurs and
// rows keep their input order within a sheet.
func GenerateExcelReport(rows []ExcelRow) (*bytes.Buffer, error) {
	var err error

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	var order []string
	rowsBySheet := make(map[string][]ExcelRow)
	for _, row := range rows {
		name := sheetName(row.Designation)
		if _, ok := rowsBySheet[name]; !ok {
			order = append(order, name)
		}
		rowsBySheet[name] = append(rowsBySheet[name], row)
	}

	gen := NewGenerator()
	defer gen.file.Close()

	if err = gen.addSheets(order, rowsBySheet); err != nil {
		return nil, fmt.Errorf("failed to add sheets: %w", err)
	}

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	// setup first sheet as active
	gen.file.SetActiveSheet(0)

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

func (g *Generator) addSheets(order []string, rowsBySheet map[string][]ExcelRow) error {
	var err error

	for idx, name := range order {
		sheetRows := rowsBySheet[name]

		if _, err = g.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to generate new sheet '%s': %w", name, err)
		}

		if err = g.setupSheet(name, idx, len(sheetRows)); err != nil {
			return fmt.Errorf("failed to setup sheet '%s': %w", name, err)
		}

		for i, row := range sheetRows {
			if err = g.addRow(name, i+headerRow+1, row); err != nil {
				return fmt.Errorf("failed to add row '%d': %w", i+headerRow+1, err)
			}
		}
	}
	return nil
}

// setupSheet writes the styled header row, sets column widths and wraps the
// data range in a table.
func (g *Generator) setupSheet(name string, index, rowCount int) error {
	var err error

	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))

	rowHeight := 20
	if err = g.file.SetRowHeight(name, headerRow, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(name, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	widths := map[string]float64{
		"A": 8, "B": 28, "C": 32, "D": 16, "E": 14, "F": 10, "G": 20, "H": 14, "I": 10, //nolint:mnd // const values for column width
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err = g.file.AddTable(name, &excelize.Table{
		Range:     fmt.Sprintf("A1:%s%d", lastCol, rowCount+headerRow),
		Name:      tableName(name, index),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

func (g *Generator) addRow(name string, rowNum int, row ExcelRow) error {
	status := "Inactive"
	if row.Active {
		status = "Active"
	}
	created := ""
	if !row.CreatedAt.IsZero() {
		created = row.CreatedAt.Format("02.01.2006")
	}

	rowData := []interface{}{
		row.ID,
		row.Name,
		row.Email,
		row.Mobile,
		row.Designation,
		row.Gender,
		row.Courses,
		created,
		status,
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(name, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// sheetName maps a designation to a valid sheet name.
func sheetName(designation string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(designation))
	if name == "" {
		return unassignedSheet
	}
	return truncateSheetName(name)
}

// tableName builds a table name excel accepts: letters, digits and underscores, unique per workbook.
func tableName(sheet string, index int) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, sheet)
	return fmt.Sprintf("table_%d_%s", index+1, clean)
}

// truncateSheetName truncates the given sheet name to a maximum of 31 runes.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > maxSheetName {
		runes := []rune(name)
		return string(runes[:maxSheetName])
	}
	return name
}
