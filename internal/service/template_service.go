package service

import (
	"excel_interview_backend/internal/util"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// TemplateService authors the fixed-content practical-task workbooks handed
// to candidates. Templates are generated on demand and saved to a temp
// file; the caller is responsible for deleting the file after sending it.
type TemplateService struct {
	TempDir string
}

func NewTemplateService(tempDir string) *TemplateService {
	return &TemplateService{TempDir: tempDir}
}

// Generate builds the named template and saves it under TempDir. It returns
// the temp file path and the download filename.
func (s *TemplateService) Generate(templateType string) (string, string, error) {
	var (
		f    *excelize.File
		name string
		err  error
	)

	switch templateType {
	case "sales_analysis":
		f, err = buildSalesAnalysisTemplate()
		name = "sales_analysis_task.xlsx"
	case "data_cleaning":
		f, err = buildDataCleaningTemplate()
		name = "data_cleaning_task.xlsx"
	default:
		return "", "", util.ErrTemplateNotFound
	}
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	tmp, err := os.CreateTemp(s.TempDir, "template-*.xlsx")
	if err != nil {
		return "", "", err
	}
	tmp.Close()

	if err := f.SaveAs(tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}
	return filepath.Clean(tmp.Name()), name, nil
}

var salesRows = [][]interface{}{
	{"Date", "Region", "Product", "Units", "Unit Price"},
	{"2026-01-05", "North", "Laptop", 12, 950.00},
	{"2026-01-07", "South", "Monitor", 30, 180.50},
	{"2026-01-12", "North", "Keyboard", 45, 35.00},
	{"2026-01-15", "East", "Laptop", 8, 950.00},
	{"2026-01-18", "West", "Monitor", 22, 180.50},
	{"2026-01-21", "South", "Laptop", 15, 950.00},
	{"2026-01-24", "East", "Keyboard", 60, 35.00},
	{"2026-01-27", "West", "Docking Station", 18, 120.00},
	{"2026-01-30", "North", "Monitor", 25, 180.50},
	{"2026-02-02", "South", "Docking Station", 10, 120.00},
}

func buildSalesAnalysisTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet("Raw Data"); err != nil {
		return nil, err
	}
	for r, row := range salesRows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue("Raw Data", cell, v); err != nil {
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet("Instructions"); err != nil {
		return nil, err
	}
	instructions := []string{
		"Sales Analysis Task (20 minutes)",
		"",
		"1. Create an 'Analysis' sheet.",
		"2. Total the revenue (Units * Unit Price) per region using SUMIFS.",
		"3. Build a product price lookup using XLOOKUP or INDEX/MATCH.",
		"4. Create a 'Summary' sheet with the best-selling region and product.",
		"5. Keep the 'Raw Data' sheet untouched and upload the workbook.",
	}
	for i, line := range instructions {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue("Instructions", cell, line); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("Expected Structure"); err != nil {
		return nil, err
	}
	expected := []string{"Raw Data", "Analysis", "Summary"}
	if err := f.SetCellValue("Expected Structure", "A1", "Your workbook should contain these sheets:"); err != nil {
		return nil, err
	}
	for i, name := range expected {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetCellValue("Expected Structure", cell, name); err != nil {
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}

var customerRows = [][]interface{}{
	{"Customer ID", "Name", "Email", "Signup Date", "City"},
	{"C-001", "alice JOHNSON", "ALICE@example.com", "2025-03-14", "Berlin"},
	{"C-002", "Bob Smith", "bob@example.com", "14/03/2025", "berlin"},
	{"C-002", "Bob Smith", "bob@example.com", "14/03/2025", "berlin"},
	{"C-003", " carol white ", "carol@EXAMPLE.com", "2025-04-02", "Munich"},
	{"C-004", "dan BROWN", "", "02.04.2025", "MUNICH"},
	{"C-005", "Erin Green", "erin@example.com", "2025-05-19", "Hamburg"},
	{"C-005", "erin green", "erin@example.com", "2025-05-19", "hamburg"},
}

func buildDataCleaningTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet("Customer Data"); err != nil {
		return nil, err
	}
	for r, row := range customerRows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue("Customer Data", cell, v); err != nil {
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet("Cleanup Instructions"); err != nil {
		return nil, err
	}
	instructions := []string{
		"Data Cleaning Task (15 minutes)",
		"",
		"1. Create a 'Clean Data' sheet.",
		"2. Remove duplicate customers (same Customer ID).",
		"3. Normalise names to Title Case and trim whitespace (PROPER, TRIM).",
		"4. Lowercase all email addresses (LOWER).",
		"5. Convert every signup date to ISO format (YYYY-MM-DD).",
		"6. Keep the original 'Customer Data' sheet untouched and upload the workbook.",
	}
	for i, line := range instructions {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue("Cleanup Instructions", cell, line); err != nil {
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}
