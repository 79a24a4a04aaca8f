package service

import (
	"excel_interview_backend/internal/util"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateSalesAnalysisTemplate(t *testing.T) {
	svc := NewTemplateService(t.TempDir())

	path, name, err := svc.Generate("sales_analysis")
	require.NoError(t, err)
	defer os.Remove(path)
	require.Equal(t, "sales_analysis_task.xlsx", name)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "Raw Data")
	require.Contains(t, sheets, "Instructions")
	require.Contains(t, sheets, "Expected Structure")
	require.NotContains(t, sheets, "Sheet1")

	rows, err := f.GetRows("Raw Data")
	require.NoError(t, err)
	require.Greater(t, len(rows), 1, "raw data sheet should carry sample rows")
	require.Equal(t, "Date", rows[0][0])
}

func TestGenerateDataCleaningTemplate(t *testing.T) {
	svc := NewTemplateService(t.TempDir())

	path, name, err := svc.Generate("data_cleaning")
	require.NoError(t, err)
	defer os.Remove(path)
	require.Equal(t, "data_cleaning_task.xlsx", name)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "Customer Data")
	require.Contains(t, sheets, "Cleanup Instructions")

	rows, err := f.GetRows("Customer Data")
	require.NoError(t, err)
	// The sample data must actually be messy: C-002 appears twice.
	ids := make(map[string]int)
	for _, row := range rows[1:] {
		ids[row[0]]++
	}
	require.Greater(t, ids["C-002"], 1, "expected duplicated customer rows")
}

func TestGenerateUnknownTemplate(t *testing.T) {
	svc := NewTemplateService(t.TempDir())

	_, _, err := svc.Generate("pivot_mastery")
	require.ErrorIs(t, err, util.ErrTemplateNotFound)
}
