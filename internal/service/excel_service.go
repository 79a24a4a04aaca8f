package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WorkbookEvaluation holds the spreadsheet inspector's verdict on an
// uploaded workbook.
type WorkbookEvaluation struct {
	FormulaAccuracy float64  `json:"formulaAccuracy"`
	Structure       float64  `json:"structure"`
	BestPractices   float64  `json:"bestPractices"`
	Overall         float64  `json:"overall"`
	FoundFormulas   []string `json:"foundFormulas"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Inspector is the spreadsheet-evaluation capability used by the flow
// controller; tests substitute a stub.
type Inspector interface {
	EvaluateWorkbook(path string, expectedSheets []string, taskType TaskType) (*WorkbookEvaluation, error)
}

// ExcelService inspects uploaded workbooks with fixed keyword and structure
// heuristics. Every sub-score starts from a 60 baseline and is clamped to
// [0,100] after bonuses and penalties.
type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

const scoreBaseline = 60

func (s *ExcelService) EvaluateWorkbook(path string, expectedSheets []string, taskType TaskType) (*WorkbookEvaluation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	eval := &WorkbookEvaluation{
		FoundFormulas:   []string{},
		Issues:          []string{},
		Recommendations: []string{},
	}

	sheets := f.GetSheetList()
	sheetSet := make(map[string]bool, len(sheets))
	for _, name := range sheets {
		sheetSet[name] = true
	}

	dataRows := 0
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) > 1 {
			dataRows += len(rows) - 1
		}
		for r := range rows {
			for c := range rows[r] {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					continue
				}
				formula, err := f.GetCellFormula(sheet, cell)
				if err == nil && formula != "" {
					eval.FoundFormulas = append(eval.FoundFormulas, formula)
				}
			}
		}
	}

	eval.Structure = s.scoreStructure(eval, sheetSet, taskType, dataRows, expectedSheets)
	eval.FormulaAccuracy = s.scoreFormulas(eval, taskType)
	eval.BestPractices = s.scoreBestPractices(eval, sheets)

	eval.Overall = math.Round(eval.FormulaAccuracy*0.5 + eval.Structure*0.3 + eval.BestPractices*0.2)
	return eval, nil
}

func (s *ExcelService) scoreStructure(eval *WorkbookEvaluation, sheetSet map[string]bool, taskType TaskType, dataRows int, expectedSheets []string) float64 {
	score := float64(scoreBaseline)

	for _, expected := range expectedSheets {
		if !sheetSet[expected] {
			score -= 20
			eval.Issues = append(eval.Issues, fmt.Sprintf("missing expected sheet %q", expected))
		}
	}

	if taskType == TaskSalesAnalysis {
		if dataRows >= 1 {
			score += 20
		} else {
			eval.Issues = append(eval.Issues, "no data rows found")
		}
	}

	return clampScore(score)
}

func (s *ExcelService) scoreFormulas(eval *WorkbookEvaluation, taskType TaskType) float64 {
	if len(eval.FoundFormulas) == 0 {
		eval.Issues = append(eval.Issues, "no formulas found in workbook")
		eval.Recommendations = append(eval.Recommendations, "Use formulas rather than hard-coded values")
		return 0
	}

	score := float64(scoreBaseline)
	joined := strings.ToUpper(strings.Join(eval.FoundFormulas, " "))

	if taskType == TaskSalesAnalysis {
		if strings.Contains(joined, "XLOOKUP") ||
			(strings.Contains(joined, "INDEX") && strings.Contains(joined, "MATCH")) {
			score += 15
		} else {
			eval.Recommendations = append(eval.Recommendations, "Use XLOOKUP or INDEX/MATCH for the price lookup")
		}
		if strings.Contains(joined, "SUMIFS") {
			score += 15
		} else {
			eval.Recommendations = append(eval.Recommendations, "Use SUMIFS for the per-region totals")
		}
	}

	return clampScore(score)
}

func (s *ExcelService) scoreBestPractices(eval *WorkbookEvaluation, sheets []string) float64 {
	score := float64(scoreBaseline)

	for _, name := range sheets {
		if strings.HasPrefix(name, "Sheet") {
			score -= 10
			eval.Issues = append(eval.Issues, fmt.Sprintf("default sheet name %q left in workbook", name))
			break
		}
	}

	if len(sheets) >= 2 {
		score += 10
	}

	longFormulas := 0
	usesIferror := false
	for _, formula := range eval.FoundFormulas {
		if len(formula) > 120 {
			longFormulas++
		}
		if strings.Contains(strings.ToUpper(formula), "IFERROR") {
			usesIferror = true
		}
		if strings.Count(strings.ToUpper(formula), "IF(") >= 3 {
			eval.Recommendations = append(eval.Recommendations, "Replace deeply nested IFs with a lookup table")
			score -= 10
		}
	}
	if longFormulas > 0 {
		score -= 10
		eval.Recommendations = append(eval.Recommendations, "Break very long formulas into helper columns")
	}
	if usesIferror {
		score += 10
	}

	return clampScore(score)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
