package model

import (
	"encoding/json"
)

// ExcelEvaluation is the detail record behind a practical-task question:
// the spreadsheet inspector's sub-scores plus its structured findings.
// swagger:model ExcelEvaluation
type ExcelEvaluation struct {
	UUIDBase
	QuestionID      string          `gorm:"index;type:varchar(36);not null" json:"questionId"`
	FormulaAccuracy float64         `gorm:"type:decimal(5,2)" json:"formulaAccuracy"`
	Structure       float64         `gorm:"type:decimal(5,2)" json:"structure"`
	BestPractices   float64         `gorm:"type:decimal(5,2)" json:"bestPractices"`
	Details         json.RawMessage `gorm:"type:json" json:"details,omitempty"`
}

func (ExcelEvaluation) TableName() string {
	return "excel_evaluations"
}

// ExcelEvaluationDetails is the shape stored in Details.
type ExcelEvaluationDetails struct {
	FoundFormulas   []string `json:"foundFormulas"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

func (d ExcelEvaluationDetails) Marshal() json.RawMessage {
	b, _ := json.Marshal(d)
	return b
}
