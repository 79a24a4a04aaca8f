package model

import (
	"encoding/json"
)

type QuestionCategory string

const (
	CategoryConceptual  QuestionCategory = "conceptual"
	CategoryPractical   QuestionCategory = "practical"
	CategoryExplanation QuestionCategory = "explanation"
	CategoryBehavioral  QuestionCategory = "behavioral"
)

// InterviewQuestion is one answered script item within a session. Created
// once per script position and marked completed, never revisited.
// swagger:model InterviewQuestion
type InterviewQuestion struct {
	UUIDBase
	SessionID     string           `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	QuestionIndex int              `gorm:"not null" json:"questionIndex"`
	Category      QuestionCategory `gorm:"type:enum('conceptual','practical','explanation','behavioral');not null" json:"category"`
	QuestionText  string           `gorm:"type:text;not null" json:"questionText"`
	UserAnswer    string           `gorm:"type:text" json:"userAnswer"`
	FilePath      string           `gorm:"size:255" json:"filePath,omitempty"`
	Score         *float64         `gorm:"type:decimal(5,2)" json:"score,omitempty"`
	Evaluation    json.RawMessage  `gorm:"type:json" json:"evaluation,omitempty"`
	Completed     bool             `gorm:"default:false" json:"completed"`
}

func (InterviewQuestion) TableName() string {
	return "interview_questions"
}
