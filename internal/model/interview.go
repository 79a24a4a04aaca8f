package model

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// InterviewSession is one candidate attempt at the fixed question script.
// CurrentQuestionIndex is -1 until the first user turn, then walks 0..TotalQuestions.
// swagger:model InterviewSession
type InterviewSession struct {
	UUIDBase
	UserID               uint          `gorm:"index;not null" json:"userId"`
	Status               SessionStatus `gorm:"type:enum('in_progress','completed','abandoned');default:'in_progress'" json:"status"`
	CurrentQuestionIndex int           `gorm:"default:-1" json:"currentQuestionIndex"`
	TotalQuestions       int           `gorm:"default:8" json:"totalQuestions"`

	// Populated by the completion routine only.
	OverallScore     *float64        `gorm:"type:decimal(5,2)" json:"overallScore,omitempty"`
	ConceptualScore  *float64        `gorm:"type:decimal(5,2)" json:"conceptualScore,omitempty"`
	PracticalScore   *float64        `gorm:"type:decimal(5,2)" json:"practicalScore,omitempty"`
	ExplanationScore *float64        `gorm:"type:decimal(5,2)" json:"explanationScore,omitempty"`
	BehavioralScore  *float64        `gorm:"type:decimal(5,2)" json:"behavioralScore,omitempty"`
	Strengths        json.RawMessage `gorm:"type:json" json:"strengths,omitempty"`
	Improvements     json.RawMessage `gorm:"type:json" json:"improvements,omitempty"`
	Recommendations  json.RawMessage `gorm:"type:json" json:"recommendations,omitempty"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// Progress reports how far along the script this session is, as a percentage.
func (s *InterviewSession) Progress() int {
	if s.TotalQuestions <= 0 {
		return 0
	}
	answered := s.CurrentQuestionIndex + 1
	if answered < 0 {
		answered = 0
	}
	if answered > s.TotalQuestions {
		answered = s.TotalQuestions
	}
	return answered * 100 / s.TotalQuestions
}
