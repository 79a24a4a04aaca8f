package repository

import (
	"excel_interview_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

func (r *QuestionRepository) Create(q *model.InterviewQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) ListBySession(sessionID string) ([]model.InterviewQuestion, error) {
	var qs []model.InterviewQuestion
	err := r.DB.Where("session_id = ?", sessionID).Order("question_index asc").Find(&qs).Error
	return qs, err
}
