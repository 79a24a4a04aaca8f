package repository

import (
	"excel_interview_backend/internal/model"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: db}
}

func (r *EvaluationRepository) WithTx(tx *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: tx}
}

func (r *EvaluationRepository) Create(e *model.ExcelEvaluation) error {
	return r.DB.Create(e).Error
}

func (r *EvaluationRepository) FindByQuestion(questionID string) (*model.ExcelEvaluation, error) {
	var e model.ExcelEvaluation
	err := r.DB.Where("question_id = ?", questionID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
