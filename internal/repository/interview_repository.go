package repository

import (
	"excel_interview_backend/internal/model"

	"gorm.io/gorm"
)

type InterviewRepository struct {
	DB *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{DB: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *InterviewRepository) WithTx(tx *gorm.DB) *InterviewRepository {
	return &InterviewRepository{DB: tx}
}

func (r *InterviewRepository) Create(session *model.InterviewSession) error {
	return r.DB.Create(session).Error
}

func (r *InterviewRepository) FindByID(id string) (*model.InterviewSession, error) {
	var s model.InterviewSession
	err := r.DB.Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByIDForUser scopes the lookup to the owning candidate so another
// user's session id behaves exactly like a missing one.
func (r *InterviewRepository) FindByIDForUser(id string, userID uint) (*model.InterviewSession, error) {
	var s model.InterviewSession
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *InterviewRepository) Update(session *model.InterviewSession) error {
	return r.DB.Save(session).Error
}

func (r *InterviewRepository) ListByUser(userID uint) ([]model.InterviewSession, error) {
	var sessions []model.InterviewSession
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&sessions).Error
	return sessions, err
}
