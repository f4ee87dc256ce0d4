package repository

import (
	"gorm.io/gorm"

	"pdfqa/internal/model"
)

type AnswerRecordRepository struct {
	db *gorm.DB
}

func NewAnswerRecordRepository(db *gorm.DB) *AnswerRecordRepository {
	return &AnswerRecordRepository{db: db}
}

func (r *AnswerRecordRepository) Create(rec *model.AnswerRecord) error {
	return r.db.Create(rec).Error
}

func (r *AnswerRecordRepository) ListBySessionID(sessionID string, limit int) ([]model.AnswerRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []model.AnswerRecord
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
