package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
)

type ExamReportRepository struct {
	DB *gorm.DB
}

func NewExamReportRepository(db *gorm.DB) *ExamReportRepository {
	return &ExamReportRepository{DB: db}
}

func (r *ExamReportRepository) Create(report *model.ExamReport) error {
	return r.DB.Create(report).Error
}

func (r *ExamReportRepository) ListByExam(examID uint) ([]model.ExamReport, error) {
	var reports []model.ExamReport
	err := r.DB.Where("exam_id = ?", examID).
		Order("created_at desc").Find(&reports).Error
	return reports, err
}
