package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) ListPublished(page, limit int) ([]model.Exam, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Exam{}).Where("is_published = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exams []model.Exam
	offset := (page - 1) * limit
	err := r.DB.Where("is_published = ?", true).
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&exams).Error
	return exams, total, err
}
