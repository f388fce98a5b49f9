package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamResultRepository struct {
	DB *gorm.DB
}

func NewExamResultRepository(db *gorm.DB) *ExamResultRepository {
	return &ExamResultRepository{DB: db}
}

// Upsert 以 (exam_id, user_email) 为键写入成绩汇总，同键并发提交
// 由唯一约束保证只落一行，后写者覆盖
func (r *ExamResultRepository) Upsert(result *model.ExamResult) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exam_id"}, {Name: "user_email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "exam_title", "course_name", "score",
			"correct_count", "total_count", "correct_rate",
			"time_spent", "submit_time", "status", "updated_at",
		}),
	}).Create(result).Error
}

func (r *ExamResultRepository) FindByExamAndEmail(examID uint, email string) (*model.ExamResult, error) {
	var result model.ExamResult
	err := r.DB.Where("exam_id = ? AND user_email = ?", examID, email).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ExamResultRepository) ListByExam(examID uint, page, limit int) ([]model.ExamResult, int64, error) {
	var total int64
	query := r.DB.Model(&model.ExamResult{}).Where("exam_id = ?", examID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []model.ExamResult
	offset := (page - 1) * limit
	err := r.DB.Where("exam_id = ?", examID).
		Order("score desc, submit_time asc").
		Offset(offset).Limit(limit).
		Find(&results).Error
	return results, total, err
}

// RankOf 同一试卷内按分数排名：比给定分数高的人数 + 1
func (r *ExamResultRepository) RankOf(examID uint, score float64) (int, error) {
	var higher int64
	err := r.DB.Model(&model.ExamResult{}).
		Where("exam_id = ? AND score > ?", examID, score).
		Count(&higher).Error
	if err != nil {
		return 0, err
	}
	return int(higher) + 1, nil
}
