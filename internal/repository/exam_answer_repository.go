package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamAnswerRepository struct {
	DB *gorm.DB
}

func NewExamAnswerRepository(db *gorm.DB) *ExamAnswerRepository {
	return &ExamAnswerRepository{DB: db}
}

// Upsert 以 (exam_id, user_id, question_id) 为键写入答题记录，
// 已存在时整体覆盖（含重置判分状态），避免 find-then-save 的竞态
func (r *ExamAnswerRepository) Upsert(answer *model.ExamAnswer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exam_id"}, {Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"question_type", "user_answer", "correct_answer", "weight",
			"knowledge_point", "answer_time", "is_correct", "score",
			"grade_status", "graded_at", "comment", "updated_at",
		}),
	}).Create(answer).Error
}

func (r *ExamAnswerRepository) FindByID(id uint) (*model.ExamAnswer, error) {
	var answer model.ExamAnswer
	err := r.DB.First(&answer, id).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *ExamAnswerRepository) Update(answer *model.ExamAnswer) error {
	return r.DB.Save(answer).Error
}

func (r *ExamAnswerRepository) ListByExamAndUser(examID, userID uint) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.DB.Where("exam_id = ? AND user_id = ?", examID, userID).
		Order("question_id asc").Find(&answers).Error
	return answers, err
}

// aggRow 聚合查询的通用扫描行
type aggRow struct {
	Total   int
	Correct int
}

// UserTotals 用户全部答题的总量、正确量与得分
func (r *ExamAnswerRepository) UserTotals(userID uint) (total, correct int, totalScore float64, err error) {
	var row struct {
		Total      int
		Correct    int
		TotalScore float64
	}
	err = r.DB.Model(&model.ExamAnswer{}).
		Select("COUNT(*) as total, "+
			"COALESCE(SUM(CASE WHEN is_correct = 1 THEN 1 ELSE 0 END), 0) as correct, "+
			"COALESCE(SUM(score), 0) as total_score").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, 0, err
	}
	return row.Total, row.Correct, row.TotalScore, nil
}

// TypeBreakdown 按题型统计正确率；examID 为 0 时统计该用户全部考试
func (r *ExamAnswerRepository) TypeBreakdown(userID, examID uint) ([]model.QuestionTypeStat, error) {
	query := r.DB.Model(&model.ExamAnswer{}).
		Select("question_type, COUNT(*) as total, " +
			"SUM(CASE WHEN is_correct = 1 THEN 1 ELSE 0 END) as correct").
		Where("user_id = ?", userID).
		Group("question_type")
	if examID != 0 {
		query = query.Where("exam_id = ?", examID)
	}

	var stats []model.QuestionTypeStat
	if err := query.Scan(&stats).Error; err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].CorrectRate = safeRate(stats[i].Correct, stats[i].Total)
	}
	return stats, nil
}

// KnowledgePointStats 按知识点统计用户正确率，空标签归入 "unknown"
func (r *ExamAnswerRepository) KnowledgePointStats(userID uint) ([]model.KnowledgePointStat, error) {
	var stats []model.KnowledgePointStat
	err := r.DB.Model(&model.ExamAnswer{}).
		Select("COALESCE(NULLIF(knowledge_point, ''), 'unknown') as knowledge_point, "+
			"COUNT(*) as total, "+
			"SUM(CASE WHEN is_correct = 1 THEN 1 ELSE 0 END) as correct").
		Where("user_id = ?", userID).
		Group("COALESCE(NULLIF(knowledge_point, ''), 'unknown')").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].CorrectRate = safeRate(stats[i].Correct, stats[i].Total)
	}
	return stats, nil
}

// ExamCorrectness 全体作答者在一场考试上的正确量与总量
func (r *ExamAnswerRepository) ExamCorrectness(examID uint) (correct, total int, err error) {
	var row aggRow
	err = r.DB.Model(&model.ExamAnswer{}).
		Select("COUNT(*) as total, "+
			"COALESCE(SUM(CASE WHEN is_correct = 1 THEN 1 ELSE 0 END), 0) as correct").
		Where("exam_id = ?", examID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Correct, row.Total, nil
}

// QuestionStats 按题目统计一场考试的正确率
func (r *ExamAnswerRepository) QuestionStats(examID uint) ([]model.QuestionStat, error) {
	var stats []model.QuestionStat
	err := r.DB.Model(&model.ExamAnswer{}).
		Select("question_id, "+
			"MAX(question_type) as question_type, "+
			"MAX(knowledge_point) as knowledge_point, "+
			"MAX(correct_answer) as correct_answer, "+
			"COUNT(*) as total, "+
			"SUM(CASE WHEN is_correct = 1 THEN 1 ELSE 0 END) as correct").
		Where("exam_id = ?", examID).
		Group("question_id").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].CorrectRate = safeRate(stats[i].Correct, stats[i].Total)
	}
	return stats, nil
}

func safeRate(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
