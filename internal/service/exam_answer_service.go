package service

import (
	"errors"
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/util"
	"exam_center_backend/pkg/logger"
	"exam_center_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExamAnswerService struct {
	AnswerRepo *repository.ExamAnswerRepository
	ResultRepo *repository.ExamResultRepository
	ExamRepo   *repository.ExamRepository
	UserRepo   *repository.UserRepository

	// 判分配置支持热更新，读写都过锁
	gradingMu sync.RWMutex
	grading   config.GradingConfig
}

func NewExamAnswerService(
	answerRepo *repository.ExamAnswerRepository,
	resultRepo *repository.ExamResultRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *ExamAnswerService {
	s := &ExamAnswerService{
		AnswerRepo: answerRepo,
		ResultRepo: resultRepo,
		ExamRepo:   examRepo,
		UserRepo:   userRepo,
	}
	if cfg != nil {
		s.grading = cfg.Grading
	}
	return s
}

// ApplyGradingConfig 配置热更新入口，对并发中的判分安全
func (s *ExamAnswerService) ApplyGradingConfig(g config.GradingConfig) {
	s.gradingMu.Lock()
	s.grading = g
	s.gradingMu.Unlock()
}

// GradeSummary 一次提交/判分后的聚合结果
type GradeSummary struct {
	TotalScore   float64 `json:"totalScore"`
	CorrectCount int     `json:"correctCount"`
	TotalCount   int     `json:"totalCount"`
	CorrectRate  float64 `json:"correctRate"`
}

// SubmitOutcome 提交接口的返回载荷
type SubmitOutcome struct {
	ExamID       uint      `json:"examId"`
	SavedAnswers int       `json:"savedAnswers"`
	TotalScore   float64   `json:"totalScore"`
	CorrectCount int       `json:"correctCount"`
	TotalCount   int       `json:"totalCount"`
	CorrectRate  float64   `json:"correctRate"`
	TimeSpent    int       `json:"timeSpent"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// IngestAnswers 逐条宽松解析并落库。单条字段非法只跳过该条，
// 不中断整批；返回实际保存条数
func (s *ExamAnswerService) IngestAnswers(examID, userID uint, raw []map[string]interface{}) (int, error) {
	saved := 0
	now := time.Now()

	for idx, entry := range raw {
		questionID, ok := util.ToUint(entry["questionId"])
		if !ok || questionID == 0 {
			logger.Log.Warn("skipping answer entry with bad questionId",
				zap.Uint("examId", examID), zap.Uint("userId", userID), zap.Int("index", idx))
			continue
		}

		questionType := model.ExamQuestionType(util.ToString(entry["questionType"]))
		if questionType == "" {
			logger.Log.Warn("skipping answer entry with missing questionType",
				zap.Uint("examId", examID), zap.Uint("userId", userID), zap.Uint("questionId", questionID))
			continue
		}

		weight := 0.0
		if v, present := entry["score"]; present {
			w, ok := util.ToFloat(v)
			if !ok {
				logger.Log.Warn("skipping answer entry with bad score",
					zap.Uint("examId", examID), zap.Uint("userId", userID), zap.Uint("questionId", questionID))
				continue
			}
			weight = w
		}

		answer := &model.ExamAnswer{
			ExamID:         examID,
			UserID:         userID,
			QuestionID:     questionID,
			QuestionType:   questionType,
			UserAnswer:     util.ToString(entry["userAnswer"]),
			CorrectAnswer:  util.ToString(entry["correctAnswer"]),
			Weight:         weight,
			KnowledgePoint: util.ToString(entry["knowledgePoint"]),
			AnswerTime:     now,
			GradeStatus:    model.GradePending,
		}

		if err := s.AnswerRepo.Upsert(answer); err != nil {
			return saved, err
		}
		saved++
	}

	return saved, nil
}

// AutoGrade 对 (examID, userID) 的客观题逐条判分并落库，
// 主观题保持待批改。返回覆盖全部答题记录的聚合
func (s *ExamAnswerService) AutoGrade(examID, userID uint) (*GradeSummary, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	answers, err := s.AnswerRepo.ListByExamAndUser(examID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range answers {
		a := &answers[i]
		if !a.QuestionType.IsObjective() {
			continue
		}

		verdict := EvaluateAnswer(a.QuestionType, a.UserAnswer, a.CorrectAnswer)
		if verdict == VerdictNeedsManual {
			continue
		}

		correct := verdict == VerdictCorrect
		score := 0.0
		if correct {
			score = s.questionWeight(a, exam)
		}

		a.IsCorrect = &correct
		a.Score = &score
		a.GradedAt = &now
		a.GradeStatus = model.GradeAuto

		if err := s.AnswerRepo.Update(a); err != nil {
			return nil, err
		}

		monitoring.GradedAnswerCounter.WithLabelValues(string(a.QuestionType), verdict.String()).Inc()
	}

	return summarize(answers), nil
}

// FinalizeSubmission 入库 → 判分（或只汇总已判分部分）→ 幂等写成绩行。
// 同一 (examID, userID) 重复调用只保留最后一次的汇总
func (s *ExamAnswerService) FinalizeSubmission(examID, userID uint, timeSpent int, autoGrade bool, raw []map[string]interface{}) (*SubmitOutcome, error) {
	if len(raw) == 0 {
		return nil, util.ErrEmptyAnswerList
	}

	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if !exam.AvailableAt(time.Now()) {
		return nil, util.ErrExamNotAvailable
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	saved, err := s.IngestAnswers(examID, userID, raw)
	if err != nil {
		return nil, err
	}

	var summary *GradeSummary
	if autoGrade {
		summary, err = s.AutoGrade(examID, userID)
	} else {
		summary, err = s.summarizeStored(examID, userID)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &model.ExamResult{
		ExamID:       examID,
		UserEmail:    user.Email,
		UserID:       userID,
		ExamTitle:    exam.Title,
		CourseName:   exam.CourseName,
		Score:        summary.TotalScore,
		CorrectCount: summary.CorrectCount,
		TotalCount:   summary.TotalCount,
		CorrectRate:  summary.CorrectRate,
		TimeSpent:    timeSpent,
		SubmitTime:   now,
		Status:       model.ResultStatusCompleted,
	}
	if err := s.ResultRepo.Upsert(result); err != nil {
		return nil, err
	}

	return &SubmitOutcome{
		ExamID:       examID,
		SavedAnswers: saved,
		TotalScore:   summary.TotalScore,
		CorrectCount: summary.CorrectCount,
		TotalCount:   summary.TotalCount,
		CorrectRate:  summary.CorrectRate,
		TimeSpent:    timeSpent,
		SubmittedAt:  now,
	}, nil
}

// GradeManually 教师人工批改单条答题记录。不重算成绩汇总，
// 需要时调用方再触发 FinalizeSubmission
func (s *ExamAnswerService) GradeManually(answerID uint, isCorrect bool, score float64, comment string) (*model.ExamAnswer, error) {
	answer, err := s.AnswerRepo.FindByID(answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnswerNotFound
		}
		return nil, err
	}

	now := time.Now()
	answer.IsCorrect = &isCorrect
	answer.Score = &score
	answer.GradedAt = &now
	answer.GradeStatus = model.GradeManual
	answer.Comment = comment

	if err := s.AnswerRepo.Update(answer); err != nil {
		return nil, err
	}

	monitoring.GradedAnswerCounter.WithLabelValues(string(answer.QuestionType), "manual").Inc()
	return answer, nil
}

func (s *ExamAnswerService) GetResult(examID, userID uint) (*model.ExamResult, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	result, err := s.ResultRepo.FindByExamAndEmail(examID, user.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}

	rank, err := s.ResultRepo.RankOf(examID, result.Score)
	if err == nil {
		result.Ranking = &rank
	}
	return result, nil
}

func (s *ExamAnswerService) ListSubmissions(examID uint, page, limit int) ([]model.ExamResult, int64, error) {
	return s.ResultRepo.ListByExam(examID, page, limit)
}

// questionWeight 单题分值：出题方声明的分值优先，其次按
// 总分/题量均分，两者都没有时使用配置的兜底分值
func (s *ExamAnswerService) questionWeight(a *model.ExamAnswer, exam *model.Exam) float64 {
	if a.Weight > 0 {
		return a.Weight
	}
	if exam.TotalScore > 0 && exam.QuestionCount > 0 {
		return exam.TotalScore / float64(exam.QuestionCount)
	}

	s.gradingMu.RLock()
	fallback := s.grading.DefaultQuestionWeight
	s.gradingMu.RUnlock()
	if fallback > 0 {
		return fallback
	}
	return 5
}

func (s *ExamAnswerService) summarizeStored(examID, userID uint) (*GradeSummary, error) {
	answers, err := s.AnswerRepo.ListByExamAndUser(examID, userID)
	if err != nil {
		return nil, err
	}
	return summarize(answers), nil
}

// summarize 待判分记录计入总数但不计分，因此 TotalCount 恒等于
// 已提交的答题数
func summarize(answers []model.ExamAnswer) *GradeSummary {
	summary := &GradeSummary{TotalCount: len(answers)}
	for i := range answers {
		a := &answers[i]
		if a.Score != nil {
			summary.TotalScore += *a.Score
		}
		if a.IsCorrect != nil && *a.IsCorrect {
			summary.CorrectCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.CorrectRate = float64(summary.CorrectCount) / float64(summary.TotalCount)
	}
	return summary
}
