package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/util"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ExamAnalyticsService struct {
	AnswerRepo *repository.ExamAnswerRepository
	ResultRepo *repository.ExamResultRepository
	ExamRepo   *repository.ExamRepository
	Redis      *redis.Client

	// 缓存时长支持热更新，读写都过锁
	ttlMu    sync.RWMutex
	cacheTTL time.Duration
}

func NewExamAnalyticsService(
	answerRepo *repository.ExamAnswerRepository,
	resultRepo *repository.ExamResultRepository,
	examRepo *repository.ExamRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *ExamAnalyticsService {
	return &ExamAnalyticsService{
		AnswerRepo: answerRepo,
		ResultRepo: resultRepo,
		ExamRepo:   examRepo,
		Redis:      rdb,
		cacheTTL:   cacheTTL,
	}
}

// SetCacheTTL 配置热更新入口；0 关闭缓存
func (s *ExamAnalyticsService) SetCacheTTL(ttl time.Duration) {
	s.ttlMu.Lock()
	s.cacheTTL = ttl
	s.ttlMu.Unlock()
}

const defaultTopN = 5

// MasteryLevelFor 正确率分档
func MasteryLevelFor(rate float64) model.MasteryLevel {
	switch {
	case rate >= 0.90:
		return model.MasteryExpert
	case rate >= 0.75:
		return model.MasteryProficient
	case rate >= 0.60:
		return model.MasteryAdequate
	case rate >= 0.40:
		return model.MasteryBasic
	default:
		return model.MasteryWeak
	}
}

// GetUserStatistics 用户全量答题统计，无数据返回全零
func (s *ExamAnalyticsService) GetUserStatistics(userID uint) (*model.UserStatistics, error) {
	total, correct, totalScore, err := s.AnswerRepo.UserTotals(userID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.AnswerRepo.TypeBreakdown(userID, 0)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStatistics{
		TotalAnswers:   total,
		CorrectAnswers: correct,
		TotalScore:     totalScore,
		TypeBreakdown:  breakdown,
	}
	if total > 0 {
		stats.CorrectRate = float64(correct) / float64(total)
		stats.AverageScore = totalScore / float64(total)
	}
	return stats, nil
}

// GetExamPerformance 单场考试表现；尚无成绩行时返回零值而非报错
func (s *ExamAnalyticsService) GetExamPerformance(examID, userID uint, userEmail string) (*model.ExamPerformance, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	perf := &model.ExamPerformance{
		ExamID:     examID,
		ExamTitle:  exam.Title,
		TotalScore: exam.TotalScore,
		PassScore:  exam.PassScore,
	}

	result, err := s.ResultRepo.FindByExamAndEmail(examID, userEmail)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		perf.Score = result.Score
		perf.CorrectCount = result.CorrectCount
		perf.TotalCount = result.TotalCount
		perf.CorrectRate = result.CorrectRate
		perf.Passed = result.Score >= exam.PassScore
		if rank, err := s.ResultRepo.RankOf(examID, result.Score); err == nil {
			perf.Ranking = rank
		}
	}

	breakdown, err := s.AnswerRepo.TypeBreakdown(userID, examID)
	if err != nil {
		return nil, err
	}
	perf.TypeBreakdown = breakdown

	return perf, nil
}

// GetWeakestKnowledgePoints 按知识点正确率升序取前 N 个（最弱在前）
func (s *ExamAnalyticsService) GetWeakestKnowledgePoints(userID uint, topN int) ([]model.KnowledgePointStat, error) {
	if topN <= 0 {
		topN = defaultTopN
	}

	stats, err := s.AnswerRepo.KnowledgePointStats(userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CorrectRate < stats[j].CorrectRate
	})
	if len(stats) > topN {
		stats = stats[:topN]
	}
	return stats, nil
}

// GetExamDifficulty 难度系数 = 1 - 全体作答正确率，范围 [0,1]，
// 无人作答返回 0
func (s *ExamAnalyticsService) GetExamDifficulty(ctx context.Context, examID uint) (float64, error) {
	cacheKey := fmt.Sprintf("analytics:exam:%d:difficulty", examID)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var factor float64
		if err := json.Unmarshal([]byte(cached), &factor); err == nil {
			return factor, nil
		}
	}

	correct, total, err := s.AnswerRepo.ExamCorrectness(examID)
	if err != nil {
		return 0, err
	}

	factor := 0.0
	if total > 0 {
		factor = 1 - float64(correct)/float64(total)
	}

	s.cacheSet(ctx, cacheKey, factor)
	return factor, nil
}

// GetHardestQuestions 按题目正确率升序取前 N 题，附带题型、
// 知识点和标准答案供教师复盘
func (s *ExamAnalyticsService) GetHardestQuestions(ctx context.Context, examID uint, topN int) ([]model.QuestionStat, error) {
	if topN <= 0 {
		topN = defaultTopN
	}

	cacheKey := fmt.Sprintf("analytics:exam:%d:hardest:%d", examID, topN)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var stats []model.QuestionStat
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return stats, nil
		}
	}

	stats, err := s.AnswerRepo.QuestionStats(examID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CorrectRate < stats[j].CorrectRate
	})
	if len(stats) > topN {
		stats = stats[:topN]
	}

	s.cacheSet(ctx, cacheKey, stats)
	return stats, nil
}

// GetMasterySummary 用户整体正确率及掌握程度分档
func (s *ExamAnalyticsService) GetMasterySummary(userID uint) (*model.MasterySummary, error) {
	total, correct, _, err := s.AnswerRepo.UserTotals(userID)
	if err != nil {
		return nil, err
	}

	rate := 0.0
	if total > 0 {
		rate = float64(correct) / float64(total)
	}

	return &model.MasterySummary{
		TotalAnswers: total,
		CorrectRate:  rate,
		Level:        MasteryLevelFor(rate),
	}, nil
}

func (s *ExamAnalyticsService) currentTTL() time.Duration {
	s.ttlMu.RLock()
	defer s.ttlMu.RUnlock()
	return s.cacheTTL
}

func (s *ExamAnalyticsService) cacheGet(ctx context.Context, key string) (string, bool) {
	if s.Redis == nil || s.currentTTL() <= 0 {
		return "", false
	}
	val, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *ExamAnalyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	ttl := s.currentTTL()
	if s.Redis == nil || ttl <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Redis.Set(ctx, key, payload, ttl)
}
