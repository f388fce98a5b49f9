package service

import (
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/pkg/logger"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 内存库每个连接独立，限制为单连接避免表丢失
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.User{}, &model.Exam{}, &model.ExamAnswer{}, &model.ExamResult{}, &model.ExamReport{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestAnswerService(t *testing.T, db *gorm.DB) *ExamAnswerService {
	t.Helper()
	cfg := &config.Config{
		Grading: config.GradingConfig{DefaultQuestionWeight: 5},
	}
	return NewExamAnswerService(
		repository.NewExamAnswerRepository(db),
		repository.NewExamResultRepository(db),
		repository.NewExamRepository(db),
		repository.NewUserRepository(db),
		cfg,
	)
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: email, Password: "hash", Role: model.Student}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedExam(t *testing.T, db *gorm.DB, totalScore float64, questionCount int) *model.Exam {
	t.Helper()
	exam := &model.Exam{
		Title:         "Go 语言测验",
		CourseName:    "Go 程序设计",
		TotalScore:    totalScore,
		PassScore:     totalScore * 0.6,
		QuestionCount: questionCount,
		IsPublished:   true,
	}
	if err := db.Create(exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return exam
}

func standardAnswers() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"questionId":     float64(1),
			"questionType":   "single_choice",
			"userAnswer":     "A",
			"correctAnswer":  "A",
			"knowledgePoint": "指针",
		},
		{
			"questionId":     float64(2),
			"questionType":   "multiple_choice",
			"userAnswer":     []interface{}{"B", "A"},
			"correctAnswer":  []interface{}{"A", "B"},
			"knowledgePoint": "切片",
		},
		{
			"questionId":     float64(3),
			"questionType":   "subjective",
			"userAnswer":     "goroutine 由运行时调度",
			"correctAnswer":  "说明 GMP 调度模型",
			"knowledgePoint": "并发",
		},
	}
}

func TestFinalizeSubmission_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	exam := seedExam(t, db, 30, 3)
	user := seedUser(t, db, "张三", "zhangsan@example.com")

	outcome, err := svc.FinalizeSubmission(exam.ID, user.ID, 600, true, standardAnswers())
	if err != nil {
		t.Fatalf("FinalizeSubmission: %v", err)
	}

	if outcome.SavedAnswers != 3 {
		t.Errorf("SavedAnswers = %d, want 3", outcome.SavedAnswers)
	}
	if outcome.CorrectCount != 2 {
		t.Errorf("CorrectCount = %d, want 2 (subjective stays pending)", outcome.CorrectCount)
	}
	if outcome.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", outcome.TotalCount)
	}
	// 30分3题，每题10分，两道客观题判对
	if outcome.TotalScore != 20 {
		t.Errorf("TotalScore = %v, want 20", outcome.TotalScore)
	}

	var result model.ExamResult
	if err := db.Where("exam_id = ? AND user_email = ?", exam.ID, user.Email).First(&result).Error; err != nil {
		t.Fatalf("load result: %v", err)
	}
	if result.Status != model.ResultStatusCompleted {
		t.Errorf("result status = %q, want %q", result.Status, model.ResultStatusCompleted)
	}
	if result.TimeSpent != 600 {
		t.Errorf("TimeSpent = %d, want 600", result.TimeSpent)
	}

	// 主观题保持待批改
	var subjective model.ExamAnswer
	if err := db.Where("exam_id = ? AND user_id = ? AND question_id = ?", exam.ID, user.ID, 3).First(&subjective).Error; err != nil {
		t.Fatalf("load subjective answer: %v", err)
	}
	if subjective.GradeStatus != model.GradePending {
		t.Errorf("subjective GradeStatus = %q, want pending", subjective.GradeStatus)
	}
	if subjective.IsCorrect != nil {
		t.Error("subjective IsCorrect should stay nil until manual grading")
	}
}

func TestFinalizeSubmission_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	exam := seedExam(t, db, 30, 3)
	user := seedUser(t, db, "李四", "lisi@example.com")

	first, err := svc.FinalizeSubmission(exam.ID, user.ID, 500, true, standardAnswers())
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	second, err := svc.FinalizeSubmission(exam.ID, user.ID, 700, true, standardAnswers())
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}

	if first.TotalScore != second.TotalScore {
		t.Errorf("resubmission changed score: %v != %v", first.TotalScore, second.TotalScore)
	}

	var resultCount int64
	db.Model(&model.ExamResult{}).Where("exam_id = ? AND user_email = ?", exam.ID, user.Email).Count(&resultCount)
	if resultCount != 1 {
		t.Errorf("result rows = %d, want 1 (upsert on exam_id,user_email)", resultCount)
	}

	var answerCount int64
	db.Model(&model.ExamAnswer{}).Where("exam_id = ? AND user_id = ?", exam.ID, user.ID).Count(&answerCount)
	if answerCount != 3 {
		t.Errorf("answer rows = %d, want 3 (upsert on exam_id,user_id,question_id)", answerCount)
	}

	var result model.ExamResult
	if err := db.Where("exam_id = ? AND user_email = ?", exam.ID, user.Email).First(&result).Error; err != nil {
		t.Fatalf("load result: %v", err)
	}
	if result.TimeSpent != 700 {
		t.Errorf("TimeSpent = %d, want 700 (last submission wins)", result.TimeSpent)
	}
}

func TestFinalizeSubmission_Rejections(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	user := seedUser(t, db, "王五", "wangwu@example.com")

	if _, err := svc.FinalizeSubmission(999, user.ID, 0, true, standardAnswers()); err == nil {
		t.Error("expected error for missing exam")
	}

	exam := seedExam(t, db, 30, 3)
	if _, err := svc.FinalizeSubmission(exam.ID, user.ID, 0, true, nil); err == nil {
		t.Error("expected error for empty answer list")
	}

	unpublished := &model.Exam{Title: "草稿", TotalScore: 100, QuestionCount: 10}
	if err := db.Create(unpublished).Error; err != nil {
		t.Fatalf("seed unpublished exam: %v", err)
	}
	if _, err := svc.FinalizeSubmission(unpublished.ID, user.ID, 0, true, standardAnswers()); err == nil {
		t.Error("expected error for unpublished exam")
	}

	closed := &model.Exam{Title: "已截止", TotalScore: 100, QuestionCount: 10, IsPublished: true}
	past := time.Now().Add(-time.Hour)
	closed.EndTime = &past
	if err := db.Create(closed).Error; err != nil {
		t.Fatalf("seed closed exam: %v", err)
	}
	if _, err := svc.FinalizeSubmission(closed.ID, user.ID, 0, true, standardAnswers()); err == nil {
		t.Error("expected error for closed exam")
	}

	// 任何拒绝都不应留下成绩行
	var count int64
	db.Model(&model.ExamResult{}).Count(&count)
	if count != 0 {
		t.Errorf("result rows after rejections = %d, want 0", count)
	}
}

func TestIngestAnswers_SkipsBadEntries(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	exam := seedExam(t, db, 30, 3)
	user := seedUser(t, db, "赵六", "zhaoliu@example.com")

	raw := []map[string]interface{}{
		{"questionId": float64(1), "questionType": "single_choice", "userAnswer": "A", "correctAnswer": "A"},
		{"questionType": "single_choice", "userAnswer": "B", "correctAnswer": "B"},                          // 缺 questionId
		{"questionId": float64(3), "userAnswer": "C", "correctAnswer": "C"},                                 // 缺 questionType
		{"questionId": float64(4), "questionType": "single_choice", "userAnswer": "D", "score": "not-a-number"}, // 分值非法
		{"questionId": "5", "questionType": "true_false", "userAnswer": "true", "correctAnswer": "true"},    // 字符串 ID 可解析
	}

	saved, err := svc.IngestAnswers(exam.ID, user.ID, raw)
	if err != nil {
		t.Fatalf("IngestAnswers: %v", err)
	}
	if saved != 2 {
		t.Errorf("saved = %d, want 2 (three malformed entries skipped)", saved)
	}

	var count int64
	db.Model(&model.ExamAnswer{}).Where("exam_id = ? AND user_id = ?", exam.ID, user.ID).Count(&count)
	if count != 2 {
		t.Errorf("answer rows = %d, want 2", count)
	}
}

func TestAutoGrade_WeightPrecedence(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	user := seedUser(t, db, "钱七", "qianqi@example.com")

	// 出题方声明分值优先于均分
	exam := seedExam(t, db, 100, 10)
	raw := []map[string]interface{}{
		{"questionId": float64(1), "questionType": "single_choice", "userAnswer": "A", "correctAnswer": "A", "score": float64(15)},
		{"questionId": float64(2), "questionType": "single_choice", "userAnswer": "B", "correctAnswer": "B"},
	}
	if _, err := svc.IngestAnswers(exam.ID, user.ID, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	summary, err := svc.AutoGrade(exam.ID, user.ID)
	if err != nil {
		t.Fatalf("AutoGrade: %v", err)
	}
	// 15（声明）+ 10（100/10 均分）
	if summary.TotalScore != 25 {
		t.Errorf("TotalScore = %v, want 25", summary.TotalScore)
	}

	// 试卷未声明总分/题量时回退到配置兜底分值
	bare := &model.Exam{Title: "未配置", IsPublished: true}
	if err := db.Create(bare).Error; err != nil {
		t.Fatalf("seed bare exam: %v", err)
	}
	raw = []map[string]interface{}{
		{"questionId": float64(1), "questionType": "single_choice", "userAnswer": "A", "correctAnswer": "A"},
	}
	if _, err := svc.IngestAnswers(bare.ID, user.ID, raw); err != nil {
		t.Fatalf("ingest bare: %v", err)
	}
	summary, err = svc.AutoGrade(bare.ID, user.ID)
	if err != nil {
		t.Fatalf("AutoGrade bare: %v", err)
	}
	if summary.TotalScore != 5 {
		t.Errorf("TotalScore = %v, want 5 (config default weight)", summary.TotalScore)
	}
}

func TestGradeManually_OverridesAutoVerdict(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	exam := seedExam(t, db, 30, 3)
	user := seedUser(t, db, "孙八", "sunba@example.com")

	if _, err := svc.FinalizeSubmission(exam.ID, user.ID, 300, true, standardAnswers()); err != nil {
		t.Fatalf("FinalizeSubmission: %v", err)
	}

	var subjective model.ExamAnswer
	if err := db.Where("exam_id = ? AND user_id = ? AND question_id = ?", exam.ID, user.ID, 3).First(&subjective).Error; err != nil {
		t.Fatalf("load subjective: %v", err)
	}

	graded, err := svc.GradeManually(subjective.ID, true, 8, "思路正确，表述欠完整")
	if err != nil {
		t.Fatalf("GradeManually: %v", err)
	}
	if graded.GradeStatus != model.GradeManual {
		t.Errorf("GradeStatus = %q, want manual", graded.GradeStatus)
	}
	if graded.IsCorrect == nil || !*graded.IsCorrect {
		t.Error("IsCorrect should be true after manual grading")
	}
	if graded.Score == nil || *graded.Score != 8 {
		t.Errorf("Score = %v, want 8", graded.Score)
	}
	if graded.GradedAt == nil {
		t.Error("GradedAt should be set")
	}

	// 人工批改已判分的客观题同样允许覆盖
	var objective model.ExamAnswer
	if err := db.Where("exam_id = ? AND user_id = ? AND question_id = ?", exam.ID, user.ID, 1).First(&objective).Error; err != nil {
		t.Fatalf("load objective: %v", err)
	}
	if _, err := svc.GradeManually(objective.ID, false, 0, "答案有歧义，判错"); err != nil {
		t.Fatalf("override auto grade: %v", err)
	}

	// 人工批改不自动重算成绩汇总
	var result model.ExamResult
	if err := db.Where("exam_id = ? AND user_email = ?", exam.ID, user.Email).First(&result).Error; err != nil {
		t.Fatalf("load result: %v", err)
	}
	if result.Score != 20 {
		t.Errorf("result score = %v, want 20 (summary untouched by manual grading)", result.Score)
	}

	if _, err := svc.GradeManually(99999, true, 1, ""); err == nil {
		t.Error("expected error for missing answer record")
	}
}

func TestFinalizeSubmission_AfterManualGrading(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	exam := seedExam(t, db, 30, 3)
	user := seedUser(t, db, "复核者", "review@example.com")

	if _, err := svc.FinalizeSubmission(exam.ID, user.ID, 300, true, standardAnswers()); err != nil {
		t.Fatalf("FinalizeSubmission: %v", err)
	}

	var subjective model.ExamAnswer
	if err := db.Where("exam_id = ? AND user_id = ? AND question_id = ?", exam.ID, user.ID, 3).First(&subjective).Error; err != nil {
		t.Fatalf("load subjective: %v", err)
	}
	if _, err := svc.GradeManually(subjective.ID, true, 8, "人工给分"); err != nil {
		t.Fatalf("GradeManually: %v", err)
	}

	// 只重提客观题条目：人工批改结果保留并计入新汇总
	objectiveOnly := standardAnswers()[:2]
	outcome, err := svc.FinalizeSubmission(exam.ID, user.ID, 310, true, objectiveOnly)
	if err != nil {
		t.Fatalf("partial re-finalize: %v", err)
	}
	if outcome.TotalScore != 28 {
		t.Errorf("TotalScore = %v, want 28 (20 auto + 8 manual)", outcome.TotalScore)
	}
	if outcome.CorrectCount != 3 {
		t.Errorf("CorrectCount = %d, want 3", outcome.CorrectCount)
	}
	if outcome.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3 (stored answers, not batch size)", outcome.TotalCount)
	}

	// 整批重提会覆盖主观题记录，人工批改结果随之重置
	outcome, err = svc.FinalizeSubmission(exam.ID, user.ID, 320, true, standardAnswers())
	if err != nil {
		t.Fatalf("full re-finalize: %v", err)
	}
	if outcome.TotalScore != 20 {
		t.Errorf("TotalScore = %v, want 20 (resubmitted subjective pending again)", outcome.TotalScore)
	}

	if err := db.Where("exam_id = ? AND user_id = ? AND question_id = ?", exam.ID, user.ID, 3).First(&subjective).Error; err != nil {
		t.Fatalf("reload subjective: %v", err)
	}
	if subjective.GradeStatus != model.GradePending {
		t.Errorf("GradeStatus after full resubmit = %q, want pending", subjective.GradeStatus)
	}
	if subjective.Score != nil {
		t.Errorf("Score after full resubmit = %v, want nil", subjective.Score)
	}
}

func TestApplyGradingConfig_HotReload(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	user := seedUser(t, db, "热更新", "reload@example.com")

	bare := &model.Exam{Title: "无总分", IsPublished: true}
	if err := db.Create(bare).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	raw := []map[string]interface{}{
		{"questionId": float64(1), "questionType": "single_choice", "userAnswer": "A", "correctAnswer": "A"},
	}
	if _, err := svc.IngestAnswers(bare.ID, user.ID, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	summary, err := svc.AutoGrade(bare.ID, user.ID)
	if err != nil {
		t.Fatalf("AutoGrade: %v", err)
	}
	if summary.TotalScore != 5 {
		t.Errorf("TotalScore = %v, want 5 (initial default weight)", summary.TotalScore)
	}

	svc.ApplyGradingConfig(config.GradingConfig{DefaultQuestionWeight: 7})

	summary, err = svc.AutoGrade(bare.ID, user.ID)
	if err != nil {
		t.Fatalf("AutoGrade after reload: %v", err)
	}
	if summary.TotalScore != 7 {
		t.Errorf("TotalScore = %v, want 7 (reloaded default weight)", summary.TotalScore)
	}

	// 判分与配置下发并发执行不应相互破坏（race 检测覆盖）
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			svc.ApplyGradingConfig(config.GradingConfig{DefaultQuestionWeight: float64(i%9 + 1)})
		}
	}()
	for i := 0; i < 20; i++ {
		if _, err := svc.AutoGrade(bare.ID, user.ID); err != nil {
			t.Fatalf("concurrent AutoGrade: %v", err)
		}
	}
	<-done
}

func TestGetResult_Ranking(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAnswerService(t, db)
	exam := seedExam(t, db, 10, 1)

	users := []struct {
		name   string
		email  string
		answer string
	}{
		{"甲", "a@example.com", "A"}, // 判对，10分
		{"乙", "b@example.com", "B"}, // 判错，0分
		{"丙", "c@example.com", "A"}, // 判对，10分
	}
	for _, u := range users {
		user := seedUser(t, db, u.name, u.email)
		raw := []map[string]interface{}{
			{"questionId": float64(1), "questionType": "single_choice", "userAnswer": u.answer, "correctAnswer": "A"},
		}
		if _, err := svc.FinalizeSubmission(exam.ID, user.ID, 100, true, raw); err != nil {
			t.Fatalf("submission for %s: %v", u.email, err)
		}
	}

	var loser model.User
	if err := db.Where("email = ?", "b@example.com").First(&loser).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	result, err := svc.GetResult(exam.ID, loser.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if result.Ranking == nil || *result.Ranking != 3 {
		t.Errorf("Ranking = %v, want 3 (two users scored higher)", result.Ranking)
	}

	var winner model.User
	if err := db.Where("email = ?", "a@example.com").First(&winner).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	result, err = svc.GetResult(exam.ID, winner.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if result.Ranking == nil || *result.Ranking != 1 {
		t.Errorf("Ranking = %v, want 1 (ties share the top rank)", result.Ranking)
	}
}
