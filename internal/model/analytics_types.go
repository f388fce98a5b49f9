package model

// QuestionTypeStat 按题型统计的正确率
type QuestionTypeStat struct {
	QuestionType ExamQuestionType `json:"questionType"`
	Total        int              `json:"total"`
	Correct      int              `json:"correct"`
	CorrectRate  float64          `json:"correctRate"`
}

// UserStatistics 用户全量答题统计
type UserStatistics struct {
	TotalAnswers   int                `json:"totalAnswers"`
	CorrectAnswers int                `json:"correctAnswers"`
	CorrectRate    float64            `json:"correctRate"`
	TotalScore     float64            `json:"totalScore"`
	AverageScore   float64            `json:"averageScore"`
	TypeBreakdown  []QuestionTypeStat `json:"typeBreakdown"`
}

// ExamPerformance 单场考试表现
type ExamPerformance struct {
	ExamID        uint               `json:"examId"`
	ExamTitle     string             `json:"examTitle"`
	Score         float64            `json:"score"`
	TotalScore    float64            `json:"totalScore"`
	PassScore     float64            `json:"passScore"`
	Passed        bool               `json:"passed"`
	CorrectCount  int                `json:"correctCount"`
	TotalCount    int                `json:"totalCount"`
	CorrectRate   float64            `json:"correctRate"`
	Ranking       int                `json:"ranking"`
	TypeBreakdown []QuestionTypeStat `json:"typeBreakdown"`
}

// KnowledgePointStat 按知识点聚合的正确率
type KnowledgePointStat struct {
	KnowledgePoint string  `json:"knowledgePoint"`
	Total          int     `json:"total"`
	Correct        int     `json:"correct"`
	CorrectRate    float64 `json:"correctRate"`
}

// QuestionStat 按题目聚合的正确率，供教师复盘
type QuestionStat struct {
	QuestionID     uint             `json:"questionId"`
	QuestionType   ExamQuestionType `json:"questionType"`
	KnowledgePoint string           `json:"knowledgePoint"`
	CorrectAnswer  string           `json:"correctAnswer"`
	Total          int              `json:"total"`
	Correct        int              `json:"correct"`
	CorrectRate    float64          `json:"correctRate"`
}

// MasteryLevel 掌握程度分档
type MasteryLevel string

const (
	MasteryExpert     MasteryLevel = "mastery"
	MasteryProficient MasteryLevel = "proficient"
	MasteryAdequate   MasteryLevel = "adequate"
	MasteryBasic      MasteryLevel = "basic"
	MasteryWeak       MasteryLevel = "weak"
)

// MasterySummary 用户整体掌握程度
type MasterySummary struct {
	TotalAnswers int          `json:"totalAnswers"`
	CorrectRate  float64      `json:"correctRate"`
	Level        MasteryLevel `json:"level"`
}
