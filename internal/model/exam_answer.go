package model

import (
	"time"
)

type ExamQuestionType string

const (
	QuestionSingleChoice   ExamQuestionType = "single_choice"
	QuestionMultipleChoice ExamQuestionType = "multiple_choice"
	QuestionTrueFalse      ExamQuestionType = "true_false"
	QuestionFillBlank      ExamQuestionType = "fill_blank"
	QuestionSubjective     ExamQuestionType = "subjective"
)

// IsObjective 客观题可由机器判分，主观题只能人工批改
func (t ExamQuestionType) IsObjective() bool {
	return t != QuestionSubjective
}

type GradeStatus string

const (
	GradePending GradeStatus = "pending"
	GradeAuto    GradeStatus = "auto"
	GradeManual  GradeStatus = "manual"
)

// ExamAnswer 一条答题记录，(exam_id, user_id, question_id) 唯一，
// 重复提交覆盖原记录而不是新增
type ExamAnswer struct {
	BaseModel
	ExamID        uint             `gorm:"uniqueIndex:uk_exam_user_question;not null" json:"examId"`
	UserID        uint             `gorm:"uniqueIndex:uk_exam_user_question;not null" json:"userId"`
	QuestionID    uint             `gorm:"uniqueIndex:uk_exam_user_question;not null" json:"questionId"`
	QuestionType  ExamQuestionType `gorm:"size:50;not null" json:"questionType"`
	UserAnswer    string           `gorm:"type:text" json:"userAnswer"`
	CorrectAnswer string           `gorm:"type:text" json:"correctAnswer"`
	// IsCorrect 为空表示尚未判分（主观题待人工批改）
	IsCorrect      *bool       `json:"isCorrect"`
	Score          *float64    `json:"score"`
	Weight         float64     `gorm:"default:0" json:"weight"` // 出题方声明的单题分值，0 表示未声明
	KnowledgePoint string      `gorm:"size:100;index" json:"knowledgePoint"`
	AnswerTime     time.Time   `json:"answerTime"`
	GradedAt       *time.Time  `json:"gradedAt"`
	GradeStatus    GradeStatus `gorm:"size:20;default:'pending'" json:"gradeStatus"`
	Comment        string      `gorm:"type:text" json:"comment"` // 人工批改备注
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}
