package model

import (
	"time"
)

const ResultStatusCompleted = "completed"

// ExamResult 一次考试的成绩汇总，(exam_id, user_email) 唯一，
// 重复判分在原行上覆盖（幂等 upsert）
type ExamResult struct {
	BaseModel
	ExamID       uint      `gorm:"uniqueIndex:uk_exam_user_email;not null" json:"examId"`
	UserEmail    string    `gorm:"uniqueIndex:uk_exam_user_email;size:100;not null" json:"userEmail"`
	UserID       uint      `gorm:"index" json:"userId"`
	ExamTitle    string    `gorm:"size:255" json:"examTitle"`
	CourseName   string    `gorm:"size:255" json:"courseName"`
	Score        float64   `json:"score"`
	CorrectCount int       `json:"correctCount"`
	TotalCount   int       `json:"totalCount"`
	CorrectRate  float64   `json:"correctRate"`
	TimeSpent    int       `json:"timeSpent"` // 秒
	SubmitTime   time.Time `json:"submitTime"`
	Status       string    `gorm:"size:20;default:'completed'" json:"status"`
	// Ranking 由同一试卷的成绩行按分数排序得出，读取时计算，不落库
	Ranking *int `gorm:"-" json:"ranking,omitempty"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}
