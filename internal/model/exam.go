package model

import (
	"time"
)

// Exam 试卷定义，由课程管理方维护，本服务只读
type Exam struct {
	BaseModel
	Title         string     `gorm:"size:255;not null" json:"title"`
	CourseName    string     `gorm:"size:255" json:"courseName"`
	TotalScore    float64    `gorm:"default:100" json:"totalScore"`
	PassScore     float64    `gorm:"default:60" json:"passScore"`
	QuestionCount int        `gorm:"default:0" json:"questionCount"`
	StartTime     *time.Time `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	IsPublished   bool       `gorm:"default:false" json:"isPublished"`
	CreatorID     uint       `gorm:"index" json:"creatorId"`
}

func (Exam) TableName() string {
	return "exams"
}

// AvailableAt 判断试卷在给定时间是否开放作答
func (e *Exam) AvailableAt(t time.Time) bool {
	if !e.IsPublished {
		return false
	}
	if e.StartTime != nil && t.Before(*e.StartTime) {
		return false
	}
	if e.EndTime != nil && t.After(*e.EndTime) {
		return false
	}
	return true
}
