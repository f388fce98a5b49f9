package model

// ExamReport 一次成绩报表导出的记录，主键为 UUID，
// 文件名带同一 UUID 避免并发导出互相覆盖
type ExamReport struct {
	UUIDBase
	ExamID   uint   `gorm:"index;not null" json:"examId"`
	FileName string `gorm:"size:255;not null" json:"fileName"`
	URL      string `gorm:"size:500" json:"url"`
	RowCount int    `json:"rowCount"`
}

func (ExamReport) TableName() string {
	return "exam_reports"
}
