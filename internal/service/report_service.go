package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/util"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// ReportService 成绩报表导出
type ReportService struct {
	ResultRepo *repository.ExamResultRepository
	ExamRepo   *repository.ExamRepository
	ReportRepo *repository.ExamReportRepository
	Storage    *StorageService
}

func NewReportService(
	resultRepo *repository.ExamResultRepository,
	examRepo *repository.ExamRepository,
	reportRepo *repository.ExamReportRepository,
	storage *StorageService,
) *ReportService {
	return &ReportService{
		ResultRepo: resultRepo,
		ExamRepo:   examRepo,
		ReportRepo: reportRepo,
		Storage:    storage,
	}
}

// ExportExamResults 导出一场考试的全部成绩为 CSV 上传到存储，
// 并落一条导出记录（UUID 主键，同一 UUID 进文件名防覆盖）
func (s *ReportService) ExportExamResults(ctx context.Context, examID uint) (*model.ExamReport, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	results, _, err := s.ResultRepo.ListByExam(examID, 1, 100000)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"exam", "email", "score", "correct", "total", "correct_rate", "time_spent", "submitted_at", "status"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range results {
		r := &results[i]
		row := []string{
			exam.Title,
			r.UserEmail,
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			strconv.Itoa(r.CorrectCount),
			strconv.Itoa(r.TotalCount),
			strconv.FormatFloat(r.CorrectRate, 'f', 4, 64),
			strconv.Itoa(r.TimeSpent),
			r.SubmitTime.Format(util.TimeFormat),
			r.Status,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	report := &model.ExamReport{
		ExamID:   examID,
		RowCount: len(results),
	}
	report.ID = model.GenerateUUID()
	report.FileName = fmt.Sprintf("reports/exam_%d_%s.csv", examID, report.ID)

	url, err := s.Storage.Upload(ctx, report.FileName, &buf, int64(buf.Len()), "text/csv")
	if err != nil {
		return nil, err
	}
	report.URL = url

	if err := s.ReportRepo.Create(report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports 一场考试的历史导出记录，新导出在前
func (s *ReportService) ListReports(examID uint) ([]model.ExamReport, error) {
	return s.ReportRepo.ListByExam(examID)
}
