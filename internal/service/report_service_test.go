package service

import (
	"context"
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/repository"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"
)

func newTestReportService(t *testing.T, db *gorm.DB) *ReportService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()

	return NewReportService(
		repository.NewExamResultRepository(db),
		repository.NewExamRepository(db),
		repository.NewExamReportRepository(db),
		NewStorageService(cfg),
	)
}

func TestExportExamResults(t *testing.T) {
	db := newTestDB(t)
	answerSvc := newTestAnswerService(t, db)
	svc := newTestReportService(t, db)
	exam := seedExam(t, db, 10, 1)

	emails := []string{"r1@example.com", "r2@example.com"}
	for _, email := range emails {
		user := seedUser(t, db, email, email)
		raw := []map[string]interface{}{
			{"questionId": float64(1), "questionType": "single_choice", "userAnswer": "A", "correctAnswer": "A"},
		}
		if _, err := answerSvc.FinalizeSubmission(exam.ID, user.ID, 60, true, raw); err != nil {
			t.Fatalf("submission for %s: %v", email, err)
		}
	}

	report, err := svc.ExportExamResults(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("ExportExamResults: %v", err)
	}

	if len(report.ID) != 36 {
		t.Errorf("report ID = %q, want a UUID", report.ID)
	}
	if report.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", report.RowCount)
	}
	if !strings.Contains(report.FileName, report.ID) {
		t.Errorf("FileName %q should embed the report UUID", report.FileName)
	}
	if report.URL == "" {
		t.Error("URL should not be empty")
	}

	// 导出记录落库，可按考试查询历史
	reports, err := svc.ListReports(exam.ID)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != report.ID {
		t.Errorf("ListReports = %+v, want the one exported record", reports)
	}

	// 本地存储下 CSV 真实写盘：表头 + 两行成绩
	local, ok := svc.Storage.Provider.(*LocalStorageProvider)
	if !ok {
		t.Fatal("expected local storage provider in tests")
	}
	data, err := os.ReadFile(filepath.Join(local.Config.LocalPath, report.FileName))
	if err != nil {
		t.Fatalf("read exported csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("csv lines = %d, want 3 (header + 2 rows)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "exam,email,score") {
		t.Errorf("unexpected csv header: %q", lines[0])
	}

	if _, err := svc.ExportExamResults(context.Background(), 999); err == nil {
		t.Error("expected error for missing exam")
	}
}
