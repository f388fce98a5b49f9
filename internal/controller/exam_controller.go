package controller

import (
	"errors"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/service"
	"exam_center_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	AnswerService *service.ExamAnswerService
	ReportService *service.ReportService
	ExamRepo      *repository.ExamRepository
}

func NewExamController(
	answerService *service.ExamAnswerService,
	reportService *service.ReportService,
	examRepo *repository.ExamRepository,
) *ExamController {
	return &ExamController{
		AnswerService: answerService,
		ReportService: reportService,
		ExamRepo:      examRepo,
	}
}

type SubmitExamRequest struct {
	Answers   []map[string]interface{} `json:"answers" binding:"required"`
	AutoGrade bool                     `json:"autoGrade"`
	TimeSpent int                      `json:"timeSpent"`
}

type GradeAnswerRequest struct {
	IsCorrect *bool    `json:"isCorrect" binding:"required"`
	Score     *float64 `json:"score" binding:"required"`
	Comment   string   `json:"comment"`
}

// @Summary 获取已发布的考试列表
// @Tags 考试模块
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	exams, total, err := c.ExamRepo.ListPublished(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  exams,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 提交考试答题
// @Description 逐条落库并按需自动判分，幂等写入成绩汇总
// @Tags 考试模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Param body body SubmitExamRequest true "答题列表"
// @Success 200 {object} util.Response
// @Router /exams/{id}/submit [post]
func (c *ExamController) SubmitExam(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "无效的考试ID")
		return
	}

	var req SubmitExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.AnswerService.FinalizeSubmission(examID, claims.UserID, req.TimeSpent, req.AutoGrade, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyAnswerList),
			errors.Is(err, util.ErrExamNotFound),
			errors.Is(err, util.ErrExamNotAvailable):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, outcome)
}

// @Summary 查询本人考试成绩
// @Tags 考试模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /exams/{id}/result [get]
func (c *ExamController) GetMyResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	examID := util.MustParseUint(ctx.Param("id"))
	result, err := c.AnswerService.GetResult(examID, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrResultNotFound) || errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 人工批改答题记录
// @Description 教师对主观题或存疑记录人工给分，可覆盖自动判分结果
// @Tags 教师模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "答题记录ID"
// @Param body body GradeAnswerRequest true "批改结果"
// @Success 200 {object} util.Response
// @Router /teacher/answers/{id}/grade [put]
func (c *ExamController) GradeAnswer(ctx *gin.Context) {
	answerID := util.MustParseUint(ctx.Param("id"))
	if answerID == 0 {
		util.BadRequest(ctx, "无效的答题记录ID")
		return
	}

	var req GradeAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.GradeManually(answerID, *req.IsCorrect, *req.Score, req.Comment)
	if err != nil {
		if errors.Is(err, util.ErrAnswerNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, answer)
}

// @Summary 分页查询考试的提交记录
// @Tags 教师模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /teacher/exams/{id}/submissions [get]
func (c *ExamController) ListSubmissions(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	results, total, err := c.AnswerService.ListSubmissions(examID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  results,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 导出考试成绩报表
// @Description 生成 CSV 报表上传到对象存储并返回下载地址
// @Tags 教师模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /teacher/exams/{id}/export [get]
func (c *ExamController) ExportResults(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))

	report, err := c.ReportService.ExportExamResults(ctx.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// @Summary 历史报表导出记录
// @Tags 教师模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /teacher/exams/{id}/reports [get]
func (c *ExamController) ListReports(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))

	reports, err := c.ReportService.ListReports(examID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, reports)
}
