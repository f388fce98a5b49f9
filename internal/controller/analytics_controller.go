package controller

import (
	"errors"
	"exam_center_backend/internal/service"
	"exam_center_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.ExamAnalyticsService
}

func NewAnalyticsController(analyticsService *service.ExamAnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 用户答题统计
// @Tags 数据分析
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /analytics/statistics [get]
func (c *AnalyticsController) GetUserStatistics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.AnalyticsService.GetUserStatistics(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 单场考试表现
// @Description 含得分、正确率、是否通过及排名
// @Tags 数据分析
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /analytics/exams/{id}/performance [get]
func (c *AnalyticsController) GetExamPerformance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	examID := util.MustParseUint(ctx.Param("id"))
	perf, err := c.AnalyticsService.GetExamPerformance(examID, claims.UserID, claims.Email)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, perf)
}

// @Summary 薄弱知识点
// @Description 按正确率升序返回最薄弱的知识点
// @Tags 数据分析
// @Produce json
// @Security ApiKeyAuth
// @Param topN query int false "返回数量"
// @Success 200 {object} util.Response
// @Router /analytics/weak-points [get]
func (c *AnalyticsController) GetWeakPoints(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	topN, _ := strconv.Atoi(ctx.DefaultQuery("topN", "0"))
	stats, err := c.AnalyticsService.GetWeakestKnowledgePoints(claims.UserID, topN)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 整体掌握程度
// @Tags 数据分析
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /analytics/mastery [get]
func (c *AnalyticsController) GetMastery(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.AnalyticsService.GetMasterySummary(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 考试难度系数
// @Description 难度系数 = 1 - 全体作答正确率
// @Tags 教师模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /teacher/analytics/exams/{id}/difficulty [get]
func (c *AnalyticsController) GetExamDifficulty(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))

	factor, err := c.AnalyticsService.GetExamDifficulty(ctx.Request.Context(), examID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"examId": examID, "difficulty": factor})
}

// @Summary 高难度题目
// @Description 按正确率升序返回最难的题目
// @Tags 教师模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Param topN query int false "返回数量"
// @Success 200 {object} util.Response
// @Router /teacher/analytics/exams/{id}/hard-questions [get]
func (c *AnalyticsController) GetHardestQuestions(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	topN, _ := strconv.Atoi(ctx.DefaultQuery("topN", "0"))

	stats, err := c.AnalyticsService.GetHardestQuestions(ctx.Request.Context(), examID, topN)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
