package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/intreport/internal/database"
	"github.com/sshcollectorpro/intreport/internal/report"
	"github.com/sshcollectorpro/intreport/internal/service"
	"github.com/sshcollectorpro/intreport/pkg/cache"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RenderRequest 对已有输出生成报表
type RenderRequest struct {
	Platform    string `json:"platform"`
	Mode        string `json:"mode"`
	Range       string `json:"range"`
	Filter      string `json:"filter"`
	ErrorsOnly  bool   `json:"errors_only"`
	Description bool   `json:"description"`
	// Output 主命令输出
	Output       string `json:"output" binding:"required"`
	Brief        string `json:"brief"`
	Descriptions string `json:"descriptions"`
}

// ReportHandler 报表处理器
type ReportHandler struct {
	svc      *service.ReportService
	history  *service.History
	platform string
}

// NewReportHandler 创建报表处理器；history 为 nil 表示未启用运行记录
func NewReportHandler(svc *service.ReportService, history *service.History, platform string) *ReportHandler {
	return &ReportHandler{svc: svc, history: history, platform: platform}
}

// Health 健康检查
// @Router /api/v1/health [get]
func (h *ReportHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	if cache.Enabled() {
		deps["redis"] = healthState(cache.Health(ctx))
	}
	if h.history != nil {
		deps["database"] = healthState(database.Health())
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "服务正常",
		Data:    gin.H{"status": "running", "platform": h.platform, "dependencies": deps},
	})
}

// Modes 列出报表模式
// @Router /api/v1/modes [get]
func (h *ReportHandler) Modes(c *gin.Context) {
	platform := c.DefaultQuery("platform", h.platform)
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "获取模式成功",
		Data:    service.DescribeModes(platform),
	})
}

// Render 对提交的命令输出生成报表
// @Accept json
// @Produce json
// @Param request body RenderRequest true "命令输出与报表选项"
// @Router /api/v1/reports/render [post]
func (h *ReportHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: "请求参数无效: " + err.Error()})
		return
	}

	res, err := h.svc.Render(service.Request{
		Platform:    req.Platform,
		Mode:        req.Mode,
		Range:       req.Range,
		Filter:      req.Filter,
		ErrorsOnly:  req.ErrorsOnly,
		Description: req.Description,
	}, report.Input{Main: req.Output, Brief: req.Brief, Descriptions: req.Descriptions})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Message: "报表生成成功", Data: res})
}

// Collect 通过 SSH 采集设备并生成报表
// @Accept json
// @Produce json
// @Param request body service.Request true "设备与报表选项"
// @Router /api/v1/reports/collect [post]
func (h *ReportHandler) Collect(c *gin.Context) {
	var req service.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: "请求参数无效: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Target.Host) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: "target.host 不能为空"})
		return
	}

	res, err := h.svc.Run(c.Request.Context(), req)
	if err != nil {
		logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("report collect failed")
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Message: "报表生成成功", Data: res})
}

// Runs 查询运行记录
// @Router /api/v1/reports/runs [get]
func (h *ReportHandler) Runs(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "HISTORY_DISABLED", Message: "运行记录未启用"})
		return
	}
	var q service.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: "查询参数无效: " + err.Error()})
		return
	}
	runs, err := h.history.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "QUERY_FAILED", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Message: "获取运行记录成功", Data: gin.H{"count": len(runs), "runs": runs}})
}

func (h *ReportHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownMode):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "UNKNOWN_MODE", Message: err.Error()})
	case errors.Is(err, service.ErrUnsupportedVersion):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: "UNSUPPORTED_VERSION", Message: err.Error()})
	case strings.Contains(err.Error(), "unknown port filter"):
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "EXEC_FAILED", Message: "报表生成失败: " + err.Error()})
	}
}

func healthState(err error) string {
	if err != nil {
		return "down: " + err.Error()
	}
	return "up"
}
