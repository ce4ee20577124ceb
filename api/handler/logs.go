package handler

import (
	"bufio"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultTailLines = 200
	maxTailLines     = 1000
)

// LogsHandler 日志查询处理器
type LogsHandler struct {
	path string
}

// NewLogsHandler 创建日志处理器，path 为日志文件路径
func NewLogsHandler(path string) *LogsHandler {
	return &LogsHandler{path: strings.TrimSpace(path)}
}

// TailLogs 返回日志末尾 N 行，可按关键字与级别过滤
// @Router /api/v1/logs [get]
func (h *LogsHandler) TailLogs(c *gin.Context) {
	if h.path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "LOG_PATH_EMPTY", Message: "日志路径未配置"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTailLines)))
	if err != nil || limit <= 0 || limit > maxTailLines {
		limit = defaultTailLines
	}
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	lvl := strings.ToLower(strings.TrimSpace(c.Query("level")))

	lines, err := tailLines(h.path, limit, func(ln string) bool {
		lc := strings.ToLower(ln)
		if q != "" && !strings.Contains(lc, q) {
			return false
		}
		// 兼容 json 与 text 两种格式
		if lvl != "" && !strings.Contains(lc, `"level":"`+lvl+`"`) && !strings.Contains(lc, "level="+lvl) {
			return false
		}
		return true
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "READ_FAILED", Message: "读取日志失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "获取日志成功",
		Data:    gin.H{"path": h.path, "count": len(lines), "lines": lines},
	})
}

// tailLines 保留最后 limit 条匹配的行
func tailLines(path string, limit int, keep func(string) bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, limit)
	next := 0
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for s.Scan() {
		ln := s.Text()
		if !keep(ln) {
			continue
		}
		if len(ring) < limit {
			ring = append(ring, ln)
			continue
		}
		ring[next] = ln
		next = (next + 1) % limit
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return append(ring[next:], ring[:next]...), nil
}
