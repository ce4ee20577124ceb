package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/intreport/api/handler"
	"github.com/sshcollectorpro/intreport/internal/version"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// SetupRouter 设置路由；logs 为 nil 时不挂载日志接口
func SetupRouter(reports *handler.ReportHandler, logs *handler.LogsHandler, mode string) *gin.Engine {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "intreport",
			"version": version.Build,
			"status":  "running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", reports.Health)
		v1.GET("/modes", reports.Modes)

		rep := v1.Group("/reports")
		{
			rep.POST("/render", reports.Render)
			rep.POST("/collect", reports.Collect)
			rep.GET("/runs", reports.Runs)
		}

		if logs != nil {
			v1.GET("/logs", logs.TailLogs)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if status >= http.StatusBadRequest {
			entry.Warn("HTTP request failed")
			return
		}
		entry.Info("HTTP request")
	}
}
