package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sshcollectorpro/intreport/internal/database"
	"github.com/sshcollectorpro/intreport/internal/model"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// History 报表运行记录
type History struct {
	db *gorm.DB
}

// NewHistory 创建运行记录存储
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// HistoryQuery 查询条件
type HistoryQuery struct {
	Mode   string `form:"mode"`
	Device string `form:"device"`
	Limit  int    `form:"limit"`
}

// Record 保存一次运行
func (h *History) Record(ctx context.Context, run *model.ReportRun) error {
	err := database.WithRetry(h.db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Create(run).Error
	}, 3, 0)
	if err != nil {
		return fmt.Errorf("failed to record report run: %w", err)
	}
	return nil
}

// List 按时间倒序列出运行记录
func (h *History) List(ctx context.Context, q HistoryQuery) ([]model.ReportRun, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	tx := h.db.WithContext(ctx).Model(&model.ReportRun{})
	if m := strings.TrimSpace(q.Mode); m != "" {
		tx = tx.Where("mode = ?", m)
	}
	if d := strings.TrimSpace(q.Device); d != "" {
		tx = tx.Where("device = ?", d)
	}

	var runs []model.ReportRun
	if err := tx.Order("created_at DESC").Order("start_time DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	return runs, nil
}
