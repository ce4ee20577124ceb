package model

import (
	"time"
)

// ReportRun 一次报表生成记录
type ReportRun struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Platform   string `json:"platform" gorm:"type:varchar(32);not null"`
	Mode       string `json:"mode" gorm:"type:varchar(32);not null;index"`
	Device     string `json:"device" gorm:"type:varchar(128);index"`
	Range      string `json:"range" gorm:"type:varchar(128)"`
	Filter     string `json:"filter" gorm:"type:varchar(16)"`
	ErrorsOnly bool   `json:"errors_only"`
	Version    string `json:"version" gorm:"type:varchar(32)"`
	Status     string `json:"status" gorm:"type:varchar(16);not null;default:'success'"`
	// Admitted 纳入报表的接口数，Rows 过滤后的行数
	Admitted  int       `json:"admitted"`
	Rows      int       `json:"rows"`
	Notes     string    `json:"notes" gorm:"type:text"`
	ErrorMsg  string    `json:"error_msg" gorm:"type:text"`
	Location  string    `json:"location" gorm:"type:varchar(512)"`
	StartTime time.Time `json:"start_time"`
	Duration  int64     `json:"duration"` // 毫秒
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName 表名
func (ReportRun) TableName() string {
	return "report_runs"
}

// 运行状态
const (
	RunStatusSuccess = "success"
	// RunStatusPartial 辅助命令失败，报表缺少分类或描述
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)
