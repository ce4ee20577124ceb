package service

import (
	"time"

	"github.com/sshcollectorpro/intreport/internal/report"
)

// Target 采集目标；Host 为空时按 runner.type 在本机执行或回放
type Target struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
}

// Request 报表请求
type Request struct {
	Platform    string `json:"platform,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Range       string `json:"range,omitempty"`
	Filter      string `json:"filter,omitempty"`
	ErrorsOnly  bool   `json:"errors_only,omitempty"`
	Description bool   `json:"description,omitempty"`
	Target      Target `json:"target"`
	// Strict 主命令失败时返回错误
	Strict bool `json:"strict,omitempty"`
	// OutFile 写入本地文件，Append 为追加
	OutFile string `json:"-"`
	Append  bool   `json:"-"`
	// Archive 归档到 output.backend
	Archive bool `json:"archive,omitempty"`
}

// StoredObject 存储的对象信息
type StoredObject struct {
	URI         string `json:"uri"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
}

// Result 一次报表运行的结果
type Result struct {
	RunID     string         `json:"run_id"`
	Platform  string         `json:"platform"`
	Mode      string         `json:"mode"`
	Version   string         `json:"version,omitempty"`
	Banner    string         `json:"banner"`
	Report    *report.Result `json:"report"`
	Stored    []StoredObject `json:"stored,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	Status    string         `json:"status"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// Text 终端输出：标题行与表格
func (r *Result) Text() string {
	return r.Banner + "\n" + r.Report.Text()
}
