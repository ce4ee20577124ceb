package modes

import (
	"fmt"
	"strings"

	"github.com/sshcollectorpro/intreport/internal/filter"
	"github.com/sshcollectorpro/intreport/internal/parser"
	"github.com/sshcollectorpro/intreport/internal/pattern"
)

// RangePlaceholder 命令模板中的接口范围占位符
const RangePlaceholder = "{range}"

const (
	// DefaultBriefCommand 端口分类数据来源
	DefaultBriefCommand = "show interface {range}brief"
	// DefaultDescriptionCommand 接口描述数据来源
	DefaultDescriptionCommand = "show interface {range}description"
)

// Mode 一种报表：命令、模式表与判定规则
type Mode struct {
	Platform string
	Name     string
	// Summary 帮助文本
	Summary string
	// Title 报表标题模板
	Title   string
	Command string
	// BriefCommand / DescriptionCommand 为空时使用默认命令
	BriefCommand       string
	DescriptionCommand string
	Table              pattern.Table
	Boundary           parser.Boundary
	NonZero            filter.NonZero
	// MinVersion 要求的最低系统版本，空为不限制
	MinVersion string
}

// ExpandRange 展开 {range}：有范围时为 "<range> "，否则为空
func ExpandRange(tmpl, rng string) string {
	rng = strings.TrimSpace(rng)
	if rng != "" {
		rng += " "
	}
	return strings.ReplaceAll(tmpl, RangePlaceholder, rng)
}

// CommandFor 主命令
func (m *Mode) CommandFor(rng string) string { return ExpandRange(m.Command, rng) }

// TitleFor 报表标题
func (m *Mode) TitleFor(rng string) string {
	if m.Title == "" {
		return m.CommandFor(rng)
	}
	return ExpandRange(m.Title, rng)
}

// BriefCommandFor 分类命令
func (m *Mode) BriefCommandFor(rng string) string {
	if m.BriefCommand == "" {
		return ExpandRange(DefaultBriefCommand, rng)
	}
	return ExpandRange(m.BriefCommand, rng)
}

// DescriptionCommandFor 描述命令
func (m *Mode) DescriptionCommandFor(rng string) string {
	if m.DescriptionCommand == "" {
		return ExpandRange(DefaultDescriptionCommand, rng)
	}
	return ExpandRange(m.DescriptionCommand, rng)
}

// Validate 检查模式定义
func (m *Mode) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("mode name is empty")
	}
	if strings.TrimSpace(m.Command) == "" {
		return fmt.Errorf("mode %s: command is empty", m.Name)
	}
	if err := m.Table.Validate(); err != nil {
		return fmt.Errorf("mode %s: %w", m.Name, err)
	}
	return nil
}
