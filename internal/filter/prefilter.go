package filter

import (
	"fmt"
	"strings"

	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// PortFilter 端口类型过滤，最多选一个
type PortFilter int

const (
	None PortFilter = iota
	EPort
	FPort
	NPPort
	Edge
	Core
)

var filterNames = map[PortFilter]string{
	None:   "",
	EPort:  "e",
	FPort:  "f",
	NPPort: "np",
	Edge:   "edge",
	Core:   "core",
}

func (f PortFilter) String() string { return filterNames[f] }

// ParsePortFilter 从名称解析过滤类型，空串为不过滤
func ParsePortFilter(s string) (PortFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range filterNames {
		if name == s {
			return f, nil
		}
	}
	return None, fmt.Errorf("unknown port filter %q (want e, f, np, edge or core)", s)
}

// NeedsClassification 是否需要 brief 分类数据
func (f PortFilter) NeedsClassification() bool { return f != None }

// PreFilter 按分类决定接口是否纳入报表
type PreFilter struct {
	filter  PortFilter
	classes Classification
	notes   []string
}

// NewPreFilter 创建预过滤器
func NewPreFilter(f PortFilter, classes Classification) *PreFilter {
	return &PreFilter{filter: f, classes: classes}
}

// Admit 判定接口；无分类信息时放行并记录提示
func (p *PreFilter) Admit(id string) bool {
	if p.filter == None {
		return true
	}
	info, ok := p.classes[id]
	if !ok {
		note := fmt.Sprintf("intf: %s not in show interface brief output. Unable to filter.", id)
		p.notes = append(p.notes, note)
		logger.WithField("intf", id).Warn("interface missing from brief output, admitted unfiltered")
		return true
	}
	switch p.filter {
	case EPort:
		return strings.HasSuffix(info.OperMode, "E")
	case FPort:
		return strings.HasSuffix(info.OperMode, "F")
	case NPPort:
		return strings.HasSuffix(info.OperMode, "P")
	case Edge:
		return strings.HasSuffix(info.LogicalType, "ge")
	case Core:
		return strings.HasSuffix(info.LogicalType, "re")
	}
	return true
}

// Notes 过滤过程中产生的提示
func (p *PreFilter) Notes() []string {
	return append([]string(nil), p.notes...)
}
