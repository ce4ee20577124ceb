package filter

import (
	"strconv"
	"strings"

	"github.com/sshcollectorpro/intreport/internal/store"
)

// Kind 非零判定方式
type Kind int

const (
	// Counter 计数器：非 NF 且非 "0"
	Counter Kind = iota
	// Transceiver 光模块：带告警标注的读数，或非零整数
	Transceiver
)

// NonZero 仅错误模式下的保留判定
type NonZero struct {
	Kind Kind
	// CompositeZero 复合字段的零值写法，如 0%/0%/0%/0%
	CompositeZero map[string]string
}

// IsNonZero 单个字段是否为非零值
func (n NonZero) IsNonZero(name, value string) bool {
	if value == store.Sentinel {
		return false
	}
	if n.Kind == Transceiver {
		return annotated(value) || positiveInteger(value)
	}
	if value == "0" {
		return false
	}
	if zero, ok := n.CompositeZero[name]; ok && value == zero {
		return false
	}
	return true
}

// Keep 记录中任一字段非零即保留
func (n NonZero) Keep(vars []string, rec store.FieldMap) bool {
	for _, v := range vars {
		if n.IsNonZero(v, rec.Value(v)) {
			return true
		}
	}
	return false
}

// annotated 读数后缀带 +/- 告警标注，如 -16.02-- 或 75.10++
func annotated(v string) bool {
	return strings.Contains(v, ".") && (strings.HasSuffix(v, "-") || strings.HasSuffix(v, "+"))
}

func positiveInteger(v string) bool {
	if v == "0" {
		return false
	}
	_, err := strconv.ParseUint(v, 10, 64)
	return err == nil
}
