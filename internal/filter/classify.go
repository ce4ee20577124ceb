package filter

import (
	"strings"

	"github.com/sshcollectorpro/intreport/internal/parser"
)

// PortInfo show interface brief 中的端口分类信息
type PortInfo struct {
	OperMode    string `json:"oper_mode"`
	LogicalType string `json:"logical_type"`
}

// Classification 接口 -> 分类信息
type Classification map[string]PortInfo

// briefLayout brief 输出中各字段的令牌位置
type briefLayout struct {
	minTokens   int
	operMode    int
	logicalType int
}

var (
	// fc1/1  1  auto  on  up  swl  F  16  --  edge
	fcLayout = briefLayout{minTokens: 10, operMode: 6, logicalType: 9}
	// port-channel10  1  on  trunking  TE  32  --  core
	channelLayout = briefLayout{minTokens: 8, operMode: 4, logicalType: 7}
	// vfc1  1  F  on  trunking  Ethernet1/1  TF  auto，无逻辑类型列
	vfcLayout = briefLayout{minTokens: 7, operMode: 6, logicalType: -1}
)

// ParseBrief 解析 show interface brief 输出
func ParseBrief(text string) Classification {
	out := make(Classification)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		id, ok := parser.EntityName(line)
		if !ok {
			continue
		}
		layout := fcLayout
		switch {
		case strings.HasPrefix(id, "port-channel"), strings.HasPrefix(id, "san-port-channel"):
			layout = channelLayout
		case strings.HasPrefix(id, "vfc"):
			layout = vfcLayout
		}
		toks := parser.Tokenize(line)
		if len(toks) < layout.minTokens {
			continue
		}
		info := PortInfo{OperMode: toks[layout.operMode]}
		if layout.logicalType >= 0 {
			info.LogicalType = toks[layout.logicalType]
		}
		out[id] = info
	}
	return out
}
