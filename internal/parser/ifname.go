package parser

import (
	"strings"
)

// 逻辑接口前缀，长前缀在前
var logicalPrefixes = []string{"san-port-channel", "port-channel", "vfc"}

// EntityName 判断行首是否为接口名（不允许前导空白），返回规范化后的名称
func EntityName(line string) (string, bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return "", false
	}
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return "", false
	}
	name := toks[0]
	switch {
	case strings.HasPrefix(name, "fc"):
		if !isSlot(name[2:]) {
			return "", false
		}
	case hasLogicalPrefix(name):
	case isShortPortChannel(name):
	default:
		return "", false
	}
	return CanonicalName(name), true
}

// CanonicalName 规范化接口名：po10 -> port-channel10
func CanonicalName(name string) string {
	if isShortPortChannel(name) {
		return "port-channel" + name[2:]
	}
	return name
}

// isSlot 形如 1/3 的模块/端口地址，恰好两段
func isSlot(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return false
	}
	return isDigits(parts[0]) && isDigits(parts[1])
}

// hasLogicalPrefix vfc 也允许 vfc1/1 形式
func hasLogicalPrefix(name string) bool {
	for _, p := range logicalPrefixes {
		if !strings.HasPrefix(name, p) {
			continue
		}
		rest := name[len(p):]
		if isDigits(rest) || (p == "vfc" && isSlot(rest)) {
			return true
		}
	}
	return false
}

func isShortPortChannel(name string) bool {
	return len(name) > 2 && strings.HasPrefix(strings.ToLower(name), "po") && isDigits(name[2:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
