// Package version 解析与比较 NX-OS 版本号，例如 8.4(2c)、9.3(5)
package version

import (
	"regexp"
	"strconv"
	"strings"
)

// Build 程序自身版本，构建时通过 -ldflags "-X .../internal/version.Build=..." 注入
var Build = "dev"

var showVersionRe = regexp.MustCompile(`(?m)^\s*(?:system|NXOS|kickstart):\s+version\s+(\S+)`)

// Parse 从 show version 输出中提取系统版本，找不到时返回空串
func Parse(showVersion string) string {
	m := showVersionRe.FindStringSubmatch(showVersion)
	if m == nil {
		return ""
	}
	return m[1]
}

// Compare 比较两个版本：a<b 返回 -1，相等 0，a>b 返回 1。
// 数字段按数值比较，字母段按字典序比较，缺失的段视为最小。
func Compare(a, b string) int {
	pa, pb := split(a), split(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		if i >= len(pa) {
			return -1
		}
		if i >= len(pb) {
			return 1
		}
		if c := compareSegment(pa[i], pb[i]); c != 0 {
			return c
		}
	}
	return 0
}

// AtLeast a >= min；min 为空时恒成立
func AtLeast(a, min string) bool {
	if strings.TrimSpace(min) == "" {
		return true
	}
	return Compare(a, min) >= 0
}

// split 8.4(2c) -> [8 4 2 c]
func split(v string) []string {
	var out []string
	var cur strings.Builder
	digit := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.TrimSpace(v) {
		isDigit := r >= '0' && r <= '9'
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isDigit && !isAlpha {
			flush()
			continue
		}
		if cur.Len() > 0 && isDigit != digit {
			flush()
		}
		digit = isDigit
		cur.WriteRune(r)
	}
	flush()
	return out
}

func compareSegment(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		// 数字段大于字母段：8.4(2) > 8.4(a)
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
