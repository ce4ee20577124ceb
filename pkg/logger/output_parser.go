package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputLines 命令输出的头部和尾部行
type OutputLines struct {
	HeadLines []string `json:"head_lines"`
	TailLines []string `json:"tail_lines"`
	Total     int      `json:"total"`
}

// ParseOutputLines 提取头尾各 maxLines 行，输出较短时尾部为空
func ParseOutputLines(output string, maxLines int) OutputLines {
	if maxLines <= 0 {
		maxLines = 5
	}
	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return OutputLines{}
	}
	lines := strings.Split(output, "\n")
	res := OutputLines{Total: len(lines)}
	if len(lines) <= maxLines {
		res.HeadLines = lines
		return res
	}
	res.HeadLines = append([]string(nil), lines[:maxLines]...)
	tailStart := len(lines) - maxLines
	if tailStart < maxLines {
		tailStart = maxLines
	}
	res.TailLines = append([]string(nil), lines[tailStart:]...)
	return res
}

// FormatOutputLines 格式化为单行日志文本
func FormatOutputLines(lines OutputLines) string {
	var parts []string
	if len(lines.HeadLines) > 0 {
		parts = append(parts, "head-lines: ["+strings.Join(lines.HeadLines, " ⟩ ")+"]")
	}
	if len(lines.TailLines) > 0 {
		parts = append(parts, "tail-lines: ["+strings.Join(lines.TailLines, " ⟩ ")+"]")
	}
	return strings.Join(parts, ", ")
}

// DebugCommandOutput 在 debug 级别记录命令回显的头尾行
func DebugCommandOutput(command string, output string, maxLines int) {
	if GetLogger().Level < logrus.DebugLevel {
		return
	}
	lines := ParseOutputLines(output, maxLines)
	if lines.Total == 0 {
		return
	}
	WithFields(logrus.Fields{"command": command, "lines": lines.Total}).
		Debug(FormatOutputLines(lines))
}
