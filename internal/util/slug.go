package util

import (
	"regexp"
	"strings"
)

var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`)

// Slug 命令或设备名转换为文件名
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(s)
	s = slugRe.ReplaceAllString(s, "")
	if s == "" {
		s = "unknown"
	}
	return s
}

// CaptureFile 命令输出抓取文件名，回放与模拟器共用
func CaptureFile(command string) string {
	return Slug(command) + ".txt"
}
