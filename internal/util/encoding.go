package util

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/sshcollectorpro/intreport/internal/config"
)

// legacyEncodings 设备回显中出现过的非 UTF-8 编码，接口描述可能由运维以本地编码写入
var legacyEncodings = []encoding.Encoding{
	simplifiedchinese.GB18030,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// EnsureUTF8Bytes 非 UTF-8 时尝试按常见编码解码
func EnsureUTF8Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	for _, enc := range legacyEncodings {
		if s, ok := tryDecode(enc, b); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(b), "?")
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), enc.NewDecoder()))
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}

// NormalizeOutput 统一编码与换行，并移除分页提示等噪声行
func NormalizeOutput(raw []byte, f config.OutputFilterConfig) string {
	s := EnsureUTF8Bytes(raw)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return ApplyLineFilter(f, s)
}

// ApplyLineFilter 按前缀/包含过滤行
func ApplyLineFilter(f config.OutputFilterConfig, s string) string {
	if s == "" || (len(f.Prefixes) == 0 && len(f.Contains) == 0) {
		return s
	}
	norm := func(v string) string {
		if f.TrimSpace {
			v = strings.TrimSpace(v)
		}
		if f.CaseInsensitive {
			v = strings.ToLower(v)
		}
		return v
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		cmp := norm(ln)
		if !matchesAny(cmp, f.Prefixes, norm, strings.HasPrefix) &&
			!matchesAny(cmp, f.Contains, norm, strings.Contains) {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

func matchesAny(s string, patterns []string, norm func(string) string, fn func(string, string) bool) bool {
	for _, p := range patterns {
		if p = norm(p); p != "" && fn(s, p) {
			return true
		}
	}
	return false
}
