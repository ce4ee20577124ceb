package report

import (
	"strings"

	"github.com/sshcollectorpro/intreport/internal/parser"
	"github.com/sshcollectorpro/intreport/internal/render"
)

// ParseDescriptions 解析 show interface description 输出，按规范化接口名索引
func ParseDescriptions(text string, limit int) map[string]string {
	out := make(map[string]string)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		id, ok := parser.EntityName(line)
		if !ok {
			continue
		}
		first := parser.Tokenize(line)[0]
		desc := strings.TrimSpace(strings.TrimPrefix(line, first))
		if desc == "--" {
			desc = ""
		}
		out[id] = render.TruncateDescription(desc, limit)
	}
	return out
}
