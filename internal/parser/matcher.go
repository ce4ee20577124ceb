package parser

import (
	"strings"

	"github.com/sshcollectorpro/intreport/internal/pattern"
	"github.com/sshcollectorpro/intreport/internal/store"
)

// Tokenize 按空白切分
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// Matcher 将单行与模式表比对，并把结果提交到记录
type Matcher struct {
	table pattern.Table
}

// NewMatcher 创建行匹配器
func NewMatcher(table pattern.Table) *Matcher {
	return &Matcher{table: table}
}

// Match 匹配一行，返回提交次数。
// 同一行内候选模式依次评估，后面的模式能看到前面已提交的值。
func (m *Matcher) Match(rec store.FieldMap, line string) int {
	toks := Tokenize(line)
	if len(toks) == 0 || rec == nil {
		return 0
	}
	commits := 0
	for _, rule := range m.table {
		if !rule.Accepts(len(toks)) {
			continue
		}
		for _, alt := range rule.Alternatives {
			name, value, ok := evaluate(alt.Tokens, toks, rec)
			if !ok {
				continue
			}
			rec[name] = value
			commits++
		}
	}
	return commits
}

// evaluate 按位置比对；至少一个字面量命中且无字面量失配才算成功，
// 只返回最后一次绑定
func evaluate(pat []pattern.Token, toks []string, rec store.FieldMap) (string, string, bool) {
	if len(pat) > len(toks) {
		return "", "", false
	}
	var name, value string
	confirmed := false
	for i, pt := range pat {
		tok := toks[i]
		switch pt.Kind {
		case pattern.KindWildcard:
		case pattern.KindLiteral:
			if tok != pt.Text {
				return "", "", false
			}
			confirmed = true
		case pattern.KindCapture:
			name, value = pt.Text, tok
		case pattern.KindAppend:
			base := rec[pt.Text]
			if name == pt.Text {
				base = value
			}
			if base == store.Sentinel {
				base = ""
			}
			name, value = pt.Text, base+tok
		}
	}
	if !confirmed || name == "" {
		return "", "", false
	}
	return name, value, true
}
