package parser

import (
	"strings"

	"github.com/sshcollectorpro/intreport/internal/store"
)

// DefaultNotPresent 默认的端口不存在标记
var DefaultNotPresent = []string{"not present"}

// FieldCheck 要求边界行第 Index 个令牌等于 Equals
type FieldCheck struct {
	Index  int    `json:"index"`
	Equals string `json:"equals"`
}

// Boundary 块边界规则
type Boundary struct {
	Checks []FieldCheck
	// NotPresent 边界行以这些标记结尾时只登记实体，不关联后续行
	NotPresent []string
}

// Identify 判断是否为边界行，返回实体 ID
func (b Boundary) Identify(line string) (string, bool) {
	id, ok := EntityName(line)
	if !ok {
		return "", false
	}
	if len(b.Checks) > 0 {
		toks := Tokenize(line)
		for _, c := range b.Checks {
			if c.Index >= len(toks) || toks[c.Index] != c.Equals {
				return "", false
			}
		}
	}
	return id, true
}

func (b Boundary) notPresent(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, m := range b.NotPresent {
		if m != "" && strings.HasSuffix(trimmed, m) {
			return true
		}
	}
	return false
}

// AdmitFunc 预过滤判定
type AdmitFunc func(id string) bool

// Stats 分段统计
type Stats struct {
	Lines      int
	Boundaries int
	Excluded   int
	Matched    int
}

// Segmenter 把输出切分为按接口的块，块内行交给 Matcher
type Segmenter struct {
	boundary Boundary
	matcher  *Matcher
	store    *store.Store
	admit    AdmitFunc

	current store.FieldMap
	stats   Stats
}

// NewSegmenter 创建分段器；admit 为 nil 时全部放行
func NewSegmenter(b Boundary, m *Matcher, st *store.Store, admit AdmitFunc) *Segmenter {
	if admit == nil {
		admit = func(string) bool { return true }
	}
	return &Segmenter{boundary: b, matcher: m, store: st, admit: admit}
}

// Feed 处理单行
func (s *Segmenter) Feed(line string) {
	s.stats.Lines++
	if id, ok := s.boundary.Identify(line); ok {
		s.stats.Boundaries++
		s.current = nil
		if !s.admit(id) {
			s.stats.Excluded++
			return
		}
		rec := s.store.Register(id)
		if !s.boundary.notPresent(line) {
			s.current = rec
		}
		return
	}
	if s.current == nil {
		return
	}
	if s.matcher.Match(s.current, line) > 0 {
		s.stats.Matched++
	}
}

// Run 处理整段文本
func (s *Segmenter) Run(text string) Stats {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		s.Feed(line)
	}
	return s.stats
}
