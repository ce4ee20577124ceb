package pattern

import "fmt"

// MaxHeadingRows 表头最多行数
const MaxHeadingRows = 3

// ColumnPattern 一个候选模式；Heading 为 nil 时不产生可见列
type ColumnPattern struct {
	Heading []string
	Tokens  []Token
}

// Col 可见列模式
func Col(heading []string, toks ...Token) ColumnPattern {
	return ColumnPattern{Heading: heading, Tokens: toks}
}

// Hidden 不产生列的模式，一般用于追加
func Hidden(toks ...Token) ColumnPattern {
	return ColumnPattern{Tokens: toks}
}

// Heading 表头文本，每个参数占一行
func Heading(rows ...string) []string {
	return rows
}

// Visible 是否产生可见列
func (p ColumnPattern) Visible() bool { return p.Heading != nil }

// Var 第一个捕获/追加变量名
func (p ColumnPattern) Var() string {
	for _, t := range p.Tokens {
		if t.Binds() {
			return t.Text
		}
	}
	return ""
}

// Literals 字面量令牌个数
func (p ColumnPattern) Literals() int {
	n := 0
	for _, t := range p.Tokens {
		if t.Kind == KindLiteral {
			n++
		}
	}
	return n
}

// LineRule 按令牌数选择的一组候选模式
type LineRule struct {
	Counts       []int
	Alternatives []ColumnPattern
}

// Rule 构造行规则
func Rule(counts []int, alts ...ColumnPattern) LineRule {
	return LineRule{Counts: counts, Alternatives: alts}
}

// N 令牌数列表
func N(counts ...int) []int { return counts }

// Accepts 令牌数是否命中
func (r LineRule) Accepts(n int) bool {
	for _, c := range r.Counts {
		if c == n {
			return true
		}
	}
	return false
}

func (r LineRule) maxCount() int {
	m := 0
	for _, c := range r.Counts {
		if c > m {
			m = c
		}
	}
	return m
}

// Table 模式表，构造后只读
type Table []LineRule

// Column 输出列描述
type Column struct {
	Heading []string
	Var     string
}

// Columns 按表顺序列出可见列
func (t Table) Columns() []Column {
	var cols []Column
	for _, r := range t {
		for _, alt := range r.Alternatives {
			if !alt.Visible() {
				continue
			}
			cols = append(cols, Column{Heading: alt.Heading, Var: alt.Var()})
		}
	}
	return cols
}

// Vars 所有声明过的变量名（去重，保持顺序）
func (t Table) Vars() []string {
	seen := make(map[string]bool)
	var vars []string
	for _, r := range t {
		for _, alt := range r.Alternatives {
			for _, tok := range alt.Tokens {
				if tok.Binds() && !seen[tok.Text] {
					seen[tok.Text] = true
					vars = append(vars, tok.Text)
				}
			}
		}
	}
	return vars
}

// HeaderRows 表头行数，至少为 1
func (t Table) HeaderRows() int {
	rows := 1
	for _, c := range t.Columns() {
		if len(c.Heading) > rows {
			rows = len(c.Heading)
		}
	}
	return rows
}

// Validate 检查表结构
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("pattern table is empty")
	}
	for i, r := range t {
		if len(r.Counts) == 0 || len(r.Counts) > 2 {
			return fmt.Errorf("rule %d: expected one or two token counts, got %d", i, len(r.Counts))
		}
		for _, c := range r.Counts {
			if c <= 0 {
				return fmt.Errorf("rule %d: invalid token count %d", i, c)
			}
		}
		if len(r.Alternatives) == 0 {
			return fmt.Errorf("rule %d: no patterns", i)
		}
		for j, alt := range r.Alternatives {
			if len(alt.Tokens) == 0 {
				return fmt.Errorf("rule %d pattern %d: no tokens", i, j)
			}
			if len(alt.Tokens) > r.maxCount() {
				return fmt.Errorf("rule %d pattern %d: %d tokens exceed accepted count %v", i, j, len(alt.Tokens), r.Counts)
			}
			if len(alt.Heading) > MaxHeadingRows {
				return fmt.Errorf("rule %d pattern %d: heading has %d rows, max %d", i, j, len(alt.Heading), MaxHeadingRows)
			}
			if alt.Visible() && alt.Var() == "" {
				return fmt.Errorf("rule %d pattern %d: visible column %v binds no variable", i, j, alt.Heading)
			}
			if alt.Visible() && alt.Literals() == 0 {
				return fmt.Errorf("rule %d pattern %d: visible column %v has no literal and never matches", i, j, alt.Heading)
			}
		}
	}
	return nil
}
