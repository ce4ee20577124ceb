package render

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sshcollectorpro/intreport/internal/pattern"
)

const (
	// EntityLabel 首列表头
	EntityLabel = "Intf"
	// DescriptionLabel 描述列表头
	DescriptionLabel = "Description"
	// DescriptionCap 描述最大字符数
	DescriptionCap = 65
	// BannerTimeFormat 标题行时间格式
	BannerTimeFormat = "2006-01-02 15:04:05"
)

// Row 一行数据，Cells 与列一一对应
type Row struct {
	ID          string
	Cells       []string
	Description string
}

// Layout 表格结构
type Layout struct {
	Columns     []pattern.Column
	HeaderRows  int
	Description bool
}

type align int

const (
	left align = iota
	right
)

type column struct {
	header []string
	cells  []string
	align  align
	width  int
}

// Render 生成表格文本行；没有数据行时返回 nil
func Render(l Layout, rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	hdr := l.HeaderRows
	if hdr < 1 {
		hdr = 1
	}

	cols := make([]*column, 0, len(l.Columns)+2)
	ids := &column{header: padHeading([]string{EntityLabel}, hdr), align: left}
	cols = append(cols, ids)
	for _, r := range rows {
		ids.cells = append(ids.cells, r.ID)
	}
	for i, c := range l.Columns {
		col := &column{header: padHeading(c.Heading, hdr), align: right}
		for _, r := range rows {
			cell := ""
			if i < len(r.Cells) {
				cell = r.Cells[i]
			}
			col.cells = append(col.cells, cell)
		}
		cols = append(cols, col)
	}
	if l.Description {
		desc := &column{header: padHeading([]string{DescriptionLabel}, hdr), align: left}
		for _, r := range rows {
			desc.cells = append(desc.cells, r.Description)
		}
		cols = append(cols, desc)
	}

	for _, c := range cols {
		for _, h := range c.header {
			c.width = max(c.width, utf8.RuneCountInString(h))
		}
		for _, v := range c.cells {
			c.width = max(c.width, utf8.RuneCountInString(v))
		}
	}

	rule := ruleLine(cols)
	lines := []string{rule}
	for i := 0; i < hdr; i++ {
		parts := make([]string, len(cols))
		for j, c := range cols {
			parts[j] = pad(c.header[i], c.width, left)
		}
		lines = append(lines, joinCells(parts))
	}
	for i := range rows {
		parts := make([]string, len(cols))
		for j, c := range cols {
			parts[j] = pad(c.cells[i], c.width, c.align)
		}
		lines = append(lines, joinCells(parts))
	}
	return append(lines, rule)
}

// Banner 终端输出的首行
func Banner(now time.Time, title string) string {
	return now.Format(BannerTimeFormat) + " " + title
}

// TruncateDescription 按字符截断描述
func TruncateDescription(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// padHeading 表头顶部对齐，不足的行在底部补空
func padHeading(h []string, rows int) []string {
	out := make([]string, rows)
	copy(out, h)
	return out
}

func ruleLine(cols []*column) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, c := range cols {
		b.WriteString(strings.Repeat("-", c.width))
		b.WriteByte('+')
	}
	return b.String()
}

func joinCells(parts []string) string {
	return "|" + strings.Join(parts, "|") + "|"
}

func pad(s string, width int, a align) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if a == right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
