package report

import (
	"strings"

	"github.com/sshcollectorpro/intreport/addone/modes"
	"github.com/sshcollectorpro/intreport/internal/filter"
	"github.com/sshcollectorpro/intreport/internal/parser"
	"github.com/sshcollectorpro/intreport/internal/render"
	"github.com/sshcollectorpro/intreport/internal/store"
)

// Options 报表选项
type Options struct {
	Filter      filter.PortFilter `json:"-"`
	ErrorsOnly  bool              `json:"errors_only"`
	Description bool              `json:"description"`
	// DescriptionCap 描述截断长度，0 使用默认值
	DescriptionCap int `json:"description_cap,omitempty"`
}

// Input 报表所需的命令输出
type Input struct {
	Main         string
	Brief        string
	Descriptions string
}

// Record 单个接口的结果
type Record struct {
	ID          string            `json:"intf"`
	Fields      map[string]string `json:"fields"`
	Description string            `json:"description,omitempty"`
}

// Result 报表结果
type Result struct {
	Title    string       `json:"title"`
	Lines    []string     `json:"lines"`
	Admitted int          `json:"admitted"`
	Rows     int          `json:"rows"`
	Notes    []string     `json:"notes,omitempty"`
	Records  []Record     `json:"records"`
	Stats    parser.Stats `json:"-"`
}

// Text 表格文本，无数据时为空串
func (r *Result) Text() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Lines, "\n") + "\n"
}

// Build 解析输出并生成表格
func Build(m *modes.Mode, rng string, in Input, opts Options) *Result {
	vars := m.Table.Vars()
	st := store.New(vars)

	var classes filter.Classification
	if opts.Filter.NeedsClassification() {
		classes = filter.ParseBrief(in.Brief)
	}
	pre := filter.NewPreFilter(opts.Filter, classes)
	seg := parser.NewSegmenter(m.Boundary, parser.NewMatcher(m.Table), st, pre.Admit)
	stats := seg.Run(in.Main)

	var descs map[string]string
	if opts.Description {
		limit := opts.DescriptionCap
		if limit <= 0 {
			limit = render.DescriptionCap
		}
		descs = ParseDescriptions(in.Descriptions, limit)
	}

	cols := m.Table.Columns()
	res := &Result{
		Title:    m.TitleFor(rng),
		Admitted: st.Len(),
		Notes:    pre.Notes(),
		Stats:    stats,
	}
	var rows []render.Row
	for _, id := range st.Order() {
		rec, _ := st.Get(id)
		if opts.ErrorsOnly && !m.NonZero.Keep(vars, rec) {
			continue
		}
		row := render.Row{ID: id, Cells: make([]string, len(cols)), Description: descs[id]}
		for i, c := range cols {
			row.Cells[i] = rec.Value(c.Var)
		}
		rows = append(rows, row)
		res.Records = append(res.Records, Record{ID: id, Fields: copyFields(rec), Description: row.Description})
	}
	res.Rows = len(rows)
	res.Lines = render.Render(render.Layout{
		Columns:     cols,
		HeaderRows:  m.Table.HeaderRows(),
		Description: opts.Description,
	}, rows)
	return res
}

func copyFields(rec store.FieldMap) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
