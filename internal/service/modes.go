package service

import (
	"strings"

	"github.com/sshcollectorpro/intreport/addone/modes"
)

// ModeInfo 模式说明
type ModeInfo struct {
	Platform string   `json:"platform"`
	Name     string   `json:"name"`
	Summary  string   `json:"summary"`
	Command  string   `json:"command"`
	Columns  []string `json:"columns"`
}

// DescribeModes 列出平台模式与自定义模式
func DescribeModes(platform string) []ModeInfo {
	list := modes.List(platform)
	if platform != modes.CustomPlatform {
		list = append(list, modes.List(modes.CustomPlatform)...)
	}
	out := make([]ModeInfo, 0, len(list))
	for _, m := range list {
		info := ModeInfo{
			Platform: m.Platform,
			Name:     m.Name,
			Summary:  m.Summary,
			Command:  m.CommandFor(""),
		}
		for _, c := range m.Table.Columns() {
			info.Columns = append(info.Columns, strings.Join(c.Heading, " "))
		}
		out = append(out, info)
	}
	return out
}
