package cisco_mds

import (
	"github.com/sshcollectorpro/intreport/addone/modes"
	"github.com/sshcollectorpro/intreport/internal/filter"
	"github.com/sshcollectorpro/intreport/internal/parser"
	"github.com/sshcollectorpro/intreport/internal/pattern"
)

// measurement 读数行：当前值后可能跟一个告警标注令牌（++ + -- -）。
// 有标注时行多一个令牌，由隐藏模式把标注追加到读数后面。
func measurement(label []string, unit, name string, heading []string) pattern.LineRule {
	n := len(label)
	var plain, annotated []pattern.Token
	for _, l := range label {
		plain = append(plain, pattern.Lit(l))
		annotated = append(annotated, pattern.Lit(l))
	}
	plain = append(plain, pattern.Cap(name), pattern.Lit(unit))
	annotated = append(annotated, pattern.Any(), pattern.Lit(unit), pattern.App(name), pattern.Any(), pattern.Lit(unit))
	// 标签 + 当前值与四个门限，每个读数两个令牌
	base := n + 10
	return pattern.Rule(pattern.N(base, base+1),
		pattern.Col(heading, plain...),
		pattern.Hidden(annotated...),
	)
}

// transceiverMode 光模块读数与告警
func transceiverMode() *modes.Mode {
	return &modes.Mode{
		Platform: Platform,
		Name:     "transceiver",
		Summary:  "transceiver readings, alarms and warnings",
		Command:  "show interface {range}transceiver details",
		Boundary: parser.Boundary{
			Checks:     []parser.FieldCheck{{Index: 1, Equals: "sfp"}},
			NotPresent: parser.DefaultNotPresent,
		},
		NonZero: filter.NonZero{Kind: filter.Transceiver},
		Table: pattern.Table{
			pattern.Rule(pattern.N(4), pattern.Col(pattern.Heading("Cisco", "PID"), pattern.MustParse("Cisco pid is %xcvr_pid")...)),
			pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("Speeds", "Gbps"), pattern.MustParse("Supported speed is %xcvr_speeds Gbps")...)),
			measurement([]string{"Temperature"}, "C", "xcvr_temp", pattern.Heading("Temp", "C")),
			measurement([]string{"Voltage"}, "V", "xcvr_voltage", pattern.Heading("Voltage", "V")),
			measurement([]string{"Current"}, "mA", "xcvr_current", pattern.Heading("Current", "mA")),
			measurement([]string{"Tx", "Power"}, "dBm", "xcvr_tx_pwr", pattern.Heading("Tx Power", "dBm")),
			measurement([]string{"Rx", "Power"}, "dBm", "xcvr_rx_pwr", pattern.Heading("Rx Power", "dBm")),
			pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("Tx", "Faults"), pattern.MustParse("Transmit Fault Count = %xcvr_tx_faults")...)),
		},
	}
}
