package cisco_mds

import (
	"github.com/sshcollectorpro/intreport/addone/modes"
	"github.com/sshcollectorpro/intreport/internal/filter"
	"github.com/sshcollectorpro/intreport/internal/parser"
	"github.com/sshcollectorpro/intreport/internal/pattern"
)

const countersCommand = "show interface {range}counters detailed"

// physicalMode 物理层错误计数
func physicalMode() *modes.Mode {
	return &modes.Mode{
		Platform: Platform,
		Name:     "physical",
		Summary:  "physical errors (default)",
		Command:  countersCommand,
		Boundary: parser.Boundary{NotPresent: parser.DefaultNotPresent},
		NonZero:  filter.NonZero{Kind: filter.Counter},
		Table: pattern.Table{
			// 5 link failures, 0 sync losses, 0 signal losses
			pattern.Rule(pattern.N(9),
				pattern.Col(pattern.Heading("Link", "Failures"), pattern.MustParse("%intf_link_failures link failures,")...),
				pattern.Col(pattern.Heading("Sync", "Losses"), pattern.MustParse(". . . %intf_sync_losses sync losses,")...),
				pattern.Col(pattern.Heading("Signal", "Losses"), pattern.MustParse(". . . . . . %intf_sig_loss signal losses")...),
			),
			pattern.Rule(pattern.N(4), pattern.Col(pattern.Heading("Invalid", "Tx", "Words"), pattern.MustParse("%intf_invalid_tx_words invalid transmission words")...)),
			// 0 invalid CRCs, 0 Delimiter Errors
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("Invalid", "CRCs"), pattern.MustParse("%intf_invalid_crcs invalid CRCs,")...)),
			pattern.Rule(pattern.N(4), pattern.Col(pattern.Heading("NOS", "Rx"), pattern.MustParse("%intf_nos_rx non-operational sequences received")...)),
			pattern.Rule(pattern.N(4), pattern.Col(pattern.Heading("NOS", "Tx"), pattern.MustParse("%intf_nos_tx non-operational sequences transmitted")...)),
			pattern.Rule(pattern.N(3), pattern.Col(pattern.Heading("Framing", "Errors"), pattern.MustParse("%intf_framing_errors framing errors")...)),
			// 部分版本在 FEC 行尾追加一个令牌
			pattern.Rule(pattern.N(4, 5), pattern.Col(pattern.Heading("FEC", "Corrected"), pattern.MustParse("%intf_fec_corrected fec corrected blocks")...)),
			pattern.Rule(pattern.N(4, 5), pattern.Col(pattern.Heading("FEC", "Uncorrected"), pattern.MustParse("%intf_fec_uncorrected fec uncorrected blocks")...)),
		},
	}
}

// congestionMode 拥塞相关计数
func congestionMode() *modes.Mode {
	return &modes.Mode{
		Platform: Platform,
		Name:     "congestion",
		Summary:  "congestion errors",
		Command:  countersCommand,
		Boundary: parser.Boundary{NotPresent: parser.DefaultNotPresent},
		NonZero: filter.NonZero{
			Kind:          filter.Counter,
			CompositeZero: map[string]string{"intf_tx_credit_unavail": "0%/0%/0%/0%"},
		},
		Table: pattern.Table{
			pattern.Rule(pattern.N(7), pattern.Col(pattern.Heading("TBBZ"), pattern.MustParse("%intf_tbbz Transmit B2B credit transitions to zero")...)),
			pattern.Rule(pattern.N(7), pattern.Col(pattern.Heading("RBBZ"), pattern.MustParse("%intf_rbbz Receive B2B credit transitions to zero")...)),
			pattern.Rule(pattern.N(9), pattern.Col(pattern.Heading("TxWait", "2.5us"), pattern.MustParse("%intf_txwait 2.5us TxWait due to lack of transmit credits")...)),
			// Percentage Tx credits not available for last 1s/1m/1h/72h: 0%/0%/0%/0%
			pattern.Rule(pattern.N(9), pattern.Col(pattern.Heading("Tx Credit", "Unavail", "1s/1m/1h/72h"),
				pattern.MustParse("Percentage Tx credits not available for last . %intf_tx_credit_unavail")...)),
			pattern.Rule(pattern.N(6),
				pattern.Col(pattern.Heading("Timeout", "Discards"), pattern.MustParse("%intf_timeout_discards timeout discards,")...),
				pattern.Col(pattern.Heading("Credit", "Loss"), pattern.MustParse(". . . %intf_credit_loss credit loss")...),
			),
			pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("LRR", "Rx"), pattern.MustParse("%intf_lrr_rx link reset responses received")...)),
			pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("LRR", "Tx"), pattern.MustParse("%intf_lrr_tx link reset responses transmitted")...)),
		},
	}
}

// statisticsMode 流量统计
func statisticsMode() *modes.Mode {
	return &modes.Mode{
		Platform: Platform,
		Name:     "statistics",
		Summary:  "frame statistics (non errors)",
		Command:  countersCommand,
		Boundary: parser.Boundary{NotPresent: parser.DefaultNotPresent},
		NonZero:  filter.NonZero{Kind: filter.Counter},
		Table: pattern.Table{
			pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("Frames", "Rx"), pattern.MustParse("%intf_frames_received frames, . bytes received")...)),
			pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("Frames", "Tx"), pattern.MustParse("%intf_frames_transmitted frames, . bytes transmitted")...)),
			// 新版本输出：Rx total frames: 42
			pattern.Rule(pattern.N(4),
				pattern.Hidden(pattern.MustParse("Rx total frames: %intf_frames_received")...),
				pattern.Hidden(pattern.MustParse("Tx total frames: %intf_frames_transmitted")...),
			),
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("C3 Frames", "Rx"), pattern.MustParse("%intf_class_3_frames_received class-3 frames, . bytes received")...)),
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("C3 Frames", "Tx"), pattern.MustParse("%intf_class_3_frames_transmitted class-3 frames, . bytes transmitted")...)),
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("C2 Frames", "Rx"), pattern.MustParse("%intf_class_2_frames_received class-2 frames, . bytes received")...)),
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("C2 Frames", "Tx"), pattern.MustParse("%intf_class_2_frames_transmitted class-2 frames, . bytes transmitted")...)),
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("CF Frames", "Rx"), pattern.MustParse("%intf_class_f_frames_received class-f frames, . bytes received")...)),
			pattern.Rule(pattern.N(6), pattern.Col(pattern.Heading("CF Frames", "Tx"), pattern.MustParse("%intf_class_f_frames_transmitted class-f frames, . bytes transmitted")...)),
			pattern.Rule(pattern.N(6),
				pattern.Col(pattern.Heading("Mcast", "Rx"), pattern.MustParse("%intf_multicast_frames_received multicast packets received,")...),
				pattern.Col(pattern.Heading("Mcast", "Tx"), pattern.MustParse(". multicast packets . %intf_multicast_frames_transmitted transmitted")...),
			),
			pattern.Rule(pattern.N(6),
				pattern.Col(pattern.Heading("Bcast", "Rx"), pattern.MustParse("%intf_broadcast_frames_received broadcast packets received,")...),
				pattern.Col(pattern.Heading("Bcast", "Tx"), pattern.MustParse(". broadcast packets . %intf_broadcast_frames_transmitted transmitted")...),
			),
			pattern.Rule(pattern.N(6),
				pattern.Col(pattern.Heading("Ucast", "Rx"), pattern.MustParse("%intf_unicast_frames_received unicast packets received,")...),
				pattern.Col(pattern.Heading("Ucast", "Tx"), pattern.MustParse(". unicast packets . %intf_unicast_frames_transmitted transmitted")...),
			),
		},
	}
}
