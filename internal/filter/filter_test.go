package filter

import (
	"testing"

	"github.com/sshcollectorpro/intreport/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefSample = `
-------------------------------------------------------------------------------
Interface  Vsan   Admin  Admin   Status          SFP    Oper  Oper   Port
                  Mode   Trunk                          Mode  Speed  Channel
                         Mode                                 (Gbps)
-------------------------------------------------------------------------------
fc1/1      1      auto   on      trunking         swl    TE      32    --          core
fc1/2      10     F      off     up               swl    F       16    --          edge
fc1/3      20     auto   on      up               swl    NP      16    --          edge
fc1/4      1      auto   on      sfpAbsent        --     --           --

-------------------------------------------------------------------------------
Interface    Vsan   Admin   Status     Oper   Oper     IP          Logical
                    Trunk              Mode   Speed    Address     Type
                    Mode                      (Gbps)
-------------------------------------------------------------------------------
port-channel10 1    on      trunking   TE     64       --          core
`

func TestParseBrief(t *testing.T) {
	c := ParseBrief(briefSample)
	require.Len(t, c, 4)
	assert.Equal(t, PortInfo{OperMode: "TE", LogicalType: "core"}, c["fc1/1"])
	assert.Equal(t, PortInfo{OperMode: "F", LogicalType: "edge"}, c["fc1/2"])
	assert.Equal(t, PortInfo{OperMode: "NP", LogicalType: "edge"}, c["fc1/3"])
	assert.Equal(t, PortInfo{OperMode: "TE", LogicalType: "core"}, c["port-channel10"])
	_, ok := c["fc1/4"]
	assert.False(t, ok, "short lines carry no classification")
}

func TestPreFilterSelections(t *testing.T) {
	c := ParseBrief(briefSample)
	ids := []string{"fc1/1", "fc1/2", "fc1/3", "port-channel10"}

	admitted := func(f PortFilter) []string {
		p := NewPreFilter(f, c)
		var out []string
		for _, id := range ids {
			if p.Admit(id) {
				out = append(out, id)
			}
		}
		return out
	}

	assert.Equal(t, ids, admitted(None))
	assert.Equal(t, []string{"fc1/1", "port-channel10"}, admitted(EPort))
	assert.Equal(t, []string{"fc1/2"}, admitted(FPort))
	assert.Equal(t, []string{"fc1/3"}, admitted(NPPort))
	assert.Equal(t, []string{"fc1/2", "fc1/3"}, admitted(Edge))
	assert.Equal(t, []string{"fc1/1", "port-channel10"}, admitted(Core))
}

func TestPreFilterFailsOpen(t *testing.T) {
	p := NewPreFilter(EPort, Classification{})
	assert.True(t, p.Admit("fc1/9"))
	notes := p.Notes()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "fc1/9")
}

func TestParsePortFilter(t *testing.T) {
	f, err := ParsePortFilter("NP")
	require.NoError(t, err)
	assert.Equal(t, NPPort, f)

	f, err = ParsePortFilter("")
	require.NoError(t, err)
	assert.Equal(t, None, f)
	assert.False(t, f.NeedsClassification())

	_, err = ParsePortFilter("trunk")
	assert.Error(t, err)
}

func TestCounterNonZero(t *testing.T) {
	n := NonZero{Kind: Counter, CompositeZero: map[string]string{"pct": "0%/0%/0%/0%"}}
	assert.False(t, n.IsNonZero("a", store.Sentinel))
	assert.False(t, n.IsNonZero("a", "0"))
	assert.True(t, n.IsNonZero("a", "17"))
	assert.False(t, n.IsNonZero("pct", "0%/0%/0%/0%"))
	assert.True(t, n.IsNonZero("pct", "0%/1%/0%/0%"))

	vars := []string{"a", "b"}
	assert.False(t, n.Keep(vars, store.FieldMap{"a": "0", "b": store.Sentinel}), "all-zero entity is dropped")
	assert.True(t, n.Keep(vars, store.FieldMap{"a": "0", "b": "3"}))
}

func TestTransceiverNonZero(t *testing.T) {
	n := NonZero{Kind: Transceiver}
	assert.False(t, n.IsNonZero("t", "35.62"))
	assert.True(t, n.IsNonZero("t", "-16.02--"))
	assert.True(t, n.IsNonZero("t", "75.10++"))
	assert.True(t, n.IsNonZero("t", "-1.00-"))
	assert.False(t, n.IsNonZero("t", "0"))
	assert.True(t, n.IsNonZero("t", "2"))
	assert.False(t, n.IsNonZero("t", "-2"))
	assert.False(t, n.IsNonZero("t", "DS-SFP-FC32G-SW"))
	assert.False(t, n.IsNonZero("t", store.Sentinel))
}

func TestParseBriefVirtualFC(t *testing.T) {
	text := `-------------------------------------------------------------------------------
Interface  Vsan   Admin  Admin   Status      Bind                 Oper    Oper
                  Mode   Trunk               Info                 Mode    Speed
                         Mode                                             (Gbps)
-------------------------------------------------------------------------------
vfc1       1      F      on      trunking    Ethernet1/1          TF      auto
vfc2       1      E      off     down        Ethernet1/2
`
	c := ParseBrief(text)
	require.Len(t, c, 1)
	assert.Equal(t, PortInfo{OperMode: "TF"}, c["vfc1"])

	p := NewPreFilter(FPort, c)
	assert.True(t, p.Admit("vfc1"))
	assert.Empty(t, p.Notes())
	p = NewPreFilter(Edge, c)
	assert.False(t, p.Admit("vfc1"), "no logical type column, so neither edge nor core")
}
