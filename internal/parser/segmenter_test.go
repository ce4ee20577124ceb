package parser

import (
	"testing"

	"github.com/sshcollectorpro/intreport/internal/pattern"
	"github.com/sshcollectorpro/intreport/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countersSample = `
fc1/1
    5 link failures, 0 sync losses, 0 signal losses
    0 invalid transmission words
fc1/2
    0 link failures, 0 sync losses, 0 signal losses
port-channel10
    2 link failures, 0 sync losses, 0 signal losses
`

func physicalSubset() pattern.Table {
	return pattern.Table{
		pattern.Rule(pattern.N(9),
			pattern.Col(pattern.Heading("Link"), pattern.MustParse("%intf_link_failures link failures,")...),
		),
		pattern.Rule(pattern.N(4),
			pattern.Col(pattern.Heading("Invalid"), pattern.MustParse("%intf_invalid_tx_words invalid transmission words")...),
		),
	}
}

func TestSegmenterAssociatesBlocks(t *testing.T) {
	tbl := physicalSubset()
	st := store.New(tbl.Vars())
	stats := NewSegmenter(Boundary{}, NewMatcher(tbl), st, nil).Run(countersSample)

	assert.Equal(t, []string{"fc1/1", "fc1/2", "port-channel10"}, st.Order())
	assert.Equal(t, 3, stats.Boundaries)
	assert.Equal(t, 4, stats.Matched)

	rec, ok := st.Get("fc1/1")
	require.True(t, ok)
	assert.Equal(t, "5", rec["intf_link_failures"])
	assert.Equal(t, "0", rec["intf_invalid_tx_words"])

	rec, _ = st.Get("fc1/2")
	assert.Equal(t, store.Sentinel, rec["intf_invalid_tx_words"])
}

func TestSegmenterExcludedEntitySuspendsAssociation(t *testing.T) {
	tbl := physicalSubset()
	st := store.New(tbl.Vars())
	admit := func(id string) bool { return id != "fc1/1" }
	stats := NewSegmenter(Boundary{}, NewMatcher(tbl), st, admit).Run(countersSample)

	assert.Equal(t, []string{"fc1/2", "port-channel10"}, st.Order())
	assert.Equal(t, 1, stats.Excluded)
	rec, _ := st.Get("fc1/2")
	assert.Equal(t, "0", rec["intf_link_failures"], "lines of an excluded block must not leak into the next entity")
}

func TestSegmenterNotPresentRegistersWithoutAssociation(t *testing.T) {
	tbl := pattern.Table{
		pattern.Rule(pattern.N(5), pattern.Col(pattern.Heading("Faults"), pattern.MustParse("Transmit Fault Count = %xcvr_tx_faults")...)),
	}
	text := "fc1/1 sfp is present\n    Transmit Fault Count = 3\nfc1/2 sfp is not present\n    Transmit Fault Count = 9\n"
	st := store.New(tbl.Vars())
	b := Boundary{Checks: []FieldCheck{{Index: 1, Equals: "sfp"}}, NotPresent: DefaultNotPresent}
	NewSegmenter(b, NewMatcher(tbl), st, nil).Run(text)

	assert.Equal(t, []string{"fc1/1", "fc1/2"}, st.Order())
	rec, _ := st.Get("fc1/1")
	assert.Equal(t, "3", rec["xcvr_tx_faults"])
	rec, _ = st.Get("fc1/2")
	assert.Equal(t, store.Sentinel, rec["xcvr_tx_faults"])
}

func TestSegmenterFieldCheckRejectsOtherLines(t *testing.T) {
	b := Boundary{Checks: []FieldCheck{{Index: 1, Equals: "sfp"}}}
	_, ok := b.Identify("fc1/1 is up")
	assert.False(t, ok)
	id, ok := b.Identify("fc1/1 sfp is present")
	assert.True(t, ok)
	assert.Equal(t, "fc1/1", id)
}

func TestSegmenterDuplicateBoundaryReusesRecord(t *testing.T) {
	tbl := physicalSubset()
	text := "fc1/1\n    1 link failures, 0 sync losses, 0 signal losses\nfc1/1\n    0 invalid transmission words\n"
	st := store.New(tbl.Vars())
	NewSegmenter(Boundary{}, NewMatcher(tbl), st, nil).Run(text)

	assert.Equal(t, 1, st.Len())
	rec, _ := st.Get("fc1/1")
	assert.Equal(t, "1", rec["intf_link_failures"])
	assert.Equal(t, "0", rec["intf_invalid_tx_words"])
}

func TestSegmenterHandlesCRLF(t *testing.T) {
	tbl := physicalSubset()
	st := store.New(tbl.Vars())
	NewSegmenter(Boundary{}, NewMatcher(tbl), st, nil).Run("fc1/3\r\n    7 invalid transmission words\r\n")
	rec, ok := st.Get("fc1/3")
	require.True(t, ok)
	assert.Equal(t, "7", rec["intf_invalid_tx_words"])
}

func TestSegmenterOpensVirtualFCBlocks(t *testing.T) {
	tbl := physicalSubset()
	st := store.New(tbl.Vars())
	text := "fc1/1\n    5 link failures, 0 sync losses, 0 signal losses\n" +
		"vfc3 is trunking\n    7 link failures, 0 sync losses, 0 signal losses\n"
	stats := NewSegmenter(Boundary{}, NewMatcher(tbl), st, nil).Run(text)

	assert.Equal(t, []string{"fc1/1", "vfc3"}, st.Order())
	assert.Equal(t, 2, stats.Boundaries)
	rec, _ := st.Get("fc1/1")
	assert.Equal(t, "5", rec["intf_link_failures"])
	rec, _ = st.Get("vfc3")
	assert.Equal(t, "7", rec["intf_link_failures"])
}
