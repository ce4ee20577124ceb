package util

import (
	"testing"

	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestEnsureUTF8Bytes(t *testing.T) {
	assert.Equal(t, "fc1/1 ISL", EnsureUTF8Bytes([]byte("fc1/1 ISL")))
	assert.Equal(t, "", EnsureUTF8Bytes(nil))

	// "核心" 的 GBK 编码
	gbk := []byte{0xba, 0xcb, 0xd0, 0xc4}
	assert.Equal(t, "核心", EnsureUTF8Bytes(gbk))
}

func TestNormalizeOutput(t *testing.T) {
	f := config.OutputFilterConfig{Contains: []string{"--More--"}, CaseInsensitive: true, TrimSpace: true}
	raw := []byte("fc1/1\r\n    0 link failures\r\n --more-- \r\nfc1/2\r")
	assert.Equal(t, "fc1/1\n    0 link failures\nfc1/2\n", NormalizeOutput(raw, f))
}

func TestApplyLineFilterPrefixes(t *testing.T) {
	f := config.OutputFilterConfig{Prefixes: []string{"switch#"}, TrimSpace: true}
	assert.Equal(t, "a\nb", ApplyLineFilter(f, "a\n  switch# show int\nb"))
	assert.Equal(t, "x\ny", ApplyLineFilter(config.OutputFilterConfig{}, "x\ny"))
}
