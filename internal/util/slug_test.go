package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "show_interface_counters_detailed", Slug("show interface counters detailed"))
	assert.Equal(t, "show_interface_fc1_1-4_brief", Slug("Show Interface fc1/1-4 brief"))
	assert.Equal(t, "unknown", Slug("  "))
	assert.Equal(t, "show_version.txt", CaptureFile("show version"))
}
