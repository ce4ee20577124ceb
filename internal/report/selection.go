package report

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateSelection 互斥选项最多选一个，返回选中的名称（未选为空串）
func ValidateSelection(kind string, selected map[string]bool) (string, error) {
	var chosen []string
	for name, on := range selected {
		if on {
			chosen = append(chosen, name)
		}
	}
	sort.Strings(chosen)
	switch len(chosen) {
	case 0:
		return "", nil
	case 1:
		return chosen[0], nil
	}
	return "", fmt.Errorf("please choose a single %s, got %s", kind, strings.Join(chosen, ", "))
}
