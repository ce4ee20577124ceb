package modes

import (
	"sort"
	"sync"
)

const (
	// DefaultPlatform 默认平台
	DefaultPlatform = "cisco_mds"
	// CustomPlatform 配置文件声明的模式所在平台
	CustomPlatform = "custom"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]map[string]*Mode{}
)

// Register 注册报表模式，同名覆盖
func Register(m *Mode) {
	registryMu.Lock()
	defer registryMu.Unlock()
	byName, ok := registry[m.Platform]
	if !ok {
		byName = make(map[string]*Mode)
		registry[m.Platform] = byName
	}
	byName[m.Name] = m
}

// Get 获取指定平台的模式；平台内找不到时再查自定义模式
func Get(platform, name string) (*Mode, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if m, ok := registry[platform][name]; ok {
		return m, true
	}
	if m, ok := registry[CustomPlatform][name]; ok {
		return m, true
	}
	return nil, false
}

// List 按名称排序列出平台模式
func List(platform string) []*Mode {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*Mode, 0, len(registry[platform]))
	for _, m := range registry[platform] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Platforms 已注册的平台
func Platforms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Unregister 移除平台下的全部模式（配置热更新时重建自定义模式）
func Unregister(platform string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, platform)
}
