package modes

import (
	"fmt"
	"strings"

	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/filter"
	"github.com/sshcollectorpro/intreport/internal/parser"
	"github.com/sshcollectorpro/intreport/internal/pattern"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// FromConfig 将配置文件中的模式定义转换为 Mode
func FromConfig(c config.ModeConfig) (*Mode, error) {
	m := &Mode{
		Platform:   CustomPlatform,
		Name:       strings.TrimSpace(c.Name),
		Summary:    "custom mode from configuration",
		Title:      c.Title,
		Command:    c.Command,
		MinVersion: c.MinVersion,
	}

	switch strings.ToLower(strings.TrimSpace(c.NonZero)) {
	case "", "counter":
		m.NonZero = filter.NonZero{Kind: filter.Counter, CompositeZero: c.CompositeZero}
	case "transceiver":
		m.NonZero = filter.NonZero{Kind: filter.Transceiver}
	default:
		return nil, fmt.Errorf("mode %s: unknown nonzero kind %q", c.Name, c.NonZero)
	}

	m.Boundary = parser.Boundary{NotPresent: c.Boundary.NotPresent}
	if len(m.Boundary.NotPresent) == 0 {
		m.Boundary.NotPresent = parser.DefaultNotPresent
	}
	for _, fc := range c.Boundary.Checks {
		m.Boundary.Checks = append(m.Boundary.Checks, parser.FieldCheck{Index: fc.Index, Equals: fc.Equals})
	}

	for i, rc := range c.Rules {
		rule := pattern.LineRule{Counts: rc.Counts}
		for j, pc := range rc.Patterns {
			toks, err := pattern.ParseTokens(pc.Tokens)
			if err != nil {
				return nil, fmt.Errorf("mode %s rule %d pattern %d: %w", c.Name, i, j, err)
			}
			var heading []string
			if len(pc.Heading) > 0 {
				heading = pc.Heading
			}
			rule.Alternatives = append(rule.Alternatives, pattern.ColumnPattern{Heading: heading, Tokens: toks})
		}
		m.Table = append(m.Table, rule)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadCustom 重建配置文件声明的自定义模式，返回注册数量
func LoadCustom(cfgs []config.ModeConfig) (int, error) {
	built := make([]*Mode, 0, len(cfgs))
	for _, c := range cfgs {
		m, err := FromConfig(c)
		if err != nil {
			return 0, err
		}
		built = append(built, m)
	}
	Unregister(CustomPlatform)
	for _, m := range built {
		Register(m)
		logger.WithField("mode", m.Name).Debug("custom report mode registered")
	}
	return len(built), nil
}
