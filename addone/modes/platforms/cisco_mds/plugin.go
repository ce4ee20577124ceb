package cisco_mds

import (
	"github.com/sshcollectorpro/intreport/addone/modes"
)

// Platform 平台名
const Platform = modes.DefaultPlatform

// Modes 平台内置模式
func Modes() []*modes.Mode {
	return []*modes.Mode{
		physicalMode(),
		congestionMode(),
		statisticsMode(),
		transceiverMode(),
	}
}

func init() {
	for _, m := range Modes() {
		modes.Register(m)
	}
}
