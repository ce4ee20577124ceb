package main

// 引入报表平台插件，触发各平台的 init() 完成注册
import (
	_ "github.com/sshcollectorpro/intreport/addone/modes/platforms/cisco_mds"
)
