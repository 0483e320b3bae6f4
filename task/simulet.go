package task

import (
	"flag"

	"github.com/tsinghua-fib-lab/crossroad-sim/utils/input"
)

const (
	SelfName = "crossroad" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// tick 推进时钟，每隔固定步数输出一次心跳日志
func (ctx *Context) tick() {
	step := ctx.clock.Tick()
	if ctx.heartbeatInterval > 0 && step%ctx.heartbeatInterval == 0 {
		log.Infof(
			"STEP: %d phase=%v timer=%d queued=%d",
			step, ctx.junction.Phase().Name, ctx.junction.Timer(), ctx.junction.Queued(),
		)
	}
}

// Run 按顺序执行全部指令
func (ctx *Context) Run(commands []input.Command) {
	log.Infof("job %s: %d commands", ctx.job, len(commands))
	for i, cmd := range commands {
		if _, err := ctx.Apply(cmd); err != nil {
			log.Warnf("job %s: command %d (%s) rejected: %v", ctx.job, i, cmd.Type, err)
			return
		}
	}
	log.Infof("engine complete at %v", ctx.clock)
}
