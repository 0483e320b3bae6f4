package task

import (
	"errors"
	"sync"
	"sync/atomic"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/output"
)

var (
	log = logrus.WithField("module", "task")

	ErrClosed = errors.New("simulation is closed")
)

// Broadcaster 接收每条指令执行后的路口快照
type Broadcaster interface {
	Broadcast(v any) error
}

// Frame 推送给可视化客户端的一帧
type Frame struct {
	Step int32             `json:"step"`
	Type input.CommandType `json:"type"`
	Data junction.Snapshot `json:"data"`
}

// Result 一条指令的执行结果
type Result struct {
	Step     int32            // 执行后的步数
	Left     []entity.Vehicle // step：驶离车辆
	Lane     entity.LaneID    // addVehicle：车辆所在车道
	Accepted bool             // pedestrianRequest：请求是否被登记
}

// Context 模拟任务上下文
// 功能：持有一次模拟的时钟、路口、输出与回放记录，是指令执行的唯一入口
// 说明：所有指令在同一把锁下串行执行，本地批量运行与RPC调用共用
type Context struct {
	// 任务名
	job string
	// 已关闭，之后的指令被拒绝
	closed atomic.Bool

	mtx      sync.Mutex
	clock    *clock.Clock
	junction *junction.Junction

	// 每条step指令的结果
	output output.Output
	// 每条指令后的快照，为nil时不记录
	recording *output.Recording
	// 快照推送，可为nil
	broadcaster Broadcaster
	// 心跳日志间隔步数
	heartbeatInterval int32

	// 提供RPC服务的sidecar，未调用Serve时为nil
	sidecar        *syncer.Sidecar
	sidecarCloseCh chan struct{}
}

// NewContext 创建模拟任务上下文
// 参数：job-任务名，c-路口信控配置，record-是否记录每条指令后的快照
// 返回：上下文；信控配置非法时返回错误
func NewContext(job string, c config.Junction, record bool) (*Context, error) {
	j, err := junction.New(c)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		job:               job,
		clock:             clock.New(),
		junction:          j,
		output:            output.Output{StepStatuses: make([]output.StepStatus, 0)},
		heartbeatInterval: int32(*heartBeatInterval),
		sidecarCloseCh:    make(chan struct{}),
	}
	if record {
		ctx.recording = &output.Recording{Commands: make([]output.RecordedCommand, 0)}
	}
	log.Infof("job %s: strategy=%q pedRequestMaxCars=%d metrics=%v", job, c.Strategy, c.PedRequestMaxCars, c.Metrics)
	return ctx, nil
}

// ResolveJunction 确定使用的信控配置
// 功能：输入JSON中的config优先，其次为配置文件，都没有时使用内置默认值
// 参数：in-输入（可为nil），file-配置文件中的junction项（可为nil）
// 返回：信控配置；strategy与metrics在输入未给出时沿用配置文件
func ResolveJunction(in *input.Input, file *config.Junction) config.Junction {
	var c config.Junction
	switch {
	case in != nil && in.Config != nil:
		c = *in.Config
	case file != nil && len(file.States) > 0:
		c = *file
	default:
		c = config.Default()
	}
	if file != nil {
		if c.Strategy == "" {
			c.Strategy = file.Strategy
		}
		c.Metrics = c.Metrics || file.Metrics
	}
	return c
}

// SetBroadcaster 设置快照推送
func (ctx *Context) SetBroadcaster(b Broadcaster) {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	ctx.broadcaster = b
}

// SetHeartbeatInterval 设置心跳日志间隔，n<=0时不修改
func (ctx *Context) SetHeartbeatInterval(n int32) {
	if n > 0 {
		ctx.heartbeatInterval = n
	}
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

// Apply 执行一条指令
// 返回：执行结果；Close之后返回ErrClosed，路口状态不变
func (ctx *Context) Apply(cmd input.Command) (Result, error) {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	if ctx.closed.Load() {
		return Result{}, ErrClosed
	}
	return ctx.apply(cmd), nil
}

// apply 执行一条指令（调用方持有锁）
// 算法说明：
// 1. 按指令类型调用路口；step指令推进时钟并追加输出
// 2. 需要时获取快照，追加到回放记录并推送
func (ctx *Context) apply(cmd input.Command) Result {
	var res Result
	switch cmd.Type {
	case input.CommandAddVehicle:
		res.Lane = ctx.junction.AddVehicle(cmd.Vehicle, cmd.StartRoad)
	case input.CommandPedestrianRequest:
		res.Accepted = ctx.junction.RequestPedestrianCrossing(cmd.Crossing)
	case input.CommandStep:
		res.Left = ctx.junction.Step()
		ctx.output.StepStatuses = append(ctx.output.StepStatuses, output.NewStepStatus(res.Left))
		ctx.tick()
	default:
		log.Panicf("unknown command type %q", cmd.Type)
	}
	res.Step = ctx.clock.Step
	if ctx.recording == nil && ctx.broadcaster == nil {
		return res
	}
	snapshot := ctx.junction.Snapshot()
	if ctx.recording != nil {
		ctx.recording.Commands = append(ctx.recording.Commands, output.RecordedCommand{
			Type: string(cmd.Type),
			Data: snapshot,
		})
	}
	if ctx.broadcaster != nil {
		if err := ctx.broadcaster.Broadcast(Frame{Step: ctx.clock.Step, Type: cmd.Type, Data: snapshot}); err != nil {
			log.Warnf("broadcast err: %v", err)
		}
	}
	return res
}

// Snapshot 当前路口快照
func (ctx *Context) Snapshot() junction.Snapshot {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	return ctx.junction.Snapshot()
}

// Output 已执行的step指令结果
func (ctx *Context) Output() output.Output {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	return output.Output{StepStatuses: append([]output.StepStatus(nil), ctx.output.StepStatuses...)}
}

// Recording 回放记录，未开启时为nil
func (ctx *Context) Recording() *output.Recording {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	if ctx.recording == nil {
		return nil
	}
	return &output.Recording{Commands: append([]output.RecordedCommand(nil), ctx.recording.Commands...)}
}

// Summary 通行指标汇总，未开启指标时返回false
func (ctx *Context) Summary() (junction.Summary, bool) {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	m := ctx.junction.Metrics()
	if m == nil {
		return junction.Summary{}, false
	}
	return m.Summary(), true
}

// Serve 注册RPC服务并在后台启动sidecar
func (ctx *Context) Serve(sidecar *syncer.Sidecar) {
	ctx.sidecar = sidecar
	ctx.Register(sidecar)
	clock.NewService(ctx.clock, &ctx.mtx).Register(sidecar)
	go func() {
		err := ctx.sidecar.Serve()
		if err != nil {
			log.Panicf("failed to serve: %v", err)
		}
		ctx.sidecarCloseCh <- struct{}{}
	}()
}

// Close 拒绝之后的指令，输出指标汇总并关闭sidecar
func (ctx *Context) Close() {
	ctx.mtx.Lock()
	closed := ctx.closed.Swap(true)
	ctx.mtx.Unlock()
	if closed {
		return
	}
	if s, ok := ctx.Summary(); ok {
		log.Infof("metrics: %+v", s)
	}
	if ctx.sidecar != nil {
		ctx.sidecar.Close()
		// wait for graceful stop
		<-ctx.sidecarCloseCh
	}
}
