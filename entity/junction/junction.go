package junction

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

// axes 放行顺序：先南北后东西
var axes = [2]entity.Axis{entity.AxisNS, entity.AxisEW}

// Junction 信控路口
// 功能：管理八条进口车道、四相位信号灯和行人请求，按步推进模拟
// 说明：单线程使用；相同配置和相同指令序列下输出逐位一致
type Junction struct {
	phases   *trafficlight.PhaseTable
	strategy trafficlight.Strategy
	lanes    *lane.LaneManager
	peds     PedestrianRequests

	phase trafficlight.PhaseName // 当前相位
	timer int32                  // 自最近一次相位切换起经过的步数

	metrics *Metrics // 为nil时不统计
}

// New 创建路口
// 功能：根据配置构建相位表和切换策略，初始相位为NS_SR
// 参数：c-路口信控配置
// 返回：路口实例；配置不完整或非法时返回错误
func New(c config.Junction) (*Junction, error) {
	strategy, err := trafficlight.NewStrategy(c.Strategy, c.PedRequestMaxCars)
	if err != nil {
		return nil, err
	}
	return NewWithStrategy(c, strategy)
}

// NewWithStrategy 使用指定的切换策略创建路口，c.Strategy被忽略
func NewWithStrategy(c config.Junction, strategy trafficlight.Strategy) (*Junction, error) {
	phases, err := trafficlight.NewPhaseTable(c.States)
	if err != nil {
		return nil, fmt.Errorf("junction: %w", err)
	}
	j := &Junction{
		phases:   phases,
		strategy: strategy,
		lanes:    lane.NewManager(),
		phase:    trafficlight.NSStraightRight,
	}
	if c.Metrics {
		j.metrics = newMetrics()
	}
	return j, nil
}

// Phase 当前相位
func (j *Junction) Phase() trafficlight.Phase {
	return j.phases.Get(j.phase)
}

// Timer 当前相位已持续的步数
func (j *Junction) Timer() int32 {
	return j.timer
}

// Metrics 通行指标，未开启时为nil
func (j *Junction) Metrics() *Metrics {
	return j.metrics
}

// Queued 当前排队车辆总数
func (j *Junction) Queued() int {
	return j.lanes.Total()
}

// AddVehicle 车辆到达路口
// 功能：按进口道和出口道分配车道并排队，总是成功（允许掉头，不检查ID重复）
// 参数：v-车辆，startRoad-进口道
// 返回：车辆所在车道
func (j *Junction) AddVehicle(v entity.Vehicle, startRoad entity.Direction) entity.LaneID {
	id := j.lanes.Add(v, startRoad)
	log.Debugf("vehicle %s queued at %v", v.ID, id)
	return id
}

// RequestPedestrianCrossing 行人请求过街
// 功能：该方向行人灯为红时登记请求，否则忽略
// 返回：是否登记
func (j *Junction) RequestPedestrianCrossing(d entity.Direction) bool {
	return j.peds.request(d, j.Phase().Output)
}

// Step 推进一步
// 功能：放行车辆并判断是否切换相位
// 返回：本步驶离路口的车辆，按出队顺序排列
// 算法说明：
// 1. 对每条轴（先南北后东西）：
//   - 直行右转灯绿：两个进口道的直行右转车道各驶离一辆（南先于北，东先于西）
//   - 左转灯绿：两个进口道的左转车道各驶离一辆
//   - 右转箭头灯绿：两个直行右转车道的队首车辆若右转则驶离
//
// 2. 统计四类车道占用
// 3. 由策略判断是否结束当前相位：结束则进入后继相位、计时清零并清除新相位服务的行人请求，否则计时加一
func (j *Junction) Step() []entity.Vehicle {
	phase := j.Phase()
	left := make([]entity.Vehicle, 0, 4)
	for _, axis := range axes {
		faces := phase.Output.Axis(axis)
		ds := axis.Directions()
		if faces.SR == trafficlight.Green {
			for _, d := range ds {
				if v, ok := j.lanes.Of(d, entity.StraightRight).Dequeue(); ok {
					left = append(left, v)
				}
			}
		}
		if faces.L == trafficlight.Green {
			for _, d := range ds {
				if v, ok := j.lanes.Of(d, entity.Left).Dequeue(); ok {
					left = append(left, v)
				}
			}
		}
		if faces.Cond == trafficlight.Green {
			for _, d := range ds {
				l := j.lanes.Of(d, entity.StraightRight)
				if v, ok := l.Peek(); ok && lane.IsConditionalRight(d, v.EndRoad) {
					l.Dequeue()
					left = append(left, v)
				}
			}
		}
	}

	occ := j.occupancy()
	changed := j.strategy.Decide(phase, occ, j.peds.Flags(), j.timer)
	if changed {
		j.phase = j.phase.Next()
		j.timer = 0
		j.peds.clearServed(j.Phase().Output)
		log.Debugf("phase %v -> %v", phase.Name, j.phase)
	} else {
		j.timer++
	}
	if j.metrics != nil {
		j.metrics.record(len(left), j.waiting(), changed)
	}
	if len(left) > 0 {
		log.Debugf("left vehicles: %v", left)
	}
	return left
}

func (j *Junction) occupancy() trafficlight.Occupancy {
	var occ trafficlight.Occupancy
	for _, axis := range axes {
		occ.SR[axis] = j.lanes.Count(axis, entity.StraightRight)
		occ.L[axis] = j.lanes.Count(axis, entity.Left)
	}
	return occ
}

// waiting 当前相位下面对红灯排队的车辆数
func (j *Junction) waiting() int {
	out := j.Phase().Output
	n := 0
	for _, l := range j.lanes.Lanes() {
		faces := out.Axis(l.ID().Direction().Axis())
		face := faces.SR
		if l.ID().Kind() == entity.Left {
			face = faces.L
		}
		if face == trafficlight.Red {
			n += l.Count()
		}
	}
	return n
}

// Snapshot 获取路口状态快照
// 说明：返回的数据均为副本，无中间修改时多次调用结果相同
func (j *Junction) Snapshot() Snapshot {
	s := Snapshot{Lights: j.Phase().Output}
	for _, l := range j.lanes.Lanes() {
		*s.Cars.Lane(l.ID()) = l.Vehicles()
	}
	flags := j.peds.Flags()
	s.PedestrianRequestN = flags[entity.North]
	s.PedestrianRequestS = flags[entity.South]
	s.PedestrianRequestE = flags[entity.East]
	s.PedestrianRequestW = flags[entity.West]
	return s
}
