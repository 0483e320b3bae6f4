package trafficlight

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
)

// Occupancy 本步放行后各轴各类车道的排队车辆数
type Occupancy struct {
	SR [2]int // 以entity.Axis为下标，直行右转车道车辆数
	L  [2]int // 以entity.Axis为下标，左转车道车辆数
}

// PedestrianFlags 以entity.Direction为下标的行人过街请求
type PedestrianFlags [entity.DirectionCount]bool

// Axis 轴上两个方向是否有待处理的行人请求
func (f PedestrianFlags) Axis(a entity.Axis) bool {
	ds := a.Directions()
	return f[ds[0]] || f[ds[1]]
}

// Strategy 相位切换策略
// 功能：根据当前相位、车道占用、行人请求和相位已持续步数，判断本步是否结束当前相位
// 说明：策略只做判断，不修改路口状态；相位顺序固定，由PhaseName.Next给出
type Strategy interface {
	Decide(phase Phase, occ Occupancy, peds PedestrianFlags, timer int32) bool
}

// NewStrategy 按名字创建策略
// 参数：name-adaptive|fixed，空字符串等价于adaptive；pedRequestMaxCars-行人请求生效的最大车辆数
func NewStrategy(name string, pedRequestMaxCars int) (Strategy, error) {
	switch name {
	case "", "adaptive":
		return &AdaptiveStrategy{PedRequestMaxCars: pedRequestMaxCars}, nil
	case "fixed":
		return FixedTimeStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
