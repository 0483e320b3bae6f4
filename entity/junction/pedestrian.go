package junction

import (
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/trafficlight"
)

// PedestrianRequests 四个方向的行人过街请求
// 功能：只有该方向行人灯为红时才能登记请求；只在进入使该方向行人灯变绿的相位时清除
type PedestrianRequests struct {
	flags trafficlight.PedestrianFlags
}

// request 登记请求
// 参数：d-过街方向，out-当前相位输出
// 返回：是否登记成功（行人灯已为绿时不登记，这不是错误）
func (p *PedestrianRequests) request(d entity.Direction, out trafficlight.Output) bool {
	if out.Axis(d.Axis()).Ped != trafficlight.Red {
		return false
	}
	p.flags[d] = true
	return true
}

// clearServed 进入新相位时清除行人灯变绿的方向上的请求
func (p *PedestrianRequests) clearServed(out trafficlight.Output) {
	for _, axis := range [2]entity.Axis{entity.AxisNS, entity.AxisEW} {
		if out.Axis(axis).Ped != trafficlight.Green {
			continue
		}
		for _, d := range axis.Directions() {
			p.flags[d] = false
		}
	}
}

// Flags 当前请求状态
func (p *PedestrianRequests) Flags() trafficlight.PedestrianFlags {
	return p.flags
}
