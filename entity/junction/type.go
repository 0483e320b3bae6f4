package junction

import (
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/trafficlight"
)

var log = logrus.WithField("module", "junction")

// Cars 八条车道的排队车辆，字段顺序即输出顺序
type Cars struct {
	NorthSR []entity.Vehicle `json:"n_sr"`
	NorthL  []entity.Vehicle `json:"n_l"`
	SouthSR []entity.Vehicle `json:"s_sr"`
	SouthL  []entity.Vehicle `json:"s_l"`
	EastSR  []entity.Vehicle `json:"e_sr"`
	EastL   []entity.Vehicle `json:"e_l"`
	WestSR  []entity.Vehicle `json:"w_sr"`
	WestL   []entity.Vehicle `json:"w_l"`
}

// Lane 按车道标识取对应字段
func (c *Cars) Lane(id entity.LaneID) *[]entity.Vehicle {
	return [entity.LaneCount]*[]entity.Vehicle{
		&c.NorthSR, &c.NorthL, &c.SouthSR, &c.SouthL,
		&c.EastSR, &c.EastL, &c.WestSR, &c.WestL,
	}[id]
}

// Snapshot 路口状态快照
// 说明：回放记录与可视化只能看到这些状态
type Snapshot struct {
	Lights             trafficlight.Output `json:"lights"`
	Cars               Cars                `json:"cars"`
	PedestrianRequestN bool                `json:"pedestrianRequestN"`
	PedestrianRequestS bool                `json:"pedestrianRequestS"`
	PedestrianRequestE bool                `json:"pedestrianRequestE"`
	PedestrianRequestW bool                `json:"pedestrianRequestW"`
}
