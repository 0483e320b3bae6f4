package lane

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/container"
)

// Lane 进口车道
// 功能：保存在该车道上排队等待通过路口的车辆，先到先走
type Lane struct {
	id       entity.LaneID
	vehicles container.Queue[entity.Vehicle] // 排队车辆，队首为最早到达的车辆
}

// newLane 创建车道
func newLane(id entity.LaneID) *Lane {
	return &Lane{
		id:       id,
		vehicles: container.Queue[entity.Vehicle]{ID: id.String()},
	}
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane{ID:%v, Len:%d}", l.id, l.vehicles.Len())
}

// ID 获取车道标识
func (l *Lane) ID() entity.LaneID {
	return l.id
}

// Enqueue 车辆驶入车道排队
func (l *Lane) Enqueue(v entity.Vehicle) {
	l.vehicles.Enqueue(v)
}

// Dequeue 队首车辆驶离
// 返回：车道为空时ok为false
func (l *Lane) Dequeue() (entity.Vehicle, bool) {
	return l.vehicles.Dequeue()
}

// Peek 查看队首车辆
func (l *Lane) Peek() (entity.Vehicle, bool) {
	return l.vehicles.Peek()
}

// Count 排队车辆数
func (l *Lane) Count() int {
	return l.vehicles.Len()
}

// Vehicles 按排队顺序返回车辆副本，仅用于快照
func (l *Lane) Vehicles() []entity.Vehicle {
	return l.vehicles.Values()
}
