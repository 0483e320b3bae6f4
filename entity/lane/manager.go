package lane

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
)

// LaneManager 路口八条进口车道的管理器
// 功能：按车道标识组织车道，提供车辆入队、查找与车道占用统计
type LaneManager struct {
	lanes [entity.LaneCount]*Lane
}

// NewManager 创建车道管理器，八条车道均为空
func NewManager() *LaneManager {
	m := &LaneManager{}
	for i := range m.lanes {
		m.lanes[i] = newLane(entity.LaneID(i))
	}
	return m
}

// Get 根据车道标识获取车道
func (m *LaneManager) Get(id entity.LaneID) *Lane {
	return m.lanes[id]
}

// Of 根据进口道和车道类型获取车道
func (m *LaneManager) Of(d entity.Direction, kind entity.LaneKind) *Lane {
	return m.lanes[entity.LaneOf(d, kind)]
}

// Add 车辆到达路口
// 功能：按进口道和出口道分配车道并入队
// 参数：v-车辆，start-进口道
// 返回：车辆所在车道
func (m *LaneManager) Add(v entity.Vehicle, start entity.Direction) entity.LaneID {
	id := AssignLane(start, v.EndRoad)
	m.lanes[id].Enqueue(v)
	return id
}

// Count 轴上某类车道的排队车辆总数
// 参数：axis-通行轴，kind-车道类型
func (m *LaneManager) Count(axis entity.Axis, kind entity.LaneKind) int {
	ds := axis.Directions()
	return lo.SumBy(ds[:], func(d entity.Direction) int {
		return m.Of(d, kind).Count()
	})
}

// Total 所有车道的排队车辆总数
func (m *LaneManager) Total() int {
	return lo.SumBy(m.lanes[:], func(l *Lane) int { return l.Count() })
}

// Lanes 按标识顺序返回全部车道
func (m *LaneManager) Lanes() []*Lane {
	return m.lanes[:]
}
