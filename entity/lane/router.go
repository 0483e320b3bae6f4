package lane

import "github.com/tsinghua-fib-lab/crossroad-sim/entity"

// straightRightTargets 每个进口道走直行右转车道的出口道
// 其余出口道（含与进口道相同的掉头）走左转车道
var straightRightTargets = [entity.DirectionCount][2]entity.Direction{
	entity.North: {entity.South, entity.West},
	entity.South: {entity.North, entity.East},
	entity.East:  {entity.West, entity.North},
	entity.West:  {entity.East, entity.South},
}

// AssignLane 为车辆分配进口车道
// 功能：根据进口道和出口道查表，确定车辆排队的车道
// 参数：start-进口道，end-出口道
// 返回：车道标识
// 说明：end与start相同视为掉头，分配到该进口道的左转车道
func AssignLane(start, end entity.Direction) entity.LaneID {
	for _, d := range straightRightTargets[start] {
		if d == end {
			return entity.LaneOf(start, entity.StraightRight)
		}
	}
	return entity.LaneOf(start, entity.Left)
}

// IsConditionalRight 判断车辆能否借右转箭头灯通过
// 功能：直行右转车道的队首车辆若右转，可在本车道直行灯为红、箭头灯为绿时单独通过
// 参数：start-进口道，end-出口道
func IsConditionalRight(start, end entity.Direction) bool {
	switch start {
	case entity.North:
		return end == entity.West
	case entity.South:
		return end == entity.East
	case entity.East:
		return end == entity.North
	case entity.West:
		return end == entity.South
	}
	return false
}
