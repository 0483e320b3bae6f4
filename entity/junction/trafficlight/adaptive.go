// 提供按排队车辆自适应的相位切换策略
// 直行右转相位按两轴车辆比例、左转需求和行人请求提前结束，左转相位在左转车道清空后结束
package trafficlight

import (
	"git.fiblab.net/general/common/v2/mathutil"
)

// AdaptiveStrategy 自适应相位切换策略
type AdaptiveStrategy struct {
	PedRequestMaxCars int // 放行车道车辆数不超过该值时，行人请求可提前结束直行右转相位
}

// Decide 判断是否结束当前相位
// 功能：按相位类型选择直行右转规则或左转规则
// 参数：phase-当前相位，occ-车道占用，peds-行人请求，timer-相位已持续步数
// 返回：true表示本步结束当前相位
func (s *AdaptiveStrategy) Decide(phase Phase, occ Occupancy, peds PedestrianFlags, timer int32) bool {
	axis := phase.Name.Axis()
	if phase.Name.IsStraightRight() {
		return s.shouldEndStraightRight(phase, occ.SR[axis], occ.SR[axis.Other()], occ.L[axis], peds.Axis(axis), timer)
	}
	return shouldEndLeft(phase, occ.L[axis], timer)
}

// shouldEndStraightRight 直行右转相位的结束条件
// 参数：carsSame-本轴直行右转车辆数，carsOpposite-另一轴直行右转车辆数，carsLeftSame-本轴左转车辆数，pedPending-本轴行人请求
// 算法说明：
// 1. 本轴车辆数不超过greenMinCarsThreshold时最短绿灯视为0
// 2. 达到最短绿灯后，满足以下任一条件即结束：
//   - 两轴总车辆数不超过ratioCarsLimit，且 另一轴/本轴 车辆比例不小于ratio（本轴为空时比例为无穷大）
//   - 本轴直行右转已清空而左转车道有车
//   - 有行人请求且本轴车辆数不超过PedRequestMaxCars
//
// 3. 达到最长绿灯无条件结束
func (s *AdaptiveStrategy) shouldEndStraightRight(
	phase Phase, carsSame, carsOpposite, carsLeftSame int, pedPending bool, timer int32,
) bool {
	p := phase.Params
	if timer >= p.GreenMax {
		return true
	}
	minimum := p.GreenMin
	if carsSame <= p.GreenMinCarsThreshold {
		minimum = 0
	}
	if timer < minimum {
		return false
	}
	ratio := mathutil.INF
	if carsSame > 0 {
		ratio = float64(carsOpposite) / float64(carsSame)
	}
	return (carsSame+carsOpposite <= p.RatioCarsLimit && ratio >= p.Ratio) ||
		(carsSame == 0 && carsLeftSame > 0) ||
		(pedPending && carsSame <= s.PedRequestMaxCars)
}

// shouldEndLeft 左转相位的结束条件：达到最短绿灯且左转车道清空，或达到最长绿灯
func shouldEndLeft(phase Phase, carsLeftSame int, timer int32) bool {
	return (timer >= phase.Params.GreenMin && carsLeftSame == 0) || timer >= phase.Params.GreenMax
}
