package trafficlight

// FixedTimeStrategy 固定配时策略
// 功能：不看车道占用与行人请求，每个相位恰好持续greenMax步后切换
// 说明：用于与自适应策略对照
type FixedTimeStrategy struct{}

// Decide 相位已持续步数达到greenMax时结束
func (FixedTimeStrategy) Decide(phase Phase, _ Occupancy, _ PedestrianFlags, timer int32) bool {
	return timer >= phase.Params.GreenMax
}
