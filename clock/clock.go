package clock

import "fmt"

// Clock 仿真时钟
// 功能：记录路口已推进的步数，每条step指令推进一步
// 说明：模拟为离散时间，没有实际的秒数概念
type Clock struct {
	Step int32 // 当前步数，从0开始
}

// New 创建从第0步开始的时钟
func New() *Clock {
	return &Clock{}
}

// Tick 推进一步
// 返回：推进后的步数
func (c *Clock) Tick() int32 {
	c.Step++
	return c.Step
}

// String 获取时钟的字符串表示（Step N）
func (c *Clock) String() string {
	return fmt.Sprintf("Step %d", c.Step)
}
