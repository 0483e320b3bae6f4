// 提供路口的四相位信号灯表
// 相位顺序固定为 NS_SR -> NS_L -> EW_SR -> EW_L -> NS_SR，只有每个相位持续的步数会变化
package trafficlight

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

var (
	ErrMissingPhase    = errors.New("trafficlight: missing phase config")
	ErrUnknownPhase    = errors.New("trafficlight: unknown phase name")
	ErrInvalidParams   = errors.New("trafficlight: invalid phase params")
	ErrUnknownStrategy = errors.New("trafficlight: unknown strategy")
)

// Light 单个灯面的颜色
type Light int32

const (
	Red Light = iota
	Green
)

func (l Light) String() string {
	if l == Green {
		return "green"
	}
	return "red"
}

func (l Light) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Light) UnmarshalText(text []byte) error {
	switch string(text) {
	case "red":
		*l = Red
	case "green":
		*l = Green
	default:
		return fmt.Errorf("trafficlight: unknown light %q", text)
	}
	return nil
}

// LightState 一条轴上的四个灯面
type LightState struct {
	SR   Light `json:"sr"`   // 直行+右转
	L    Light `json:"l"`    // 左转
	Ped  Light `json:"ped"`  // 行人
	Cond Light `json:"cond"` // 右转箭头灯，直行灯为红时也可单独放行右转
}

// Output 相位的信号灯输出
type Output struct {
	NS LightState `json:"ns"` // 南北向
	EW LightState `json:"ew"` // 东西向
}

// Axis 获取指定轴的灯面
func (o Output) Axis(a entity.Axis) LightState {
	if a == entity.AxisNS {
		return o.NS
	}
	return o.EW
}

// PhaseName 相位名
type PhaseName int32

const (
	NSStraightRight PhaseName = iota // NS_SR
	NSLeft                           // NS_L
	EWStraightRight                  // EW_SR
	EWLeft                           // EW_L

	PhaseCount = 4
)

// PhaseNames 全部相位，按循环顺序排列
var PhaseNames = [PhaseCount]PhaseName{NSStraightRight, NSLeft, EWStraightRight, EWLeft}

var phaseNameStrings = [PhaseCount]string{"NS_SR", "NS_L", "EW_SR", "EW_L"}

func (n PhaseName) String() string {
	if n < 0 || n >= PhaseCount {
		return fmt.Sprintf("PhaseName(%d)", int32(n))
	}
	return phaseNameStrings[n]
}

// ParsePhaseName 解析NS_SR|NS_L|EW_SR|EW_L
func ParsePhaseName(s string) (PhaseName, error) {
	i := lo.IndexOf(phaseNameStrings[:], s)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return PhaseName(i), nil
}

// Next 后继相位
func (n PhaseName) Next() PhaseName {
	return (n + 1) % PhaseCount
}

// Axis 相位放行的轴
func (n PhaseName) Axis() entity.Axis {
	if n == NSStraightRight || n == NSLeft {
		return entity.AxisNS
	}
	return entity.AxisEW
}

// IsStraightRight 是否为直行右转相位
func (n PhaseName) IsStraightRight() bool {
	return n == NSStraightRight || n == EWStraightRight
}

// outputs 各相位固定的灯色输出
// 某轴直行右转放行时，另一轴的行人灯与右转箭头灯同时为绿
var outputs = [PhaseCount]Output{
	NSStraightRight: {
		NS: LightState{SR: Green, L: Red, Ped: Red, Cond: Red},
		EW: LightState{SR: Red, L: Red, Ped: Green, Cond: Green},
	},
	NSLeft: {
		NS: LightState{SR: Red, L: Green, Ped: Red, Cond: Red},
		EW: LightState{SR: Red, L: Red, Ped: Red, Cond: Red},
	},
	EWStraightRight: {
		NS: LightState{SR: Red, L: Red, Ped: Green, Cond: Green},
		EW: LightState{SR: Green, L: Red, Ped: Red, Cond: Red},
	},
	EWLeft: {
		NS: LightState{SR: Red, L: Red, Ped: Red, Cond: Red},
		EW: LightState{SR: Red, L: Green, Ped: Red, Cond: Red},
	},
}

// Phase 相位
type Phase struct {
	Name   PhaseName
	Params config.PhaseParams
	Output Output
}

// PhaseTable 四个相位组成的不可变表，以相位名为下标
type PhaseTable struct {
	phases [PhaseCount]Phase
}

// NewPhaseTable 根据配置构建相位表
// 功能：校验四个相位的配时参数齐全且合法，生成固定的相位表
// 参数：states-相位名到配时参数的映射
// 返回：相位表；缺少相位、出现未知相位名或参数为负时返回错误
func NewPhaseTable(states map[string]config.PhaseParams) (*PhaseTable, error) {
	for _, key := range lo.Keys(states) {
		if _, err := ParsePhaseName(key); err != nil {
			return nil, err
		}
	}
	t := &PhaseTable{}
	for _, name := range PhaseNames {
		params, ok := states[name.String()]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrMissingPhase, name)
		}
		if err := checkParams(params); err != nil {
			return nil, fmt.Errorf("%w: %v %v", ErrInvalidParams, name, err)
		}
		t.phases[name] = Phase{Name: name, Params: params, Output: outputs[name]}
	}
	return t, nil
}

func checkParams(p config.PhaseParams) error {
	switch {
	case p.GreenMin < 0:
		return fmt.Errorf("greenMin %d < 0", p.GreenMin)
	case p.GreenMax < 0:
		return fmt.Errorf("greenMax %d < 0", p.GreenMax)
	case p.GreenMinCarsThreshold < 0:
		return fmt.Errorf("greenMinCarsThreshold %d < 0", p.GreenMinCarsThreshold)
	case p.RatioCarsLimit < 0:
		return fmt.Errorf("ratioCarsLimit %d < 0", p.RatioCarsLimit)
	case !(p.Ratio >= 0):
		return fmt.Errorf("ratio %v is not a non-negative number", p.Ratio)
	}
	return nil
}

// Get 获取相位（副本）
func (t *PhaseTable) Get(name PhaseName) Phase {
	return t.phases[name]
}
