package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDirection = errors.New("unknown direction")
)

// Direction 进口道方位
type Direction int32

const (
	North Direction = iota // 北
	South                  // 南
	East                   // 东
	West                   // 西

	DirectionCount = 4
)

// Directions 全部方位，按北南东西排列
var Directions = [DirectionCount]Direction{North, South, East, West}

var directionNames = [DirectionCount]string{"north", "south", "east", "west"}

func (d Direction) String() string {
	if d < 0 || d >= DirectionCount {
		return fmt.Sprintf("Direction(%d)", int32(d))
	}
	return directionNames[d]
}

// ParseDirection 将north/south/east/west解析为方位
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if d < 0 || d >= DirectionCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, int32(d))
	}
	return []byte(directionNames[d]), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Axis 返回方位所在的轴
func (d Direction) Axis() Axis {
	if d == North || d == South {
		return AxisNS
	}
	return AxisEW
}

// Axis 路口的两个通行轴
type Axis int32

const (
	AxisNS Axis = iota // 南北向
	AxisEW             // 东西向
)

func (a Axis) String() string {
	if a == AxisNS {
		return "ns"
	}
	return "ew"
}

// Other 另一条轴
func (a Axis) Other() Axis {
	return 1 - a
}

// Directions 轴上的两个进口道，顺序与车辆放行顺序一致（南先于北，东先于西）
func (a Axis) Directions() [2]Direction {
	if a == AxisNS {
		return [2]Direction{South, North}
	}
	return [2]Direction{East, West}
}

// LaneKind 车道类型
type LaneKind int32

const (
	StraightRight LaneKind = iota // 直行+右转
	Left                          // 左转（含掉头）
)

// LaneID 八条进口车道之一，由方位和车道类型唯一确定
type LaneID int32

const LaneCount = DirectionCount * 2

// LaneOf 由方位和车道类型得到车道
func LaneOf(d Direction, kind LaneKind) LaneID {
	return LaneID(int32(d)*2 + int32(kind))
}

func (id LaneID) Direction() Direction {
	return Direction(id / 2)
}

func (id LaneID) Kind() LaneKind {
	return LaneKind(id % 2)
}

// String 返回快照中使用的键名，如n_sr、w_l
func (id LaneID) String() string {
	suffix := "sr"
	if id.Kind() == Left {
		suffix = "l"
	}
	return id.Direction().String()[:1] + "_" + suffix
}

// Vehicle 车辆
// ID由调用方分配，仅在当前排队车辆中需要唯一
type Vehicle struct {
	ID      string    `json:"id"`
	EndRoad Direction `json:"endRoad"`
}

func (v Vehicle) String() string {
	return fmt.Sprintf("Vehicle{ID=%v, EndRoad=%v}", v.ID, v.EndRoad)
}
