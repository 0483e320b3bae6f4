package junction

import "github.com/samber/lo"

// Metrics 路口通行指标
type Metrics struct {
	CarsPerStep        []int // 每步驶离车辆数
	CarsPerPhase       []int // 每个相位内驶离车辆数，最后一项为当前相位
	CarsWaitingPerStep []int // 每步结束时面对红灯排队的车辆数
}

func newMetrics() *Metrics {
	return &Metrics{CarsPerPhase: []int{0}}
}

func (m *Metrics) record(departed, waiting int, phaseChanged bool) {
	m.CarsPerStep = append(m.CarsPerStep, departed)
	m.CarsPerPhase[len(m.CarsPerPhase)-1] += departed
	if phaseChanged {
		m.CarsPerPhase = append(m.CarsPerPhase, 0)
	}
	m.CarsWaitingPerStep = append(m.CarsWaitingPerStep, waiting)
}

// Summary 指标汇总
type Summary struct {
	Steps        int     `json:"steps"`
	Departed     int     `json:"departed"`
	PhaseChanges int     `json:"phaseChanges"`
	MeanPerStep  float64 `json:"meanPerStep"`
	MeanPerPhase float64 `json:"meanPerPhase"`
	MeanWaiting  float64 `json:"meanWaiting"`
	MaxWaiting   int     `json:"maxWaiting"`
}

// Summary 汇总指标，未走过任何一步时各均值为0
func (m *Metrics) Summary() Summary {
	s := Summary{
		Steps:        len(m.CarsPerStep),
		Departed:     lo.Sum(m.CarsPerStep),
		PhaseChanges: len(m.CarsPerPhase) - 1,
		MaxWaiting:   lo.Max(m.CarsWaitingPerStep),
	}
	if s.Steps > 0 {
		s.MeanPerStep = float64(s.Departed) / float64(s.Steps)
		s.MeanWaiting = float64(lo.Sum(m.CarsWaitingPerStep)) / float64(s.Steps)
	}
	if s.PhaseChanges > 0 {
		// 只统计已完成的相位
		s.MeanPerPhase = float64(lo.Sum(m.CarsPerPhase[:s.PhaseChanges])) / float64(s.PhaseChanges)
	}
	return s
}
