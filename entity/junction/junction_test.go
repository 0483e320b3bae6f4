package junction_test

import (
	"encoding/json"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

func uniform(p config.PhaseParams, pedRequestMaxCars int) config.Junction {
	return config.Junction{
		States:            map[string]config.PhaseParams{"NS_SR": p, "NS_L": p, "EW_SR": p, "EW_L": p},
		PedRequestMaxCars: pedRequestMaxCars,
	}
}

// scripted 按脚本返回是否切换相位的策略
type scripted struct {
	decisions []bool
	calls     int
}

func (s *scripted) Decide(trafficlight.Phase, trafficlight.Occupancy, trafficlight.PedestrianFlags, int32) bool {
	d := false
	if s.calls < len(s.decisions) {
		d = s.decisions[s.calls]
	}
	s.calls++
	return d
}

// always 总是（或从不）切换相位
type always bool

func (a always) Decide(trafficlight.Phase, trafficlight.Occupancy, trafficlight.PedestrianFlags, int32) bool {
	return bool(a)
}

func ids(vs []entity.Vehicle) []string {
	return lo.Map(vs, func(v entity.Vehicle, _ int) string { return v.ID })
}

func mustNew(t *testing.T, c config.Junction) *junction.Junction {
	j, err := junction.New(c)
	require.NoError(t, err)
	return j
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	c := config.Default()
	delete(c.States, "NS_L")
	_, err := junction.New(c)
	assert.ErrorIs(t, err, trafficlight.ErrMissingPhase)

	c = config.Default()
	c.Strategy = "random"
	_, err = junction.New(c)
	assert.ErrorIs(t, err, trafficlight.ErrUnknownStrategy)
}

func TestInitialState(t *testing.T) {
	j := mustNew(t, uniform(config.PhaseParams{GreenMax: 2, Ratio: 1}, 10))
	assert.Equal(t, trafficlight.NSStraightRight, j.Phase().Name)
	assert.Equal(t, int32(0), j.Timer())

	s := j.Snapshot()
	assert.Equal(t, trafficlight.Green, s.Lights.NS.SR)
	assert.Equal(t, trafficlight.Red, s.Lights.NS.Ped)
	assert.Equal(t, trafficlight.Red, s.Lights.EW.SR)
	assert.Equal(t, trafficlight.Green, s.Lights.EW.Ped)
	assert.Nil(t, j.Metrics())
}

func TestAddVehicleLanes(t *testing.T) {
	j := mustNew(t, config.Default())
	assert.Equal(t, entity.LaneOf(entity.North, entity.StraightRight), j.AddVehicle(entity.Vehicle{ID: "v1", EndRoad: entity.South}, entity.North))
	assert.Equal(t, entity.LaneOf(entity.North, entity.Left), j.AddVehicle(entity.Vehicle{ID: "v2", EndRoad: entity.North}, entity.North))

	s := j.Snapshot()
	assert.Equal(t, []string{"v1"}, ids(s.Cars.NorthSR))
	assert.Equal(t, []string{"v2"}, ids(s.Cars.NorthL))
	assert.Empty(t, s.Cars.SouthSR)
}

func TestSingleVehicleDeparts(t *testing.T) {
	j := mustNew(t, uniform(config.PhaseParams{GreenMin: 0, GreenMax: 2, Ratio: 1}, 10))
	j.AddVehicle(entity.Vehicle{ID: "v1", EndRoad: entity.South}, entity.North)
	assert.Equal(t, []entity.Vehicle{{ID: "v1", EndRoad: entity.South}}, j.Step())
}

func TestOpposingStraightVehiclesDepartSouthFirst(t *testing.T) {
	j := mustNew(t, uniform(config.PhaseParams{GreenMax: 2, Ratio: 1}, 10))
	j.AddVehicle(entity.Vehicle{ID: "n", EndRoad: entity.South}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "s", EndRoad: entity.North}, entity.South)
	assert.Equal(t, []string{"s", "n"}, ids(j.Step()))
}

func TestDepartureOrder(t *testing.T) {
	j, err := junction.NewWithStrategy(config.Default(), always(false))
	require.NoError(t, err)
	j.AddVehicle(entity.Vehicle{ID: "n1", EndRoad: entity.South}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "s1", EndRoad: entity.North}, entity.South)
	j.AddVehicle(entity.Vehicle{ID: "w1", EndRoad: entity.South}, entity.West)
	j.AddVehicle(entity.Vehicle{ID: "e1", EndRoad: entity.North}, entity.East)
	j.AddVehicle(entity.Vehicle{ID: "nl", EndRoad: entity.East}, entity.North)

	// NS_SR：南北直行右转，东西右转箭头
	assert.Equal(t, []string{"s1", "n1", "e1", "w1"}, ids(j.Step()))
	assert.Equal(t, []string{"nl"}, ids(j.Snapshot().Cars.NorthL))
	assert.Empty(t, j.Step())
}

func TestConditionalRightOnlyHead(t *testing.T) {
	j, err := junction.NewWithStrategy(config.Default(), always(false))
	require.NoError(t, err)
	// 东进口：队首直行，其后右转，右转车被挡住
	j.AddVehicle(entity.Vehicle{ID: "e-straight", EndRoad: entity.West}, entity.East)
	j.AddVehicle(entity.Vehicle{ID: "e-right", EndRoad: entity.North}, entity.East)
	// 西进口：队首右转
	j.AddVehicle(entity.Vehicle{ID: "w-right", EndRoad: entity.South}, entity.West)
	j.AddVehicle(entity.Vehicle{ID: "w-right2", EndRoad: entity.South}, entity.West)

	assert.Equal(t, []string{"w-right"}, ids(j.Step()))
	assert.Equal(t, []string{"w-right2"}, ids(j.Step()))
	assert.Empty(t, j.Step())
	assert.Equal(t, []string{"e-straight", "e-right"}, ids(j.Snapshot().Cars.EastSR))
}

func TestConditionalRightDuringEastWestPhase(t *testing.T) {
	j, err := junction.NewWithStrategy(config.Default(), &scripted{decisions: []bool{true, true}})
	require.NoError(t, err)
	j.Step() // NS_SR -> NS_L
	j.Step() // NS_L -> EW_SR
	require.Equal(t, trafficlight.EWStraightRight, j.Phase().Name)

	j.AddVehicle(entity.Vehicle{ID: "n-right", EndRoad: entity.West}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "s-straight", EndRoad: entity.North}, entity.South)
	j.AddVehicle(entity.Vehicle{ID: "e", EndRoad: entity.West}, entity.East)
	j.AddVehicle(entity.Vehicle{ID: "w", EndRoad: entity.East}, entity.West)

	// 南北右转箭头先于东西直行
	assert.Equal(t, []string{"n-right", "e", "w"}, ids(j.Step()))
	assert.Equal(t, []string{"s-straight"}, ids(j.Snapshot().Cars.SouthSR))
}

func TestLeftPhaseReleasesLeftLanes(t *testing.T) {
	j, err := junction.NewWithStrategy(config.Default(), &scripted{decisions: []bool{true}})
	require.NoError(t, err)
	j.AddVehicle(entity.Vehicle{ID: "n-u", EndRoad: entity.North}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "s-left", EndRoad: entity.West}, entity.South)
	assert.Empty(t, j.Step())
	require.Equal(t, trafficlight.NSLeft, j.Phase().Name)
	assert.Equal(t, []string{"s-left", "n-u"}, ids(j.Step()))
}

func TestTimerInvariant(t *testing.T) {
	s := &scripted{decisions: []bool{false, false, false, true, false}}
	j, err := junction.NewWithStrategy(config.Default(), s)
	require.NoError(t, err)
	for i := int32(1); i <= 3; i++ {
		j.Step()
		assert.Equal(t, i, j.Timer())
	}
	j.Step()
	assert.Equal(t, int32(0), j.Timer())
	assert.Equal(t, trafficlight.NSLeft, j.Phase().Name)
	j.Step()
	assert.Equal(t, int32(1), j.Timer())
}

func TestPhaseOutputMatchesTable(t *testing.T) {
	table, err := trafficlight.NewPhaseTable(config.Default().States)
	require.NoError(t, err)
	j, err := junction.NewWithStrategy(config.Default(), always(true))
	require.NoError(t, err)
	for range 9 {
		p := j.Phase()
		assert.Equal(t, table.Get(p.Name), p)
		assert.Equal(t, p.Output, j.Snapshot().Lights)
		j.Step()
	}
	assert.Equal(t, trafficlight.NSLeft, j.Phase().Name)
}

func TestPedestrianRequestOnlyWhenRed(t *testing.T) {
	j, err := junction.NewWithStrategy(config.Default(), &scripted{decisions: []bool{true, true}})
	require.NoError(t, err)

	// NS_SR：南北行人灯红，东西行人灯绿
	assert.True(t, j.RequestPedestrianCrossing(entity.North))
	assert.False(t, j.RequestPedestrianCrossing(entity.East))
	s := j.Snapshot()
	assert.True(t, s.PedestrianRequestN)
	assert.False(t, s.PedestrianRequestE)

	j.Step() // -> NS_L，不清除
	assert.True(t, j.Snapshot().PedestrianRequestN)
	assert.True(t, j.RequestPedestrianCrossing(entity.East))
	assert.True(t, j.Snapshot().PedestrianRequestE)

	j.Step() // -> EW_SR，清除南北
	s = j.Snapshot()
	assert.False(t, s.PedestrianRequestN)
	assert.True(t, s.PedestrianRequestE)

	// EW_SR：南北行人灯绿
	assert.False(t, j.RequestPedestrianCrossing(entity.South))
	assert.False(t, j.Snapshot().PedestrianRequestS)
}

func TestPedestrianFlagClearedOnNorthSouthStraight(t *testing.T) {
	j, err := junction.NewWithStrategy(config.Default(), &scripted{decisions: []bool{true, true, false, true, true}})
	require.NoError(t, err)
	j.Step()
	j.Step()
	require.Equal(t, trafficlight.EWStraightRight, j.Phase().Name)
	assert.True(t, j.RequestPedestrianCrossing(entity.West))
	j.Step() // 停留
	j.Step() // -> EW_L
	assert.True(t, j.Snapshot().PedestrianRequestW)
	j.Step() // -> NS_SR
	assert.False(t, j.Snapshot().PedestrianRequestW)
}

func TestPedestrianShortensStraightRight(t *testing.T) {
	c := uniform(config.PhaseParams{GreenMin: 1, GreenMinCarsThreshold: 2, GreenMax: 3, Ratio: 1}, 2)
	j := mustNew(t, c)
	for _, id := range []string{"a", "b", "c"} {
		j.AddVehicle(entity.Vehicle{ID: id, EndRoad: entity.South}, entity.North)
	}

	// 剩2辆，无行人请求，不切换
	assert.Equal(t, []string{"a"}, ids(j.Step()))
	assert.Equal(t, trafficlight.NSStraightRight, j.Phase().Name)
	assert.Equal(t, int32(1), j.Timer())

	j.RequestPedestrianCrossing(entity.North)
	// 剩1辆 <= pedRequestMaxCars，切换到NS_L
	assert.Equal(t, []string{"b"}, ids(j.Step()))
	assert.Equal(t, trafficlight.NSLeft, j.Phase().Name)
	assert.True(t, j.Snapshot().PedestrianRequestN, "flag is only consumed when NS pedestrians get green")
}

func TestPedestrianIgnoredWhenTooManyCars(t *testing.T) {
	c := uniform(config.PhaseParams{GreenMin: 0, GreenMax: 10, Ratio: 1}, 1)
	j := mustNew(t, c)
	for _, id := range []string{"a", "b", "c", "d"} {
		j.AddVehicle(entity.Vehicle{ID: id, EndRoad: entity.South}, entity.North)
	}
	j.RequestPedestrianCrossing(entity.South)
	j.Step() // 剩3
	j.Step() // 剩2
	assert.Equal(t, trafficlight.NSStraightRight, j.Phase().Name)
	j.Step() // 剩1
	assert.Equal(t, trafficlight.NSLeft, j.Phase().Name)
}

func TestEmptyAxisHandsOverToLeft(t *testing.T) {
	c := uniform(config.PhaseParams{GreenMin: 1, GreenMinCarsThreshold: 2, GreenMax: 3, Ratio: 1}, 2)
	j := mustNew(t, c)
	j.AddVehicle(entity.Vehicle{ID: "a", EndRoad: entity.South}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "b", EndRoad: entity.North}, entity.South)
	assert.ElementsMatch(t, []string{"a", "b"}, ids(j.Step()))
	// 南北直行清空，比例无穷大，立即切换
	assert.Equal(t, trafficlight.NSLeft, j.Phase().Name)

	j.Step() // NS_L timer 0 < greenMin
	assert.Equal(t, trafficlight.NSLeft, j.Phase().Name)
	j.Step()
	assert.Equal(t, trafficlight.EWStraightRight, j.Phase().Name)
	assert.Equal(t, trafficlight.Green, j.Snapshot().Lights.EW.SR)
}

func TestSnapshotIdempotent(t *testing.T) {
	j := mustNew(t, config.Default())
	j.AddVehicle(entity.Vehicle{ID: "a", EndRoad: entity.East}, entity.West)
	j.RequestPedestrianCrossing(entity.North)
	s1 := j.Snapshot()
	s2 := j.Snapshot()
	assert.Equal(t, s1, s2)

	// 修改快照不影响路口
	s1.Cars.WestSR[0].ID = "changed"
	assert.Equal(t, "a", j.Snapshot().Cars.WestSR[0].ID)
}

func TestSnapshotJSON(t *testing.T) {
	j := mustNew(t, config.Default())
	j.AddVehicle(entity.Vehicle{ID: "a", EndRoad: entity.East}, entity.West)
	b, err := json.Marshal(j.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"lights": {
			"ns": {"sr": "green", "l": "red", "ped": "red", "cond": "red"},
			"ew": {"sr": "red", "l": "red", "ped": "green", "cond": "green"}
		},
		"cars": {
			"n_sr": [], "n_l": [], "s_sr": [], "s_l": [],
			"e_sr": [], "e_l": [], "w_sr": [{"id": "a", "endRoad": "east"}], "w_l": []
		},
		"pedestrianRequestN": false,
		"pedestrianRequestS": false,
		"pedestrianRequestE": false,
		"pedestrianRequestW": false
	}`, string(b))
}

func TestDeterminism(t *testing.T) {
	run := func() []byte {
		j := mustNew(t, config.Default())
		out := make([][]string, 0)
		for i := range 30 {
			d := entity.Directions[i%4]
			j.AddVehicle(entity.Vehicle{ID: string(rune('a' + i%26)), EndRoad: entity.Directions[(i/4)%4]}, d)
			if i%7 == 0 {
				j.RequestPedestrianCrossing(entity.Directions[(i/7)%4])
			}
			out = append(out, ids(j.Step()))
		}
		b, err := json.Marshal(struct {
			Out  [][]string
			Snap junction.Snapshot
		}{out, j.Snapshot()})
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, run(), run())
}

func TestMetrics(t *testing.T) {
	c := config.Default()
	c.Metrics = true
	j, err := junction.NewWithStrategy(c, &scripted{decisions: []bool{false, true, false}})
	require.NoError(t, err)
	j.AddVehicle(entity.Vehicle{ID: "a", EndRoad: entity.South}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "b", EndRoad: entity.South}, entity.North)
	j.AddVehicle(entity.Vehicle{ID: "c", EndRoad: entity.West}, entity.East)

	j.Step() // a 驶离；东进口直行右转等红灯
	j.Step() // b 驶离，切换到NS_L
	j.Step() // 无车驶离

	m := j.Metrics()
	require.NotNil(t, m)
	assert.Equal(t, []int{1, 1, 0}, m.CarsPerStep)
	assert.Equal(t, []int{2, 0}, m.CarsPerPhase)
	assert.Equal(t, []int{1, 1, 1}, m.CarsWaitingPerStep)

	s := m.Summary()
	assert.Equal(t, 3, s.Steps)
	assert.Equal(t, 2, s.Departed)
	assert.Equal(t, 1, s.PhaseChanges)
	assert.InDelta(t, 2.0/3.0, s.MeanPerStep, 1e-9)
	assert.InDelta(t, 2.0, s.MeanPerPhase, 1e-9)
	assert.Equal(t, 1, s.MaxWaiting)
}
