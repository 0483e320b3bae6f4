package input

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/randengine"
)

// Generate 生成随机场景
// 功能：按到达概率与行人请求概率生成指令序列，相同配置生成相同结果
// 参数：g-生成配置
// 返回：指令序列，每步的到达与行人请求都排在该步的step指令之前
// 算法说明：
// 1. 每步对四个进口道分别以arrival_p的概率到达一辆车
// 2. 出口道在其余三个方向中等权抽取，原方向（掉头）的权重为u_turn_weight
// 3. 车辆ID为以种子为命名空间的UUIDv5，保证可复现
// 4. 以ped_p的概率在随机方向上产生一次行人请求
func Generate(g config.Generator) []Command {
	engine := randengine.New(g.Seed)
	namespace := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("crossroad-sim/%d", g.Seed)))

	commands := make([]Command, 0, int(g.Steps)*2)
	vehicles := 0
	for range g.Steps {
		for _, start := range entity.Directions {
			if !engine.PTrue(g.ArrivalP) {
				continue
			}
			var weight [entity.DirectionCount]float64
			for i, end := range entity.Directions {
				if end == start {
					weight[i] = g.UTurnWeight
				} else {
					weight[i] = 1
				}
			}
			end := entity.Directions[engine.DiscreteDistribution(weight[:])]
			id := uuid.NewSHA1(namespace, []byte(strconv.Itoa(vehicles))).String()
			vehicles++
			commands = append(commands, AddVehicle(id, start, end))
		}
		if engine.PTrue(g.PedP) {
			commands = append(commands, PedestrianRequest(randengine.Choice(engine, entity.Directions[:])))
		}
		commands = append(commands, Step())
	}
	log.Infof("generated %d vehicles in %d steps", vehicles, g.Steps)
	return commands
}
