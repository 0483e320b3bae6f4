package config

// InputPath 指定指令数据来源的配置（MongoDB、文件系统）
// 功能：定义指令输入路径，文件优先于MongoDB
type InputPath struct {
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// Input 指定模拟器输入数据的配置项
type Input struct {
	URI      string    `yaml:"uri,omitempty"` // MongoDB连接字符串
	Commands InputPath `yaml:"commands"`      // 指令序列
}

// Output 指定模拟结果输出位置
type Output struct {
	File      string `yaml:"file"`                // 每步驶离车辆
	Recording string `yaml:"recording,omitempty"` // 每条指令后的状态快照，为空则不记录
}

// PhaseParams 单个相位的配时参数
// 说明：时间单位均为步
type PhaseParams struct {
	GreenMin              int32   `yaml:"green_min" json:"greenMin"`                             // 最短绿灯步数
	GreenMinCarsThreshold int     `yaml:"green_min_cars_threshold" json:"greenMinCarsThreshold"` // 放行车道车辆数不超过该值时最短绿灯视为0
	GreenMax              int32   `yaml:"green_max" json:"greenMax"`                             // 最长绿灯步数
	Ratio                 float64 `yaml:"ratio" json:"ratio"`                                    // 等待车辆/放行车辆比例阈值，仅直行右转相位有效
	RatioCarsLimit        int     `yaml:"ratio_cars_limit" json:"ratioCarsLimit"`                // 两轴直行右转车辆总数超过该值时不使用比例规则
}

// Junction 路口信控配置
type Junction struct {
	States            map[string]PhaseParams `yaml:"states" json:"states"`                          // 相位名(NS_SR|NS_L|EW_SR|EW_L)->配时参数
	PedRequestMaxCars int                    `yaml:"ped_request_max_cars" json:"pedRequestMaxCars"` // 行人请求可提前结束相位时放行车道的最大车辆数
	Strategy          string                 `yaml:"strategy,omitempty" json:"strategy,omitempty"`  // 相位切换策略(adaptive|fixed)，默认adaptive
	Metrics           bool                   `yaml:"metrics,omitempty" json:"metrics,omitempty"`    // 是否统计通行指标
}

// Generator 随机场景生成配置
type Generator struct {
	Seed        uint64  `yaml:"seed"`                   // 随机种子
	Steps       int32   `yaml:"steps"`                  // 模拟步数
	ArrivalP    float64 `yaml:"arrival_p"`              // 每步每个进口道到达一辆车的概率
	PedP        float64 `yaml:"ped_p"`                  // 每步出现一次行人请求的概率
	UTurnWeight float64 `yaml:"u_turn_weight,omitempty"` // 掉头相对于其他出口道的权重
}

// Control 模拟器控制配置
type Control struct {
	HeartbeatInterval int32 `yaml:"heartbeat_interval,omitempty"` // 心跳日志间隔步数，0表示使用命令行参数
}

// Config YAML配置文件的根结构
type Config struct {
	Input     Input     `yaml:"input"`
	Output    Output    `yaml:"output"`
	Junction  Junction  `yaml:"junction"`
	Generator Generator `yaml:"generator,omitempty"`
	Control   Control   `yaml:"control,omitempty"`
}
