package config

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Default 内置的路口信控配置
// 功能：在输入与配置文件均未给出信控参数时使用
func Default() Junction {
	sr := PhaseParams{GreenMin: 1, GreenMinCarsThreshold: 3, GreenMax: 5, Ratio: 1.5, RatioCarsLimit: 5}
	l := PhaseParams{GreenMin: 0, GreenMinCarsThreshold: 3, GreenMax: 3, Ratio: 1.5, RatioCarsLimit: 5}
	return Junction{
		States: map[string]PhaseParams{
			"NS_SR": sr,
			"NS_L":  l,
			"EW_SR": sr,
			"EW_L":  l,
		},
		PedRequestMaxCars: 3,
	}
}

// Load 解析YAML配置
// 功能：严格模式解析配置文件内容，未知字段视为错误
// 参数：file-配置文件内容
// 返回：配置对象，若junction.states为空则填入内置默认值
func Load(file []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if len(c.Junction.States) == 0 {
		d := Default()
		c.Junction.States = d.States
		if c.Junction.PedRequestMaxCars == 0 {
			c.Junction.PedRequestMaxCars = d.PedRequestMaxCars
		}
	}
	return c, nil
}
