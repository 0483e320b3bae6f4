// 模拟结果与回放记录的输出格式
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction"
)

// StepStatus 一条step指令的结果
type StepStatus struct {
	LeftVehicles []string `json:"leftVehicles"` // 本步驶离路口的车辆ID，按驶离顺序
}

// NewStepStatus 由驶离车辆构造结果
func NewStepStatus(left []entity.Vehicle) StepStatus {
	return StepStatus{LeftVehicles: lo.Map(left, func(v entity.Vehicle, _ int) string { return v.ID })}
}

// Output 模拟结果，每条step指令对应一项
type Output struct {
	StepStatuses []StepStatus `json:"stepStatuses"`
}

// RecordedCommand 回放记录中的一项：指令类型与执行后的路口快照
type RecordedCommand struct {
	Type string            `json:"type"`
	Data junction.Snapshot `json:"data"`
}

// Recording 回放记录，每条指令对应一项
type Recording struct {
	Commands []RecordedCommand `json:"commands"`
}

// WriteJSON 以4空格缩进写出JSON文件
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}
