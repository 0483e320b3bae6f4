package input

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrUnknownCommand   = errors.New("unknown command type")
	ErrMissingVehicleID = errors.New("addVehicle without vehicleId")
)

// CommandType 指令类型
type CommandType string

const (
	CommandAddVehicle        CommandType = "addVehicle"
	CommandStep              CommandType = "step"
	CommandPedestrianRequest CommandType = "pedestrianRequest"
)

// Command 对路口的一条指令
// 说明：Vehicle/StartRoad只对addVehicle有效，Crossing只对pedestrianRequest有效
type Command struct {
	Type      CommandType
	Vehicle   entity.Vehicle
	StartRoad entity.Direction
	Crossing  entity.Direction
}

// AddVehicle 构造车辆到达指令
func AddVehicle(id string, start, end entity.Direction) Command {
	return Command{Type: CommandAddVehicle, Vehicle: entity.Vehicle{ID: id, EndRoad: end}, StartRoad: start}
}

// Step 构造推进一步指令
func Step() Command {
	return Command{Type: CommandStep}
}

// PedestrianRequest 构造行人过街请求指令
func PedestrianRequest(crossing entity.Direction) Command {
	return Command{Type: CommandPedestrianRequest, Crossing: crossing}
}

// rawCommand 指令的存储格式，JSON文件与MongoDB文档共用
type rawCommand struct {
	Type      string `json:"type" bson:"type"`
	VehicleID string `json:"vehicleId,omitempty" bson:"vehicleId,omitempty"`
	StartRoad string `json:"startRoad,omitempty" bson:"startRoad,omitempty"`
	EndRoad   string `json:"endRoad,omitempty" bson:"endRoad,omitempty"`
	Crossing  string `json:"crossing,omitempty" bson:"crossing,omitempty"`
	Road      string `json:"road,omitempty" bson:"road,omitempty"` // crossing的旧字段名，只读
}

func (c Command) raw() rawCommand {
	r := rawCommand{Type: string(c.Type)}
	switch c.Type {
	case CommandAddVehicle:
		r.VehicleID = c.Vehicle.ID
		r.StartRoad = c.StartRoad.String()
		r.EndRoad = c.Vehicle.EndRoad.String()
	case CommandPedestrianRequest:
		r.Crossing = c.Crossing.String()
	}
	return r
}

// parse 校验并转换存储格式
// 算法说明：指令类型与方位字面量必须合法，多余字段忽略
func (r rawCommand) parse() (Command, error) {
	switch CommandType(r.Type) {
	case CommandAddVehicle:
		if r.VehicleID == "" {
			return Command{}, ErrMissingVehicleID
		}
		start, err := entity.ParseDirection(r.StartRoad)
		if err != nil {
			return Command{}, fmt.Errorf("startRoad of %s: %w", r.VehicleID, err)
		}
		end, err := entity.ParseDirection(r.EndRoad)
		if err != nil {
			return Command{}, fmt.Errorf("endRoad of %s: %w", r.VehicleID, err)
		}
		return AddVehicle(r.VehicleID, start, end), nil
	case CommandStep:
		return Step(), nil
	case CommandPedestrianRequest:
		crossing := r.Crossing
		if crossing == "" {
			crossing = r.Road
		}
		d, err := entity.ParseDirection(crossing)
		if err != nil {
			return Command{}, fmt.Errorf("crossing: %w", err)
		}
		return PedestrianRequest(d), nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, r.Type)
	}
}

func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.raw())
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var r rawCommand
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	v, err := r.parse()
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Command) MarshalBSON() ([]byte, error) {
	return bson.Marshal(c.raw())
}

func (c *Command) UnmarshalBSON(data []byte) error {
	var r rawCommand
	if err := bson.Unmarshal(data, &r); err != nil {
		return err
	}
	v, err := r.parse()
	if err != nil {
		return err
	}
	*c = v
	return nil
}
