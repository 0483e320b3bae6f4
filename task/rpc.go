package task

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/rpcutil"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	// JunctionServiceName 路口服务名
	JunctionServiceName = "crossroad.v1.JunctionService"

	AddVehicleProcedure        = "/" + JunctionServiceName + "/AddVehicle"
	PedestrianRequestProcedure = "/" + JunctionServiceName + "/PedestrianRequest"
	StepProcedure              = "/" + JunctionServiceName + "/Step"
	SnapshotProcedure          = "/" + JunctionServiceName + "/Snapshot"
)

type AddVehicleRequest struct {
	VehicleID string `json:"vehicleId"`
	StartRoad string `json:"startRoad"`
	EndRoad   string `json:"endRoad"`
}

type AddVehicleResponse struct {
	Lane string `json:"lane"` // 车辆所在车道，如n_sr
}

type PedestrianRequestRequest struct {
	Crossing string `json:"crossing"`
}

type PedestrianRequestResponse struct {
	Accepted bool `json:"accepted"` // 行人灯已为绿时为false
}

type StepResponse struct {
	Step         int32    `json:"step"`         // 执行后的步数
	LeftVehicles []string `json:"leftVehicles"` // 本步驶离的车辆
}

// Register 将JunctionService注册到sidecar
// 功能：将路口注册为RPC服务，提供远程调用接口
// 说明：服务与本地指令共用Context的锁，不使用sidecar的锁
func (ctx *Context) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(
		JunctionServiceName,
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return ctx.Handler(opts...)
		},
		syncer.WithNoLock(),
	)
}

// Handler 构建JunctionService的HTTP处理器
// 返回：路由前缀与处理器
func (ctx *Context) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := http.NewServeMux()
	mux.Handle(AddVehicleProcedure, connect.NewUnaryHandler(AddVehicleProcedure, ctx.AddVehicle, opts...))
	mux.Handle(PedestrianRequestProcedure, connect.NewUnaryHandler(PedestrianRequestProcedure, ctx.PedestrianRequest, opts...))
	mux.Handle(StepProcedure, connect.NewUnaryHandler(StepProcedure, ctx.Step, opts...))
	mux.Handle(SnapshotProcedure, connect.NewUnaryHandler(SnapshotProcedure, ctx.SnapshotRPC, opts...))
	return "/" + JunctionServiceName + "/", mux
}

// AddVehicle RPC接口：车辆到达路口
// 参数：in-车辆ID、进口道、出口道
// 返回：车辆所在车道；ID为空或方位非法时返回InvalidArgument
func (ctx *Context) AddVehicle(
	_ context.Context, in *connect.Request[AddVehicleRequest],
) (*connect.Response[AddVehicleResponse], error) {
	req := in.Msg
	if req.VehicleID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, input.ErrMissingVehicleID)
	}
	start, err := entity.ParseDirection(req.StartRoad)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	end, err := entity.ParseDirection(req.EndRoad)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	res, err := ctx.Apply(input.AddVehicle(req.VehicleID, start, end))
	if err != nil {
		return nil, applyError(err)
	}
	return connect.NewResponse(&AddVehicleResponse{Lane: res.Lane.String()}), nil
}

// PedestrianRequest RPC接口：行人请求过街
func (ctx *Context) PedestrianRequest(
	_ context.Context, in *connect.Request[PedestrianRequestRequest],
) (*connect.Response[PedestrianRequestResponse], error) {
	d, err := entity.ParseDirection(in.Msg.Crossing)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	res, err := ctx.Apply(input.PedestrianRequest(d))
	if err != nil {
		return nil, applyError(err)
	}
	return connect.NewResponse(&PedestrianRequestResponse{Accepted: res.Accepted}), nil
}

// Step RPC接口：推进一步
func (ctx *Context) Step(
	_ context.Context, _ *connect.Request[emptypb.Empty],
) (*connect.Response[StepResponse], error) {
	res, err := ctx.Apply(input.Step())
	if err != nil {
		return nil, applyError(err)
	}
	return connect.NewResponse(&StepResponse{
		Step:         res.Step,
		LeftVehicles: lo.Map(res.Left, func(v entity.Vehicle, _ int) string { return v.ID }),
	}), nil
}

// applyError 将指令执行错误转换为RPC错误
func applyError(err error) error {
	if errors.Is(err, ErrClosed) {
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// SnapshotRPC RPC接口（Snapshot）：获取路口状态快照
func (ctx *Context) SnapshotRPC(
	_ context.Context, _ *connect.Request[emptypb.Empty],
) (*connect.Response[junction.Snapshot], error) {
	s := ctx.Snapshot()
	return connect.NewResponse(&s), nil
}
