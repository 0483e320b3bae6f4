package clock

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/rpcutil"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	// ServiceName 时钟服务名
	ServiceName = "crossroad.v1.ClockService"
	// NowProcedure 查询当前步数
	NowProcedure = "/" + ServiceName + "/Now"
)

// NowResponse Now接口的响应
type NowResponse struct {
	Step int32 `json:"step"`
}

// Service 时钟RPC服务
// 功能：在锁保护下对外提供当前步数
type Service struct {
	clock *Clock
	mtx   sync.Locker // 与推进时钟的一方共用
}

// NewService 创建时钟服务，mtx为推进时钟时持有的锁
func NewService(c *Clock, mtx sync.Locker) *Service {
	return &Service{clock: c, mtx: mtx}
}

// Register 将ClockService注册到sidecar
// 说明：服务自行加锁，不使用sidecar的锁
func (s *Service) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(
		ServiceName,
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return s.Handler(opts...)
		},
		syncer.WithNoLock(),
	)
}

// Handler 构建服务的HTTP处理器
// 返回：路由前缀与处理器
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(NowProcedure, connect.NewUnaryHandler(NowProcedure, s.Now, rpcutil.HandlerOptions(opts...)...))
	return "/" + ServiceName + "/", mux
}

// Now 获取当前步数
func (s *Service) Now(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[NowResponse], error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return connect.NewResponse(&NowResponse{Step: s.clock.Step}), nil
}
