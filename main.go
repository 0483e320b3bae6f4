package main

import (
	"context"
	"encoding/base64"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/task"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/output"
	"github.com/tsinghua-fib-lab/crossroad-sim/web"
)

var (
	// 运行模式：run-批量执行指令，serve-提供RPC与websocket服务，gen-生成随机场景，golden-回放测试用例
	mode = flag.String("mode", "run", "run | serve | gen | golden")
	// 模拟任务名
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")

	// 输入输出文件，优先于配置文件中的input/output
	inputPath     = flag.String("input", "", "input json path")
	outputPath    = flag.String("output", "", "output json path")
	recordingPath = flag.String("recording", "", "recording json path (empty means no recording)")

	// 分布式模式syncer地址，如果设置为空则激活独立部署模式
	syncerAddr = flag.String("syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	// 本程序监听的地址
	listenAddr = flag.String("listen", ":51102", "RPC and websocket listening address")

	// 相位切换策略，非空时覆盖配置
	strategy = flag.String("tl.strategy", "", "phase switching strategy (adaptive | fixed)")

	// 随机场景
	seed  = flag.Int64("seed", -1, "generator seed (negative means use config)")
	steps = flag.Int("steps", 0, "generator steps (0 means use config)")

	// 测试用例
	casesDir = flag.String("cases", "task/testdata", "golden cases dir")
	update   = flag.Bool("golden.update", false, "rewrite expected.json instead of comparing")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "crossroad")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置，可缺省
	c, file := loadConfig()
	log.Infof("%+v", c)

	switch *mode {
	case "run":
		run(c, file)
	case "serve":
		serve(c, file)
	case "gen":
		gen(c, file)
	case "golden":
		golden()
	default:
		log.Panicf("unknown mode %q", *mode)
	}
}

// loadConfig 读取配置文件
// 返回：配置与其中的junction项；未指定配置文件时junction项为nil
func loadConfig() (config.Config, *config.Junction) {
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Info("no config file, use built-in junction config")
		return config.Config{}, nil
	}
	c, err := config.Load(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	return c, &c.Junction
}

// loadInput 读取输入，-input优先于配置文件
func loadInput(c config.Config) *input.Input {
	var in *input.Input
	var err error
	if *inputPath != "" {
		in, err = input.ReadFile(*inputPath)
	} else {
		in, err = input.Load(context.Background(), c.Input)
	}
	if err != nil {
		log.Fatalf("input load err: %v", err)
	}
	return in
}

// newContext 按优先级确定信控配置并创建任务上下文
func newContext(c config.Config, file *config.Junction, in *input.Input, record bool) *task.Context {
	jc := task.ResolveJunction(in, file)
	if *strategy != "" {
		jc.Strategy = *strategy
	}
	ctx, err := task.NewContext(*job, jc, record)
	if err != nil {
		log.Fatalf("junction config err: %v", err)
	}
	ctx.SetHeartbeatInterval(c.Control.HeartbeatInterval)
	return ctx
}

func pick(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

// writeResults 写出结果与回放记录
func writeResults(ctx *task.Context, c config.Config) {
	if path := pick(*outputPath, c.Output.File); path != "" {
		if err := output.WriteJSON(path, ctx.Output()); err != nil {
			log.Fatalf("write output err: %v", err)
		}
		log.Infof("wrote output to %s", path)
	}
	if path := pick(*recordingPath, c.Output.Recording); path != "" {
		if rec := ctx.Recording(); rec != nil {
			if err := output.WriteJSON(path, rec); err != nil {
				log.Fatalf("write recording err: %v", err)
			}
			log.Infof("wrote recording to %s", path)
		}
	}
}

func run(c config.Config, file *config.Junction) {
	in := loadInput(c)
	if pick(*outputPath, c.Output.File) == "" {
		log.Fatal("output path must be specified")
	}
	ctx := newContext(c, file, in, pick(*recordingPath, c.Output.Recording) != "")
	ctx.Run(in.Commands)
	writeResults(ctx, c)
	ctx.Close()
}

func serve(c config.Config, file *config.Junction) {
	var in *input.Input
	if *inputPath != "" || c.Input.Commands.File != "" || c.Input.Commands.Col != "" {
		in = loadInput(c)
	}
	ctx := newContext(c, file, in, pick(*recordingPath, c.Output.Recording) != "")

	hub := web.NewHub()
	ctx.SetBroadcaster(hub)
	if in != nil {
		// 预置的指令
		ctx.Run(in.Commands)
	}

	sidecar := syncer.NewSidecar(task.SelfName, *listenAddr, *syncerAddr)
	sidecar.Register(
		"crossroad.web",
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return web.Pattern, hub
		},
		syncer.WithNoLock(),
	)
	ctx.Serve(sidecar)
	log.Infof("serving at %s", *listenAddr)

	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sig.Done()
	log.Info("shutting down")
	hub.Close()
	ctx.Close()
	writeResults(ctx, c)
}

func gen(c config.Config, file *config.Junction) {
	g := c.Generator
	if *seed >= 0 {
		g.Seed = uint64(*seed)
	}
	if *steps > 0 {
		g.Steps = int32(*steps)
	}
	if g.Steps == 0 {
		g.Steps = 100
	}
	if g.ArrivalP == 0 && g.PedP == 0 {
		g.ArrivalP, g.PedP = 0.3, 0.05
	}
	path := pick(*outputPath, c.Input.Commands.File)
	if path == "" {
		log.Fatal("output path must be specified")
	}
	res := input.Input{Commands: input.Generate(g)}
	if file != nil {
		res.Config = file
	}
	if err := output.WriteJSON(path, res); err != nil {
		log.Fatalf("write input err: %v", err)
	}
	log.Infof("wrote %d commands to %s", len(res.Commands), path)
}

func golden() {
	if *update {
		if err := task.UpdateCases(*casesDir); err != nil {
			log.Fatalf("update cases err: %v", err)
		}
		return
	}
	results, err := task.RunCases(*casesDir)
	if err != nil {
		log.Fatalf("run cases err: %v", err)
	}
	failed := false
	for _, r := range results {
		if r.Err != nil {
			log.Errorf("case %s: %v", r.Name, r.Err)
			failed = true
		} else {
			log.Infof("case %s: ok", r.Name)
		}
	}
	if failed {
		os.Exit(1)
	}
}
