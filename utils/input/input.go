package input

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var log = logrus.WithField("module", "input")

var (
	ErrMissingCommands = errors.New("input has no commands")
	ErrNoSource        = errors.New("neither commands file nor commands db/col is configured")
)

// Input 一次模拟的输入
// 功能：可选的信控配置与按顺序执行的指令序列
type Input struct {
	Config   *config.Junction `json:"config,omitempty"`
	Commands []Command        `json:"commands"`
}

// Parse 解析输入JSON
// 返回：输入数据；JSON非法、指令非法或缺少commands时返回错误
func Parse(data []byte) (*Input, error) {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if in.Commands == nil {
		return nil, ErrMissingCommands
	}
	return &in, nil
}

// ReadFile 读取并解析输入文件
func ReadFile(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	return Parse(data)
}

// Load 根据配置加载输入
// 功能：文件优先，否则从MongoDB按_id顺序读取指令
// 参数：ctx-上下文，c-输入配置
// 返回：输入数据，MongoDB来源时Config为nil
func Load(ctx context.Context, c config.Input) (*Input, error) {
	if c.Commands.File != "" {
		log.Infof("read commands from %s", c.Commands.File)
		return ReadFile(c.Commands.File)
	}
	if c.URI == "" || c.Commands.DB == "" || c.Commands.Col == "" {
		return nil, ErrNoSource
	}
	commands, err := loadFromMongo(ctx, c.URI, c.Commands)
	if err != nil {
		return nil, err
	}
	return &Input{Commands: commands}, nil
}

// loadFromMongo 从MongoDB读取指令
// 算法说明：集合中每个文档为一条指令，按_id升序即为执行顺序
func loadFromMongo(ctx context.Context, uri string, path config.InputPath) ([]Command, error) {
	client := mongoutil.NewClient(uri)
	defer client.Disconnect(context.Background())

	log.Infof("start fetching from %s.%s", path.DB, path.Col)
	coll := client.Database(path.DB).Collection(path.Col)
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("input: find %s.%s: %w", path.DB, path.Col, err)
	}
	commands := make([]Command, 0)
	if err := cur.All(ctx, &commands); err != nil {
		return nil, fmt.Errorf("input: decode %s.%s: %w", path.DB, path.Col, err)
	}
	log.Infof("finish fetching %d commands from %s.%s", len(commands), path.DB, path.Col)
	return commands, nil
}
