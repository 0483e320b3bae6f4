package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/output"
)

// 用例目录中的文件
const (
	CaseConfigFile   = "config.json"
	CaseInputFile    = "input.json"
	CaseExpectedFile = "expected.json"
)

var ErrMismatch = errors.New("recording does not match expected")

// CaseResult 一个用例的回放结果
type CaseResult struct {
	Name string
	Err  error // 运行失败或与期望不一致
}

// ListCases 列出dir下包含input.json的子目录，按名称排序
func ListCases(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}
	cases := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), CaseInputFile)); err == nil {
			cases = append(cases, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(cases)
	return cases, nil
}

// RecordCase 运行一个用例并返回回放记录
// 功能：读取config.json（可缺失）与input.json，记录每条指令后的快照
// 说明：config.json存在时总是使用它，忽略输入中的config；缺失时按ResolveJunction确定
func RecordCase(dir string) (*output.Recording, error) {
	in, err := input.ReadFile(filepath.Join(dir, CaseInputFile))
	if err != nil {
		return nil, err
	}
	var file *config.Junction
	if b, err := os.ReadFile(filepath.Join(dir, CaseConfigFile)); err == nil {
		var c config.Junction
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("golden: %s: %w", CaseConfigFile, err)
		}
		file = &c
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("golden: %w", err)
	}
	jc := ResolveJunction(in, nil)
	if file != nil {
		jc = *file
	}
	ctx, err := NewContext(filepath.Base(dir), jc, true)
	if err != nil {
		return nil, err
	}
	ctx.Run(in.Commands)
	return ctx.Recording(), nil
}

// checkCase 运行一个用例并与expected.json比较
// 算法说明：双方编码为JSON后逐字节比较，不一致时报告第一条不同的指令
func checkCase(dir string) error {
	got, err := RecordCase(dir)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(filepath.Join(dir, CaseExpectedFile))
	if err != nil {
		return fmt.Errorf("golden: %w", err)
	}
	var want output.Recording
	if err := json.Unmarshal(b, &want); err != nil {
		return fmt.Errorf("golden: %s: %w", CaseExpectedFile, err)
	}
	for i := range max(len(got.Commands), len(want.Commands)) {
		if i >= len(got.Commands) || i >= len(want.Commands) {
			return fmt.Errorf("%w: %d commands recorded, %d expected", ErrMismatch, len(got.Commands), len(want.Commands))
		}
		g, _ := json.Marshal(got.Commands[i])
		w, _ := json.Marshal(want.Commands[i])
		if !bytes.Equal(g, w) {
			return fmt.Errorf("%w: command %d (%s)\n got: %s\nwant: %s", ErrMismatch, i, want.Commands[i].Type, g, w)
		}
	}
	return nil
}

// RunCases 并行回放dir下的全部用例
// 返回：每个用例的结果，按用例名排序
func RunCases(dir string) ([]CaseResult, error) {
	cases, err := ListCases(dir)
	if err != nil {
		return nil, err
	}
	results := parallel.GoMap(cases, func(c string) CaseResult {
		return CaseResult{Name: filepath.Base(c), Err: checkCase(c)}
	})
	failed := lo.CountBy(results, func(r CaseResult) bool { return r.Err != nil })
	log.Infof("golden: %d cases, %d failed", len(results), failed)
	return results, nil
}

// UpdateCases 重新生成dir下全部用例的expected.json
func UpdateCases(dir string) error {
	cases, err := ListCases(dir)
	if err != nil {
		return err
	}
	errs := parallel.GoMap(cases, func(c string) error {
		rec, err := RecordCase(c)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(c), err)
		}
		return output.WriteJSON(filepath.Join(c, CaseExpectedFile), rec)
	})
	return errors.Join(errs...)
}
