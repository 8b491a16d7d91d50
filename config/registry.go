package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/hybridrec/pipeline"
)

// 使用配置驱动的排序流水线时，需在入口处 import _ "github.com/rushteam/hybridrec/config/builders"
// 以触发内置 Node（filter.in_cart、rerank.sort、rerank.topn 等）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，例如：func init() { config.Register("rerank.topn", BuildTopNNode) }
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序）。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含所有已注册 Node 类型的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验所有 node 类型均已注册，未注册时错误中带上已支持的类型。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	supported := SupportedTypes()
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			continue
		}
		if _, ok := defaultBuilders[nc.Type]; !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, supported)
		}
	}
	return nil
}

// LoadPipeline 读取排序流水线配置文件（.yaml/.yml/.json）并用注册表构建。
func LoadPipeline(path string) (*pipeline.Pipeline, error) {
	var (
		pc  *pipeline.Config
		err error
	)
	if isJSON(path) {
		pc, err = pipeline.LoadFromJSON(path)
	} else {
		pc, err = pipeline.LoadFromYAML(path)
	}
	if err != nil {
		return nil, configError("load pipeline", err)
	}
	if err := ValidatePipelineConfig(pc); err != nil {
		return nil, configError("validate pipeline", err)
	}
	p, err := pc.BuildPipeline(DefaultFactory())
	if err != nil {
		return nil, configError("build pipeline", err)
	}
	return p, nil
}

func isJSON(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}
