package engine

import (
	"fmt"
	"sync"
)

// Registry 引擎注册表
// 引擎实例无状态，按名称缓存单例并在请求间共享
// 注册表作为依赖显式注入，不使用进程级全局变量
type Registry struct {
	mu      sync.Mutex
	engines map[string]Engine
}

// NewRegistry 创建引擎注册表
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Resolve 按名称解析引擎
// 空字符串视为简单引擎；未知名称是配置错误（严重错误，不静默降级）
func (r *Registry) Resolve(name string) (Engine, error) {
	if name == "" {
		name = EngineSimple
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.engines[name]; ok {
		return eng, nil
	}

	var eng Engine
	switch name {
	case EngineSimple:
		eng = &SimpleEngine{}
	case EngineFiveHundred:
		eng = &FiveHundredEngine{}
	default:
		return nil, fmt.Errorf("未知的计分引擎: %s", name)
	}

	r.engines[name] = eng
	return eng, nil
}

// ForConfig 按游戏类型的计分配置解析引擎
// 配置为 nil 表示该游戏类型没有计分配置，使用简单引擎
func (r *Registry) ForConfig(cfg *ScoringConfig) (Engine, error) {
	if cfg == nil {
		return r.Resolve(EngineSimple)
	}
	return r.Resolve(cfg.Engine)
}

// Known 返回全部已知引擎名称
func (r *Registry) Known() []string {
	return []string{EngineSimple, EngineFiveHundred}
}
