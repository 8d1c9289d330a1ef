package eventparser

import (
	"fmt"
	"strings"

	"dex-cpi-indexer-sol/internal/consts"
	"dex-cpi-indexer-sol/internal/logic/eventparser/common"
	"dex-cpi-indexer-sol/internal/logic/eventparser/jupiter"
	"dex-cpi-indexer-sol/internal/logic/eventparser/meteoradlmm"
	"dex-cpi-indexer-sol/internal/logic/eventparser/meteorapools"
	"dex-cpi-indexer-sol/internal/logic/eventparser/moonshot"
	"dex-cpi-indexer-sol/internal/logic/eventparser/okxv2"
	"dex-cpi-indexer-sol/internal/logic/eventparser/orcawhirlpool"
	"dex-cpi-indexer-sol/internal/logic/eventparser/pancakeclmm"
	"dex-cpi-indexer-sol/internal/logic/eventparser/pumpfun"
	"dex-cpi-indexer-sol/internal/logic/eventparser/pumpfunamm"
	"dex-cpi-indexer-sol/internal/logic/eventparser/raydiumclmm"
	"dex-cpi-indexer-sol/internal/logic/eventparser/raydiumcpmm"
	"dex-cpi-indexer-sol/internal/logic/eventparser/raydiumv4"
	"dex-cpi-indexer-sol/internal/types"
)

// Registry ProgramID → 解码器的有序路由表，同一 ProgramID 只允许注册一个解码器。
// 构建完成后只读，可被多个 goroutine 共享。
type Registry struct {
	decoders  []common.Decoder
	byProgram map[types.Pubkey]common.Decoder
}

func NewRegistry() *Registry {
	return &Registry{byProgram: make(map[types.Pubkey]common.Decoder)}
}

// Register 按注册顺序追加；ProgramID 重复时返回错误，已有注册不受影响
func (r *Registry) Register(d common.Decoder) error {
	id := d.Identity()
	if prev, ok := r.byProgram[id]; ok {
		return fmt.Errorf("decoder for program %s already registered by %s", id, prev.Name())
	}
	r.byProgram[id] = d
	r.decoders = append(r.decoders, d)
	return nil
}

// Lookup 返回 program 对应的解码器
func (r *Registry) Lookup(program types.Pubkey) (common.Decoder, bool) {
	d, ok := r.byProgram[program]
	return d, ok
}

// Decoders 按注册顺序返回
func (r *Registry) Decoders() []common.Decoder {
	return append([]common.Decoder(nil), r.decoders...)
}

// Programs 已注册的 ProgramID，用于 Geyser 订阅的 account_include
func (r *Registry) Programs() []string {
	out := make([]string, 0, len(r.decoders))
	for _, d := range r.decoders {
		out = append(out, d.Identity().String())
	}
	return out
}

func (r *Registry) Len() int { return len(r.decoders) }

// Options 控制 Default 装配哪些解码器。名称与 consts.DexNames 一致，不区分大小写。
type Options struct {
	// Programs 为空时启用全部解码器
	Programs []string
	// FilterAggregatorCPI 中的解码器在被 OKX / Jupiter 直接调用时返回 Filtered
	FilterAggregatorCPI []string
}

// DefaultFilterAggregatorCPI 默认只过滤 Pancake：其 CPI 兑换由外层聚合器指令计入
var DefaultFilterAggregatorCPI = []string{consts.DexName(consts.DexPancakeCLMM)}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return set
}

// allDecoders 按 consts.Dex* 编号顺序构造
func allDecoders(filtered map[string]struct{}) []common.Decoder {
	_, filterPancake := filtered[strings.ToLower(consts.DexName(consts.DexPancakeCLMM))]
	return []common.Decoder{
		okxv2.NewDecoder(),
		jupiter.NewDecoder(),
		pumpfunamm.NewDecoder(),
		pumpfun.NewDecoder(),
		meteoradlmm.NewDecoder(),
		meteorapools.NewDecoder(),
		raydiumv4.NewDecoder(),
		raydiumclmm.NewDecoder(),
		raydiumcpmm.NewDecoder(),
		moonshot.NewDecoder(),
		orcawhirlpool.NewDecoder(),
		pancakeclmm.NewDecoder(filterPancake),
	}
}

// Default 装配内置解码器
func Default(opts Options) (*Registry, error) {
	filtered := nameSet(opts.FilterAggregatorCPI)
	enabled := nameSet(opts.Programs)

	known := make(map[string]struct{}, len(consts.DexNames))
	for _, n := range consts.DexNames[1:] {
		known[strings.ToLower(n)] = struct{}{}
	}
	for n := range enabled {
		if _, ok := known[n]; !ok {
			return nil, fmt.Errorf("unknown program name %q", n)
		}
	}
	for n := range filtered {
		if _, ok := known[n]; !ok {
			return nil, fmt.Errorf("unknown program name %q in filter_aggregator_cpi", n)
		}
	}

	r := NewRegistry()
	for _, d := range allDecoders(filtered) {
		name := strings.ToLower(d.Name())
		if len(enabled) > 0 {
			if _, ok := enabled[name]; !ok {
				continue
			}
		}
		// Pancake 的过滤在构造时已处理
		if _, ok := filtered[name]; ok && d.Identity() != consts.PancakeCLMMProgram {
			d = common.WithAggregatorFilter(d, consts.AggregatorPrograms)
		}
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustDefault 用于启动阶段，配置错误直接 panic
func MustDefault(opts Options) *Registry {
	r, err := Default(opts)
	if err != nil {
		panic(err)
	}
	return r
}
