package dispatcher

import (
	"gopkg.in/yaml.v3"
)

// ReportView Report 的可序列化视图，供回放工具输出
type ReportView struct {
	Signature string       `yaml:"signature"`
	Slot      uint64       `yaml:"slot"`
	Outcome   string       `yaml:"outcome"`
	Visited   int          `yaml:"visited"`
	Counts    CountsView   `yaml:"counts"`
	Results   []ResultView `yaml:"results,omitempty"`
	Errors    []string     `yaml:"errors,omitempty"`
}

type CountsView struct {
	Success  int `yaml:"success"`
	Filtered int `yaml:"filtered"`
	NotMine  int `yaml:"not_mine"`
	Errors   int `yaml:"errors"`
}

type ResultView struct {
	Path    []int      `yaml:"path,flow"`
	Decoder string     `yaml:"decoder"`
	Program string     `yaml:"program"`
	Variant string     `yaml:"variant"`
	Swaps   []SwapView `yaml:"swaps,omitempty"`
}

type SwapView struct {
	Origin      int    `yaml:"origin"`
	Source      uint64 `yaml:"source"`
	Destination uint64 `yaml:"destination"`
}

func (r *Report) View() ReportView {
	v := ReportView{
		Signature: r.Signature.String(),
		Slot:      r.Slot,
		Outcome:   r.Outcome().String(),
		Visited:   r.Visited,
		Counts: CountsView{
			Success:  r.Counts.Success,
			Filtered: r.Counts.Filtered,
			NotMine:  r.Counts.NotMine,
			Errors:   r.ErrorCount(),
		},
	}
	for i := range r.Results {
		res := &r.Results[i]
		rv := ResultView{
			Path:    res.Path,
			Decoder: res.Decoder,
			Program: res.Program.String(),
			Variant: res.Parsed.Variant(),
		}
		for _, leg := range res.Swaps() {
			rv.Swaps = append(rv.Swaps, SwapView{Origin: leg.Origin, Source: leg.SourceAmount, Destination: leg.DestinationAmount})
		}
		v.Results = append(v.Results, rv)
	}
	if r.Errors != nil {
		for _, err := range r.Errors.Errors {
			v.Errors = append(v.Errors, err.Error())
		}
	}
	return v
}

// YAML 渲染为 YAML 文本
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r.View())
}
