package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelMap 以最多 workers 个 goroutine 并发执行 fn，结果顺序与输入一致。
// 输入不超过 1 个或 workers <= 1 时在当前 goroutine 顺序执行。
func ParallelMap[T, R any](inputs []T, workers int, fn func(T) R) []R {
	results := make([]R, len(inputs))
	if len(inputs) <= 1 || workers <= 1 {
		for i, in := range inputs {
			results[i] = fn(in)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			results[i] = fn(inputs[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ParallelMapCtx 带错误返回的版本：任一任务出错后 ctx 被取消，尚未开始的任务不再执行，返回第一个错误
func ParallelMapCtx[T, R any](ctx context.Context, inputs []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range inputs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, inputs[i])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
