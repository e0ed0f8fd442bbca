// Package pool runs a function over a slice with a fixed number of workers.
// Every item settles on its own: one failure never cancels the rest.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome for the item at Index.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Map applies fn to every item using at most workers goroutines and returns
// one Result per item, in input order. Items not yet started when ctx is done
// settle with ctx.Err(). A panicking fn settles its item with an error.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	for i := range results {
		results[i].Index = i
	}
	if len(items) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}

	// A plain Group: errors land in results and never cancel siblings.
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			results[i].Value, results[i].Err = call(ctx, items[i], fn)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Each is Map for functions that only report an error. The returned slice
// holds one error (possibly nil) per item, in input order.
func Each[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) []error {
	res := Map(ctx, workers, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	errs := make([]error, len(res))
	for i, r := range res {
		errs[i] = r.Err
	}
	return errs
}

func call[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pool: panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return v, err
	}
	return fn(ctx, item)
}
