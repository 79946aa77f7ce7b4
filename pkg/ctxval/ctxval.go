// Package ctxval keeps request scoped values that later middleware and
// handlers can still change after the context has been handed down.
package ctxval

import (
	"context"
	"sync"
)

type bagKey struct{}

type bag struct {
	mu     sync.RWMutex
	values map[any]any
}

// Wrap attaches a mutable store to ctx. Wrapping twice is a no-op, so the
// store set up by the first middleware is shared by everything below it.
func Wrap(ctx context.Context) context.Context {
	if _, ok := from(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, bagKey{}, &bag{values: map[any]any{}})
}

// Set stores v under k. It does nothing on a context that was never wrapped.
func Set[K comparable, V any](ctx context.Context, k K, v V) {
	b, ok := from(ctx)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[k] = v
}

func Get[K comparable, V any](ctx context.Context, k K) (V, bool) {
	var zero V
	b, ok := from(ctx)
	if !ok {
		return zero, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[k].(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Append adds items to the slice stored under k in one step, so concurrent
// appends are never lost. Readers get a copy.
func Append[K comparable, E any](ctx context.Context, k K, items ...E) {
	b, ok := from(ctx)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, _ := b.values[k].([]E)
	next := make([]E, 0, len(cur)+len(items))
	next = append(next, cur...)
	b.values[k] = append(next, items...)
}

func from(ctx context.Context) (*bag, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(bagKey{}).(*bag)
	return b, ok
}
