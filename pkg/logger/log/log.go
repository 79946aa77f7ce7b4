// Package log logs with the fields attached to a request context.
package log

import (
	"context"

	"github.com/nguyentranbao-ct/team-chat/pkg/ctxval"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"go.uber.org/zap"
)

type fieldsKey struct{}

var std = logger.MustNamed("ctx").Unwrap().Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar()

// WithFields appends key/value pairs that every log call on ctx will carry.
func WithFields(ctx context.Context, kv ...any) context.Context {
	ctx = ctxval.Wrap(ctx)
	ctxval.Append(ctx, fieldsKey{}, kv...)
	return ctx
}

func Fields(ctx context.Context) []any {
	fields, _ := ctxval.Get[fieldsKey, []any](ctx, fieldsKey{})
	return fields
}

func with(ctx context.Context, kv []any) []any {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return kv
	}
	out := make([]any, 0, len(fields)+len(kv))
	out = append(out, kv...)
	return append(out, fields...)
}

func Debugw(ctx context.Context, msg string, kv ...any) { std.Debugw(msg, with(ctx, kv)...) }
func Infow(ctx context.Context, msg string, kv ...any)  { std.Infow(msg, with(ctx, kv)...) }
func Warnw(ctx context.Context, msg string, kv ...any)  { std.Warnw(msg, with(ctx, kv)...) }
func Errorw(ctx context.Context, msg string, kv ...any) { std.Errorw(msg, with(ctx, kv)...) }

// Logw logs at a level decided at runtime.
func Logw(ctx context.Context, lvl logger.Level, msg string, kv ...any) {
	std.Logw(lvl, msg, with(ctx, kv)...)
}
