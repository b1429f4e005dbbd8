package logging

import (
	"context"
	"sync/atomic"
)

// MirrorFunc receives every log record after it was written to the primary
// sink. Used to ship logs to an OTLP backend without a second zap core.
type MirrorFunc func(ctx context.Context, level Level, msg string, args ...any)

var mirrorFunc atomic.Pointer[MirrorFunc]

// SetMirror installs the process-wide log mirror. Pass nil to remove it.
func SetMirror(fn MirrorFunc) {
	if fn == nil {
		mirrorFunc.Store(nil)
		return
	}
	mirrorFunc.Store(&fn)
}

func mirror(ctx context.Context, level Level, msg string, args []any) {
	fn := mirrorFunc.Load()
	if fn == nil {
		return
	}
	(*fn)(ctx, level, msg, args...)
}
