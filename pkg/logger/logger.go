package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Logger is a named sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	rootOnce sync.Once
	root     *zap.Logger
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func base() *zap.Logger {
	rootOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(os.Stdout),
			level,
		)
		root = zap.New(core, zap.AddCaller())
	})
	return root
}

// SetLevel changes the level of every logger handed out by this package.
func SetLevel(lvl string) error {
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", lvl, err)
	}
	level.SetLevel(parsed)
	return nil
}

func MustNamed(name string) *Logger {
	return &Logger{SugaredLogger: base().Named(name).Sugar()}
}

// Nop returns a logger that discards everything, handy in tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Unwrap() *zap.SugaredLogger {
	return l.SugaredLogger
}

// Reflect renders v with reflection based encoding, use for config dumps.
func Reflect(key string, v any) zap.Field {
	return zap.Reflect(key, v)
}
