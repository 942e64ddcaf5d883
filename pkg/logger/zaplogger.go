package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
	defaultMaxAgeDays = 30
)

type ZapLogger struct {
	log *zap.SugaredLogger
}

// current is swapped by Setup while other goroutines may be logging.
var current atomic.Pointer[ZapLogger]

func NewLogger(config zap.Config) (*ZapLogger, error) {
	return install(config, nil)
}

// NewRotatingLogger tees the configured outputs with a lumberjack-rotated
// file. The file always gets JSON so it can be shipped off the device.
func NewRotatingLogger(config zap.Config, opts Options) (*ZapLogger, error) {
	return install(config, fileCore(config.Level, opts))
}

func fileCore(level zap.AtomicLevel, opts Options) zapcore.Core {
	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(opts.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(opts.MaxAgeDays, defaultMaxAgeDays),
		Compress:   true,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(sink), level)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func install(config zap.Config, extra zapcore.Core) (*ZapLogger, error) {
	base, err := config.Build()
	if err != nil {
		return nil, err
	}
	// two frames: the package-level helper and the ZapLogger method
	opts := []zap.Option{zap.AddCallerSkip(2)}
	if extra != nil {
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core { return zapcore.NewTee(c, extra) }))
	}
	l := &ZapLogger{log: base.WithOptions(opts...).Sugar()}
	if old := current.Swap(l); old != nil {
		_ = old.log.Sync()
	}
	return l, nil
}

func GetLogger() *ZapLogger {
	l := current.Load()
	if l == nil {
		panic("logger not initialized")
	}
	return l
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(error error, values ...any) {
	l.log.Fatalw(error.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

// Printf serves fasthttp, which only reports connection and serve errors
// through it.
func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}
