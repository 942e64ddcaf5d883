package logger

import (
	"os"

	"go.uber.org/zap"
)

type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(message string, values ...any)
	Fatal(error error, values ...any)
	Printf(format string, args ...interface{})
}

// Options controls how the process-wide logger is built.
type Options struct {
	// Env "production" selects JSON output, anything else the console encoder.
	Env string
	// Level is one of debug, info, warn, error. Empty keeps the config default.
	Level string
	// File, when set, mirrors every entry into a size-rotated log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func init() {
	_, err := Setup(Options{
		Env:   os.Getenv("LOG_ENV"),
		Level: os.Getenv("LOG_LEVEL"),
		File:  os.Getenv("LOG_FILE"),
	})
	if err != nil {
		panic(err)
	}
}

// Setup rebuilds the global logger. It is called once from init with the
// environment defaults and again by commands once the config file is loaded.
func Setup(opts Options) (*ZapLogger, error) {
	var config zap.Config
	if opts.Env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	if opts.Level != "" {
		lvl, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		config.Level = lvl
	}
	if opts.File == "" {
		return NewLogger(config)
	}
	return NewRotatingLogger(config, opts)
}

func Info(msg string, values ...any) {
	GetLogger().Info(msg, values...)
}

func Warn(msg string, values ...any) {
	GetLogger().Warn(msg, values...)
}

func Error(msg string, values ...any) {
	GetLogger().Error(msg, values...)
}

func Debug(msg string, values ...any) {
	GetLogger().Debug(msg, values...)
}

func Panic(msg string, values ...any) {
	GetLogger().Panic(msg, values...)
}

func Fatal(error error, values ...any) {
	GetLogger().Fatal(error, values...)
}

func Sync() {
	if l := current.Load(); l != nil {
		_ = l.log.Sync()
	}
}
