/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package logger provides the process-wide structured logger. It mirrors the
// teacher's per-level zap composite logger, simplified to the streams this
// service actually needs: debug, info, warn, error and stat (a separate
// stream for structured lines written through Stat; no package in this
// module calls Stat, so the stream stays empty).
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type (
	alwaysLevel     struct{}
	loggerComposite struct {
		debug  *zap.Logger
		debugS *zap.SugaredLogger
		info   *zap.Logger
		infoS  *zap.SugaredLogger
		warn   *zap.Logger
		warnS  *zap.SugaredLogger
		error  *zap.Logger
		errorS *zap.SugaredLogger
		stat   *zap.Logger
	}
)

var (
	zapLogger    *loggerComposite
	DebugEnabled = false
)

func init() {
	setupConsole()
}

func (a alwaysLevel) Enabled(level zapcore.Level) bool {
	return true
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
	}
}

func setupConsole() {
	cfg := encoderConfig()
	newLogger := func() *zap.Logger {
		return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stdout), alwaysLevel{}))
	}
	install(&loggerComposite{
		debug: newLogger(),
		info:  newLogger(),
		warn:  newLogger(),
		error: newLogger(),
		stat:  newLogger(),
	})
}

// Setup switches the process loggers from console-only to rotating files under
// logDir, one file per stream. It uses lumberjack for rotation instead of the
// hand-rolled RotateWriter the teacher used to carry before lumberjack.v2
// became a real dependency of this module.
func Setup(logDir string, dev bool) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	cfg := encoderConfig()

	newLogger := func(name string) *zap.Logger {
		w := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, name),
			MaxSize:    1024, // megabytes
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		}
		fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), alwaysLevel{})
		if dev {
			devCfg := cfg
			return zap.New(zapcore.NewTee(
				zapcore.NewCore(zapcore.NewConsoleEncoder(devCfg), zapcore.AddSync(os.Stdout), alwaysLevel{}),
				fileCore,
			))
		}
		return zap.New(fileCore)
	}

	install(&loggerComposite{
		debug: newLogger("debug.log"),
		info:  newLogger("info.log"),
		warn:  newLogger("warn.log"),
		error: newLogger("error.log"),
		stat:  newLogger("stat.log"),
	})
	return nil
}

func install(c *loggerComposite) {
	c.debugS = c.debug.Sugar()
	c.infoS = c.info.Sugar()
	c.warnS = c.warn.Sugar()
	c.errorS = c.error.Sugar()
	zapLogger = c
}

func Debugz(msg string, fields ...zap.Field) {
	if DebugEnabled {
		zapLogger.debug.Info(msg, fields...)
	}
}
func Infoz(msg string, fields ...zap.Field) { zapLogger.info.Info(msg, fields...) }
func Warnz(msg string, fields ...zap.Field) { zapLogger.warn.Info(msg, fields...) }
func Errorz(msg string, fields ...zap.Field) {
	zapLogger.error.Info(msg, fields...)
}

func Debugw(msg string, keyAndValues ...interface{}) {
	if DebugEnabled {
		zapLogger.debugS.Infow(msg, keyAndValues...)
	}
}
func Infow(msg string, keyAndValues ...interface{})  { zapLogger.infoS.Infow(msg, keyAndValues...) }
func Warnw(msg string, keyAndValues ...interface{})  { zapLogger.warnS.Infow(msg, keyAndValues...) }
func Errorw(msg string, keyAndValues ...interface{}) { zapLogger.errorS.Infow(msg, keyAndValues...) }

func Debugf(msg string, args ...interface{}) {
	if DebugEnabled {
		zapLogger.debugS.Infof(msg, args...)
	}
}
func Infof(msg string, args ...interface{})  { zapLogger.infoS.Infof(msg, args...) }
func Warnf(msg string, args ...interface{})  { zapLogger.warnS.Infof(msg, args...) }
func Errorf(msg string, args ...interface{}) { zapLogger.errorS.Infof(msg, args...) }

// Stat writes one structured line to the stat stream, kept separate from
// info/warn/error. The ingest path does not call it.
func Stat(msg string, fields ...zap.Field) {
	zapLogger.stat.Info(msg, fields...)
}

func IsDebugEnabled() bool {
	return DebugEnabled
}

// TestMode silences nothing by itself; it exists so packages that were written
// against the teacher's logger package (which exposed TestMode as an init hook
// for tests) keep compiling unchanged.
func TestMode() {
}
