// Package logging builds the zap logger of the spanmarshal service.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level converts a configured level name. Unknown names are info.
func Level(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

/*
New builds a logger writing to every output of cfg. "stdout" and "stderr" name the
standard streams; anything else is a file path. Files are rotated by lumberjack when
rotation is enabled, in which case a configured rotation filename replaces the path.
The caller should defer logger.Sync().
*/
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(Level(cfg.Level))

	encoderConfig := encoderConfig(cfg.Development)
	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	cores := make([]zapcore.Core, 0, len(outputs))
	for _, output := range outputs {
		sink, err := openSink(output, cfg)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, sink, level))
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

func openSink(output string, cfg config.LogConfig) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}

	filename := output
	if cfg.Rotation.Enable && strings.TrimSpace(cfg.Rotation.Filename) != "" {
		filename = cfg.Rotation.Filename
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.Errorf("error creating log directory: %w", err)
		}
	}

	if cfg.Rotation.Enable {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   filename,
			MaxSize:    max(cfg.Rotation.MaxSizeMB, 1),
			MaxBackups: max(cfg.Rotation.MaxBackups, 0),
			MaxAge:     max(cfg.Rotation.MaxAgeDays, 0),
			Compress:   cfg.Rotation.Compress,
		}), nil
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, xerrors.Errorf("error opening log file: %w", err)
	}
	return zapcore.AddSync(file), nil
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return encoderConfig
	}
	return zap.NewProductionEncoderConfig()
}

// Install makes logger the zap global and the destination of the standard log
// package. The returned function restores both.
func Install(logger *zap.Logger) (restore func()) {
	restoreGlobals := zap.ReplaceGlobals(logger)
	restoreStdLog := zap.RedirectStdLog(logger)
	return func() {
		restoreStdLog()
		restoreGlobals()
	}
}
