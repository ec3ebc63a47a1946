package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Loggers: именованные логгеры по подсистемам.
type Loggers struct {
	Main   *zap.Logger
	Auth   *zap.Logger
	Order  *zap.Logger
	Price  *zap.Logger
	Report *zap.Logger
	Audit  *zap.Logger
}

// NewLogger пишет одновременно в stdout и в <dir>/app.log.
func NewLogger(level, dir string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}

	outputs := []string{"stdout"}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог логов: %w", err)
		}
		outputs = append(outputs, filepath.Join(dir, "app.log"))
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	dualConfig := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderCfg,
	}

	return dualConfig.Build()
}

// NewLoggers раздаёт дочерние логгеры по подсистемам.
func NewLoggers(base *zap.Logger) *Loggers {
	return &Loggers{
		Main:   base,
		Auth:   base.Named("auth"),
		Order:  base.Named("order"),
		Price:  base.Named("price"),
		Report: base.Named("report"),
		Audit:  base.Named("audit"),
	}
}

// NewNopLoggers для тестов.
func NewNopLoggers() *Loggers {
	return NewLoggers(zap.NewNop())
}
