package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ServiceName     = "vat-pricing"
	ProdEnvironment = "prod"
)

// Log é o logger global; começa como no-op até Init ser chamado.
var Log = zap.NewNop()

type Config struct {
	Level string
	Stage string
}

// New constrói um logger JSON em produção e de consola nos restantes estágios.
func New(cfg Config) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	var zapConfig zap.Config
	if cfg.Stage == ProdEnvironment {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.MessageKey = "message"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.InitialFields = map[string]interface{}{
			"service": ServiceName,
			"stage":   cfg.Stage,
		}
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.DisableStacktrace = cfg.Stage == ProdEnvironment && level > zapcore.DebugLevel

	return zapConfig.Build()
}

// Init substitui o logger global.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}
