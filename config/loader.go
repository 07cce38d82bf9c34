package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/yusufsyaifudin/migtest/pkg/validator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Setup reads yaml configFile into s (must be pointer to struct) and validates it.
// The returned logger writes json to stdout, it is usable even when error is returned.
func Setup(configFile string, s interface{}) (*zap.Logger, error) {
	return setup(configFile, s, os.Stdout)
}

func setup(configFile string, s interface{}, out io.Writer) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(out)), // pipe to multiple writer
		level,
	)

	log := zap.New(core)

	fileContent, err := os.ReadFile(configFile)
	if err != nil {
		return log, fmt.Errorf("error read file config %s: %w", configFile, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(fileContent))
	dec.KnownFields(false)
	err = dec.Decode(s) // not pointer because when calling setup must be pointer
	if err != nil {
		return log, fmt.Errorf("error decode file config %s: %w", configFile, err)
	}

	err = validator.Validate(s)
	if err != nil {
		return log, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	if c, ok := s.(*Config); ok && c.Log.Level != "" {
		if err = level.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return log, fmt.Errorf("invalid log level %s: %w", c.Log.Level, err)
		}
	}

	return log, nil
}
