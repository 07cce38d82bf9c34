package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/migtest/config"
	"github.com/yusufsyaifudin/migtest/container"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/runner"
	"go.uber.org/zap"
)

const (
	ExitSuccess = 0
	ExitErr     = 1
)

// Env is loaded config and opened dependencies shared by every sub command.
type Env struct {
	Ctx    context.Context
	Config *config.Config
	Runner runner.Config

	container *container.DefaultContainerImpl
	zapLog    *zap.Logger
	stop      context.CancelFunc
}

// Setup loads configFile, sets the global logger and opens the configured database.
// Ctx is cancelled on SIGINT or SIGTERM.
func Setup(configFile string) (*Env, error) {
	// ** define system context
	ctx := logger.Inject(context.Background(), logger.Tracer{
		RemoteAddr: "system",
		AppTraceID: uuid.NewV4().String(),
	})

	// ** load config file
	configVal := &config.Config{}
	zapLog, err := config.Setup(configFile, configVal)
	if err != nil {
		return nil, fmt.Errorf("error load config: %w", err)
	}

	// ** set global logger
	logger.SetGlobalLogger(logger.NewZap(zapLog))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	logger.Info(ctx, "~ setup container")
	defaultContainer, err := container.Setup(ctx, configVal)
	if err != nil {
		stop()
		return nil, fmt.Errorf("error setup container: %w", err)
	}

	runnerConf, err := defaultContainer.RunnerConfig()
	if err != nil {
		stop()
		if _err := defaultContainer.Close(); _err != nil {
			logger.Error(ctx, "~ error close container", logger.KV("error", _err))
		}

		return nil, fmt.Errorf("error prepare migration runner: %w", err)
	}

	return &Env{
		Ctx:       ctx,
		Config:    configVal,
		Runner:    runnerConf,
		container: defaultContainer,
		zapLog:    zapLog,
		stop:      stop,
	}, nil
}

func (e *Env) Close() {
	defer e.stop()

	logger.Info(e.Ctx, "~ closing container")
	if err := e.container.Close(); err != nil {
		logger.Error(e.Ctx, "~ error close container", logger.KV("error", err))
	}

	_ = e.zapLog.Sync()
}
