package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/urfave/cli/v3"

	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/consts"
	"github.com/tracksync/tracksync/internal/notify"
	"github.com/tracksync/tracksync/internal/pkg/logs"
	"github.com/tracksync/tracksync/internal/server"
)

var serveHwd = &ServeRunner{}

type ServeRunner struct{}

func (r *ServeRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the sync service with its schedule API and trigger loop",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file",
			},
		},
		Action: r.run,
	}
}

func (r *ServeRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfgPath := cmd.String("config")
	if cfgPath == "" {
		cfgPath = consts.DefaultConfigPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config error: %w", err)
	}

	if err = r.initLogger(cfg.Logging); err != nil {
		return fmt.Errorf("init logger error: %w", err)
	}
	hlog.SetLogger(logs.NewHlogLogger(logs.DefaultLogger()))

	logs.CtxInfo(ctx, "booting tracksync service, using config file: %s...", cfgPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svr := server.New(cfg.Server, notify.Console{}, nil)
	if err = svr.Start(ctx); err != nil {
		cancel()
		_ = svr.Stop(context.Background())
		return fmt.Errorf("start server: %w", err)
	}

	logs.CtxInfo(ctx, "serving on %s. Press Ctrl+C to stop.", cfg.Server.Bind)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case sig := <-signalCh:
		logs.CtxInfo(ctx, "Received shutdown signal (%s). Stopping service...", sig.String())
	case <-ctx.Done():
		logs.CtxInfo(ctx, "Context canceled. Stopping service...")
	}

	if err = svr.Stop(context.Background()); err != nil {
		logs.CtxError(ctx, "stop server error: %v", err)
	}

	logs.CtxInfo(ctx, "all stopped, good bye!")
	return nil
}

func (r *ServeRunner) initLogger(cfg config.LoggingConfig) error {
	return logs.Init(logs.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
}
