// Package main is the entry point for the demandhook service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"demandhook/internal/backend/clickup"
	"demandhook/internal/command"
	"demandhook/internal/config"
	"demandhook/internal/demand"
	"demandhook/internal/httpapi"
	"demandhook/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		Version:    version,
		LoadConfig: config.Load,
		Serve:      serve,
		Submit:     submit,
	})
	if err := app.RunContext(ctx, os.Args); err != nil {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			if msg := ec.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			stop()
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// stack is the wired service graph shared by serve and submit.
type stack struct {
	log   *slog.Logger
	store *config.Store
	dir   *demand.Directory
	orch  *demand.Orchestrator
	close func() error
}

func build(cfg config.Config, component string) (*stack, error) {
	log, closeLog, err := logging.NewLogger(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		Component: component,
	})
	if err != nil {
		return nil, err
	}

	tpl := demand.DefaultTemplates()
	if cfg.TemplatesFile != "" {
		tpl, err = demand.LoadTemplatesFile(cfg.TemplatesFile)
		if err != nil {
			_ = closeLog()
			return nil, err
		}
	}

	store := config.NewStore(cfg.Remote)
	dir := demand.NewDirectory(cfg.Responsible)
	client := clickup.New(store,
		clickup.WithTimeout(cfg.Timeout),
		clickup.WithLogger(log.With("component", "clickup")),
	)
	orch := demand.New(client, demand.Config{
		Directory: dir,
		Templates: &tpl,
		Logger:    log,
	})
	if !cfg.Remote.Configured() {
		log.Warn("token da API não configurado; defina CLICKUP_API_TOKEN ou use POST /config")
	}
	return &stack{log: log, store: store, dir: dir, orch: orch, close: closeLog}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	s, err := build(cfg, "server")
	if err != nil {
		return err
	}
	defer s.close()

	srv := httpapi.NewServer(httpapi.Deps{
		Processor: s.orch,
		Settings:  s.store,
		Directory: s.dir,
		Version:   version,
		Logger:    s.log,
	})
	return srv.Serve(ctx, cfg.Addr())
}

func submit(ctx context.Context, cfg config.Config, d demand.Demand) (demand.Outcome, error) {
	s, err := build(cfg, "submit")
	if err != nil {
		return demand.Outcome{}, err
	}
	defer s.close()
	return s.orch.Process(context.WithoutCancel(ctx), d)
}
