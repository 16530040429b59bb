// Package command builds the demandhook command-line application.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"demandhook/internal/config"
	"demandhook/internal/demand"
	"demandhook/internal/exitcode"
	"demandhook/internal/output"
)

// Deps injects the runners and streams used by the CLI. Nil streams fall
// back to the process's stdio; a nil LoadConfig uses config.Load.
type Deps struct {
	Version    string
	LoadConfig func(path string) (config.Config, error)
	Serve      func(context.Context, config.Config) error
	Submit     func(context.Context, config.Config, demand.Demand) (demand.Outcome, error)
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// BuildApp returns the CLI. Running with no subcommand serves.
func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:      config.AppName,
		Usage:     "webhook that turns work demands into ClickUp task hierarchies",
		Version:   deps.Version,
		Writer:    deps.stdout(),
		ErrWriter: deps.stderr(),
		// Errors are returned to main, which owns the process exit.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				EnvVars: []string{"DEMANDHOOK_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			return runServe(ctx, deps)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP server",
				Action: func(ctx *cli.Context) error {
					return runServe(ctx, deps)
				},
			},
			{
				Name:      "submit",
				Usage:     "process one demand from a JSON file and print the outcome",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "demand JSON file, or - for stdin",
						Required: true,
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "print only the created task id",
					},
				},
				Action: func(ctx *cli.Context) error {
					return runSubmit(ctx, deps)
				},
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(ctx *cli.Context) error {
					fmt.Fprintf(deps.stdout(), "%s %s\n", config.AppName, deps.Version)
					return nil
				},
			},
		},
	}
}

func (d Deps) stdout() io.Writer {
	if d.Stdout != nil {
		return d.Stdout
	}
	return os.Stdout
}

func (d Deps) stderr() io.Writer {
	if d.Stderr != nil {
		return d.Stderr
	}
	return os.Stderr
}

func (d Deps) stdin() io.Reader {
	if d.Stdin != nil {
		return d.Stdin
	}
	return os.Stdin
}

func loadConfig(ctx *cli.Context, deps Deps) (config.Config, error) {
	load := deps.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load(ctx.String("config"))
	if err != nil {
		return config.Config{}, cli.Exit(fmt.Sprintf("config: %v", err), exitcode.ConfigError)
	}
	return cfg, nil
}

func runServe(ctx *cli.Context, deps Deps) error {
	cfg, err := loadConfig(ctx, deps)
	if err != nil {
		return err
	}
	if deps.Serve == nil {
		return errors.New("serve runner is not configured")
	}
	return deps.Serve(ctx.Context, cfg)
}

func runSubmit(ctx *cli.Context, deps Deps) error {
	cfg, err := loadConfig(ctx, deps)
	if err != nil {
		return err
	}
	if deps.Submit == nil {
		return errors.New("submit runner is not configured")
	}
	d, err := readDemand(ctx.String("file"), deps.stdin())
	if err != nil {
		fmt.Fprintf(deps.stderr(), "erro: %v\n", err)
		return cli.Exit("", exitcode.ValidationError)
	}

	out, err := deps.Submit(ctx.Context, cfg, d)
	if err != nil {
		output.FormatError(deps.stderr(), err)
		return cli.Exit("", exitcode.For(err))
	}
	if ctx.Bool("quiet") {
		output.FormatQuiet(deps.stdout(), out)
	} else {
		output.FormatOutcome(deps.stdout(), out)
	}
	return nil
}

// readDemand decodes a demand from path, or from stdin when path is "-".
func readDemand(path string, stdin io.Reader) (demand.Demand, error) {
	var r io.Reader
	if strings.TrimSpace(path) == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return demand.Demand{}, fmt.Errorf("%w: %v", errBadInput, err)
		}
		defer f.Close()
		r = f
	}
	var d demand.Demand
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return demand.Demand{}, fmt.Errorf("%w: %v", errBadInput, err)
	}
	return d, nil
}

var errBadInput = errors.New("dados JSON inválidos")
