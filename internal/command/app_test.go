package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"demandhook/internal/config"
	"demandhook/internal/demand"
	"demandhook/internal/exitcode"
	"demandhook/internal/service"
)

func staticConfig(string) (config.Config, error) { return config.Default(), nil }

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ec cli.ExitCoder
	if !errors.As(err, &ec) {
		t.Fatalf("expected exit coder, got %v", err)
	}
	return ec.ExitCode()
}

func TestBuildApp_DefaultCommandIsServe(t *testing.T) {
	served := 0
	app := BuildApp(Deps{
		LoadConfig: staticConfig,
		Serve: func(context.Context, config.Config) error {
			served++
			return nil
		},
	})
	if err := app.RunContext(context.Background(), []string{"demandhook"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := app.RunContext(context.Background(), []string{"demandhook", "serve"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if served != 2 {
		t.Fatalf("expected serve called twice, got %d", served)
	}
}

func TestBuildApp_ConfigFlagIsPassed(t *testing.T) {
	var gotPath string
	app := BuildApp(Deps{
		LoadConfig: func(path string) (config.Config, error) {
			gotPath = path
			return config.Default(), nil
		},
		Serve: func(context.Context, config.Config) error { return nil },
	})
	if err := app.RunContext(context.Background(), []string{"demandhook", "--config", "x.toml", "serve"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if gotPath != "x.toml" {
		t.Fatalf("expected config path x.toml, got %q", gotPath)
	}
}

func TestBuildApp_ConfigErrorExitCode(t *testing.T) {
	app := BuildApp(Deps{
		LoadConfig: func(string) (config.Config, error) { return config.Config{}, errors.New("bad toml") },
		Serve:      func(context.Context, config.Config) error { return nil },
	})
	err := app.RunContext(context.Background(), []string{"demandhook"})
	if got := exitCode(t, err); got != exitcode.ConfigError {
		t.Fatalf("expected exit %d, got %d", exitcode.ConfigError, got)
	}
}

func TestBuildApp_Version(t *testing.T) {
	var stdout bytes.Buffer
	app := BuildApp(Deps{Version: "1.2.3", Stdout: &stdout})
	if err := app.RunContext(context.Background(), []string{"demandhook", "version"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stdout.String() != "demandhook 1.2.3\n" {
		t.Fatalf("unexpected version output %q", stdout.String())
	}
}

func TestBuildApp_SubmitFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demand.json")
	body := `{"empresa": "Acme", "tarefa": "Landing", "tipo": "design", "equipe": "criação", "hora": 4}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write demand: %v", err)
	}

	var got demand.Demand
	var stdout bytes.Buffer
	app := BuildApp(Deps{
		LoadConfig: staticConfig,
		Stdout:     &stdout,
		Submit: func(_ context.Context, _ config.Config, d demand.Demand) (demand.Outcome, error) {
			got = d
			return demand.Outcome{TaskID: "task-9", ListID: "list-1", Company: d.Company, Title: d.Title, SubtaskIDs: []string{}}, nil
		},
	})
	if err := app.RunContext(context.Background(), []string{"demandhook", "submit", "--file", path}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got.Company != "Acme" || got.Hours != "4" {
		t.Fatalf("unexpected demand %+v", got)
	}
	if !strings.Contains(stdout.String(), "task-9") || !strings.Contains(stdout.String(), demand.SuccessMessage) {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestBuildApp_SubmitQuietFromStdin(t *testing.T) {
	var stdout bytes.Buffer
	app := BuildApp(Deps{
		LoadConfig: staticConfig,
		Stdin:      strings.NewReader(`{"empresa": "Acme"}`),
		Stdout:     &stdout,
		Submit: func(context.Context, config.Config, demand.Demand) (demand.Outcome, error) {
			return demand.Outcome{TaskID: "task-9"}, nil
		},
	})
	if err := app.RunContext(context.Background(), []string{"demandhook", "submit", "-f", "-", "--quiet"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stdout.String() != "task-9\n" {
		t.Fatalf("unexpected quiet output %q", stdout.String())
	}
}

func TestBuildApp_SubmitExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &demand.ValidationError{Field: "hora"}, exitcode.ValidationError},
		{"stage", &demand.StageError{Stage: demand.StageList, Message: "Erro ao obter/criar lista da empresa", Err: &service.RemoteError{Op: "list lists", Status: 401}}, exitcode.BackendError},
		{"internal", errors.New("boom"), exitcode.InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			app := BuildApp(Deps{
				LoadConfig: staticConfig,
				Stdin:      strings.NewReader(`{}`),
				Stderr:     &stderr,
				Submit: func(context.Context, config.Config, demand.Demand) (demand.Outcome, error) {
					return demand.Outcome{}, tt.err
				},
			})
			err := app.RunContext(context.Background(), []string{"demandhook", "submit", "--file", "-"})
			if got := exitCode(t, err); got != tt.want {
				t.Fatalf("expected exit %d, got %d", tt.want, got)
			}
			if !strings.HasPrefix(stderr.String(), "erro: ") {
				t.Fatalf("expected error on stderr, got %q", stderr.String())
			}
		})
	}
}

func TestBuildApp_SubmitBadFile(t *testing.T) {
	var stderr bytes.Buffer
	app := BuildApp(Deps{
		LoadConfig: staticConfig,
		Stderr:     &stderr,
		Submit: func(context.Context, config.Config, demand.Demand) (demand.Outcome, error) {
			t.Fatal("submit should not run")
			return demand.Outcome{}, nil
		},
	})
	err := app.RunContext(context.Background(), []string{"demandhook", "submit", "--file", filepath.Join(t.TempDir(), "missing.json")})
	if got := exitCode(t, err); got != exitcode.ValidationError {
		t.Fatalf("expected exit %d, got %d", exitcode.ValidationError, got)
	}
}
