package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DEMANDHOOK_CONFIG", "CLICKUP_API_TOKEN", "CLICKUP_BASE_URL", "CLICKUP_WORKSPACE_ID",
		"CLICKUP_SPACE_ID", "CLICKUP_FOLDER_ID", "CLICKUP_TIMEOUT_SEC", "DEMANDHOOK_HOST",
		"PORT", "DEMANDHOOK_LOG_LEVEL", "DEMANDHOOK_TEMPLATES_FILE",
	} {
		t.Setenv(k, "")
	}
	// DEMANDHOOK_LOG_FILE is distinguished by presence, not value.
	old, had := os.LookupEnv("DEMANDHOOK_LOG_FILE")
	os.Unsetenv("DEMANDHOOK_LOG_FILE")
	t.Cleanup(func() {
		if had {
			os.Setenv("DEMANDHOOK_LOG_FILE", old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Remote.BaseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.Remote.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.Timeout)
	}
	if cfg.Remote.Configured() {
		t.Fatalf("token must not have a literal default")
	}
	if len(cfg.Responsible) != 4 || cfg.Responsible[0].Name != "victor" {
		t.Fatalf("unexpected default directory: %+v", cfg.Responsible)
	}
	if cfg.Addr() != "0.0.0.0:5000" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	d := t.TempDir()
	p := filepath.Join(d, "demandhook.toml")
	body := `templates_file = "tpl.yaml"

[clickup]
base_url = "http://localhost:9999/api/v2/"
folder_id = "f-1"
timeout_sec = 5

[server]
port = 8080

[log]
level = "debug"
file = "custom.log"

[[responsible]]
name = " Ana "
id = "42"

[[responsible]]
name = "semid"
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLICKUP_API_TOKEN", "pk_test")
	t.Setenv("CLICKUP_FOLDER_ID", "f-env")
	t.Setenv("PORT", "7000")

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Remote.BaseURL != "http://localhost:9999/api/v2" {
		t.Fatalf("unexpected base url %s", cfg.Remote.BaseURL)
	}
	if cfg.Remote.FolderID != "f-env" {
		t.Fatalf("env should override file, got %s", cfg.Remote.FolderID)
	}
	if cfg.Remote.APIToken != "pk_test" {
		t.Fatalf("expected token from env")
	}
	if cfg.Timeout != 5*time.Second || cfg.Port != 7000 || cfg.LogLevel != "debug" || cfg.LogFile != "custom.log" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.TemplatesFile != "tpl.yaml" {
		t.Fatalf("unexpected templates file %s", cfg.TemplatesFile)
	}
	if len(cfg.Responsible) != 1 || cfg.Responsible[0] != (Party{Name: "ana", ID: "42"}) {
		t.Fatalf("unexpected directory: %+v", cfg.Responsible)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestStore_Update(t *testing.T) {
	s := NewStore(Remote{APIToken: "a", FolderID: "1", SpaceID: "s"})
	folder := "2"
	empty := ""
	s.Update(RemoteUpdate{FolderID: &folder, APIToken: &empty})
	got := s.Remote()
	if got.FolderID != "2" || got.SpaceID != "s" {
		t.Fatalf("unexpected remote: %+v", got)
	}
	if got.Configured() {
		t.Fatalf("empty token should report unconfigured")
	}
}
