// Package config loads process configuration from defaults, an optional TOML
// file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	// AppName is the application name used in logs and version output.
	AppName = "demandhook"

	// DefaultBaseURL is the remote project-management API root.
	DefaultBaseURL = "https://api.clickup.com/api/v2"

	// DefaultTimeout bounds every outbound call.
	DefaultTimeout = 30 * time.Second

	// DefaultPort is used when neither the file nor PORT set one.
	DefaultPort = 5000

	// DefaultLogFile is the append-only process log.
	DefaultLogFile = "demandhook.log"
)

// Party maps a responsible person's name to a remote user ID.
type Party struct {
	Name string `toml:"name"`
	ID   string `toml:"id"`
}

// DefaultParties is the responsible-party directory used when the config file
// does not declare one.
var DefaultParties = []Party{
	{Name: "victor", ID: "200493732"},
	{Name: "angelo", ID: "206512589"},
	{Name: "giorgia", ID: "99908367"},
	{Name: "kelly", ID: "200544020"},
}

// Config holds process settings.
type Config struct {
	// Remote holds the initial remote API settings; see Store for the live copy.
	Remote Remote

	// Timeout bounds each outbound call.
	Timeout time.Duration

	Host string
	Port int

	LogLevel string

	// LogFile is appended to in addition to stderr. Empty disables the file.
	LogFile string

	// TemplatesFile optionally overrides the embedded template set.
	TemplatesFile string

	Responsible []Party
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type fileConfig struct {
	TemplatesFile string  `toml:"templates_file"`
	ClickUp       fileAPI `toml:"clickup"`
	Server        struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	Responsible []Party `toml:"responsible"`
}

// fileAPI has no token field: the token is a secret and is only read from the
// environment.
type fileAPI struct {
	BaseURL     string `toml:"base_url"`
	WorkspaceID string `toml:"workspace_id"`
	SpaceID     string `toml:"space_id"`
	FolderID    string `toml:"folder_id"`
	TimeoutSec  int    `toml:"timeout_sec"`
}

// Default returns the configuration before the file and environment apply.
func Default() Config {
	parties := make([]Party, len(DefaultParties))
	copy(parties, DefaultParties)
	return Config{
		Remote:      Remote{BaseURL: DefaultBaseURL},
		Timeout:     DefaultTimeout,
		Host:        "0.0.0.0",
		Port:        DefaultPort,
		LogLevel:    "info",
		LogFile:     DefaultLogFile,
		Responsible: parties,
	}
}

// Load builds the configuration. If path is empty, DEMANDHOOK_CONFIG is
// consulted; with neither set, no file is read.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("DEMANDHOOK_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := applyTOML(&cfg, b); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyTOML(cfg *Config, b []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return err
	}
	if fc.ClickUp.BaseURL != "" {
		cfg.Remote.BaseURL = strings.TrimRight(fc.ClickUp.BaseURL, "/")
	}
	if fc.ClickUp.WorkspaceID != "" {
		cfg.Remote.WorkspaceID = fc.ClickUp.WorkspaceID
	}
	if fc.ClickUp.SpaceID != "" {
		cfg.Remote.SpaceID = fc.ClickUp.SpaceID
	}
	if fc.ClickUp.FolderID != "" {
		cfg.Remote.FolderID = fc.ClickUp.FolderID
	}
	if fc.ClickUp.TimeoutSec > 0 {
		cfg.Timeout = time.Duration(fc.ClickUp.TimeoutSec) * time.Second
	}
	if fc.Server.Host != "" {
		cfg.Host = fc.Server.Host
	}
	if fc.Server.Port > 0 {
		cfg.Port = fc.Server.Port
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = fc.Log.Level
	}
	if fc.Log.File != "" {
		cfg.LogFile = fc.Log.File
	}
	if fc.TemplatesFile != "" {
		cfg.TemplatesFile = fc.TemplatesFile
	}
	if len(fc.Responsible) > 0 {
		cfg.Responsible = normalizeParties(fc.Responsible)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Remote.APIToken = getenvDefault("CLICKUP_API_TOKEN", cfg.Remote.APIToken)
	cfg.Remote.BaseURL = strings.TrimRight(getenvDefault("CLICKUP_BASE_URL", cfg.Remote.BaseURL), "/")
	cfg.Remote.WorkspaceID = getenvDefault("CLICKUP_WORKSPACE_ID", cfg.Remote.WorkspaceID)
	cfg.Remote.SpaceID = getenvDefault("CLICKUP_SPACE_ID", cfg.Remote.SpaceID)
	cfg.Remote.FolderID = getenvDefault("CLICKUP_FOLDER_ID", cfg.Remote.FolderID)
	if sec := readIntEnv("CLICKUP_TIMEOUT_SEC", 0); sec > 0 {
		cfg.Timeout = time.Duration(sec) * time.Second
	}
	cfg.Host = getenvDefault("DEMANDHOOK_HOST", cfg.Host)
	if port := readIntEnv("PORT", 0); port > 0 {
		cfg.Port = port
	}
	cfg.LogLevel = getenvDefault("DEMANDHOOK_LOG_LEVEL", cfg.LogLevel)
	if v, ok := os.LookupEnv("DEMANDHOOK_LOG_FILE"); ok {
		// An explicitly empty value turns the file sink off.
		cfg.LogFile = strings.TrimSpace(v)
	}
	cfg.TemplatesFile = getenvDefault("DEMANDHOOK_TEMPLATES_FILE", cfg.TemplatesFile)
}

func normalizeParties(in []Party) []Party {
	out := make([]Party, 0, len(in))
	for _, p := range in {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		id := strings.TrimSpace(p.ID)
		if name == "" || id == "" {
			continue
		}
		out = append(out, Party{Name: name, ID: id})
	}
	return out
}

func getenvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func readIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}
