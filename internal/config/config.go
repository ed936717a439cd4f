// Package config resolves the action's inputs and runner environment into one
// explicit Config value.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schemacheck/schemacheck-go/internal/actions"
	"github.com/schemacheck/schemacheck-go/internal/domain"
)

// Inputs is the read side of the host runner.
type Inputs interface {
	Input(name string) string
	RequiredInput(name string) (string, error)
	BoolInput(name string, fallback bool) (bool, error)
	Getenv(key string) string
	Event() (actions.Event, error)
	Repository() (owner, repo string, err error)
}

// Config holds everything a run needs. It is resolved once by Load and passed
// into each component's constructor.
type Config struct {
	SchemaPath      string
	Validate        bool
	CreateDiff      bool
	PreviousVersion string
	Token           string

	Owner     string
	Repo      string
	ServerURL string
	APIURL    string

	Release domain.ReleaseContext

	OutputDir         string
	DiffWarnThreshold int

	LogLevel    string
	LogFormat   string
	OTelEnabled bool
}

// DefaultDiffWarnThreshold is the diff length, in characters, above which a
// formatting warning is logged.
const DefaultDiffWarnThreshold = 1000

// Load reads the action inputs and runner environment.
func Load(in Inputs) (Config, error) {
	schemaPath, err := in.RequiredInput("schemaPath")
	if err != nil {
		return Config{}, err
	}
	validate, err := in.BoolInput("validate", true)
	if err != nil {
		return Config{}, err
	}
	createDiff, err := in.BoolInput("createDiff", false)
	if err != nil {
		return Config{}, err
	}

	token := in.Input("token")
	if token == "" {
		token = in.Input("github_token")
	}

	cfg := Config{
		SchemaPath:      schemaPath,
		Validate:        validate,
		CreateDiff:      createDiff,
		PreviousVersion: in.Input("previousVersion"),
		Token:           token,
		ServerURL:       strings.TrimRight(envOr(in, "GITHUB_SERVER_URL", "https://github.com"), "/"),
		APIURL:          strings.TrimRight(envOr(in, "GITHUB_API_URL", "https://api.github.com"), "/"),
		OutputDir:       envOr(in, "SCHEMACHECK_OUTPUT_DIR", "."),
		LogLevel:        logLevel(in),
		LogFormat:       envOr(in, "SCHEMACHECK_LOG_FORMAT", "actions"),
		OTelEnabled:     in.Getenv("SCHEMACHECK_OTEL_ENABLED") == "true" || in.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
	}

	cfg.DiffWarnThreshold, err = intEnvOr(in, "SCHEMACHECK_DIFF_WARN_THRESHOLD", DefaultDiffWarnThreshold)
	if err != nil {
		return Config{}, err
	}
	if cfg.LogFormat != "actions" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("config: invalid SCHEMACHECK_LOG_FORMAT %q (must be actions or json)", cfg.LogFormat)
	}

	ev, err := in.Event()
	if err != nil {
		return Config{}, err
	}
	cfg.Release = domain.ReleaseContext{EventName: ev.Name, Action: ev.Action}
	if ev.Release != nil {
		cfg.Release.TagName = ev.Release.TagName
		cfg.Release.UploadURL = ev.Release.UploadURL
	}

	if cfg.NeedsNetwork() {
		if cfg.Token == "" {
			return Config{}, fmt.Errorf("config: token is required when createDiff is enabled or a release is published")
		}
		cfg.Owner, cfg.Repo, err = in.Repository()
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// NeedsNetwork reports whether the run will call the hosting API.
func (c Config) NeedsNetwork() bool {
	return c.CreateDiff || c.Release.IsPublished()
}

func logLevel(in Inputs) string {
	if in.Getenv("RUNNER_DEBUG") == "1" {
		return "debug"
	}
	return envOr(in, "SCHEMACHECK_LOG_LEVEL", "info")
}

func envOr(in Inputs, key, fallback string) string {
	if v := in.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOr(in Inputs, key string, fallback int) (int, error) {
	raw := in.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("config: invalid %s %q (must be a non-negative integer)", key, raw)
	}
	return n, nil
}
