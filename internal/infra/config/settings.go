package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/craftflow/craftflow/internal/app/config"
)

// RawSettings represents the structure of setting.json file.
// Pointer fields distinguish "absent" from zero values so defaults and
// ENV overrides only fill what the file left out.
type RawSettings struct {
	// Core settings
	Home       *string `json:"home"`
	Agent      *string `json:"agent"`
	AgentBin   *string `json:"agent_bin"`
	TimeoutSec *int    `json:"timeout_sec"`

	// Persistence
	CheckpointBackend *string `json:"checkpoint_backend"`

	// Execution limits
	MaxTurns *int `json:"max_turns"`

	// Publish target
	PublishEnabled *bool   `json:"publish_enabled"`
	PublishFatal   *bool   `json:"publish_fatal"`
	GitHubOwner    *string `json:"github_owner"`
	GitHubRepo     *string `json:"github_repo"`

	// Logging
	StderrLevel *string `json:"stderr_level"`
}

// LoadSettings loads configuration for the given craftflow home.
// Priority: setting.json > ENV > defaults. The GitHub token is never
// read from setting.json; it comes from CRAFTFLOW_GITHUB_TOKEN only so
// credentials stay out of committed files.
func LoadSettings(baseDir string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	jsonPath := filepath.Join(baseDir, "setting.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
		configSource = "json"
		settingPath = jsonPath
	}

	if applyEnvOverrides(settings) && configSource == "default" {
		configSource = "env"
	}

	applyDefaults(settings, baseDir)

	return buildAppConfig(settings, configSource, settingPath), nil
}

// applyEnvOverrides fills fields the file left absent from CRAFTFLOW_*
// environment variables. Reports whether any override applied.
func applyEnvOverrides(s *RawSettings) bool {
	applied := false
	strVar := func(dst **string, key string) {
		if *dst == nil {
			if v := os.Getenv(key); v != "" {
				*dst = &v
				applied = true
			}
		}
	}
	intVar := func(dst **int, key string) {
		if *dst == nil {
			if v := os.Getenv(key); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					*dst = &n
					applied = true
				}
			}
		}
	}
	boolVar := func(dst **bool, key string) {
		if *dst == nil {
			if v := os.Getenv(key); v != "" {
				b := v == "1" || v == "true"
				*dst = &b
				applied = true
			}
		}
	}

	strVar(&s.Agent, "CRAFTFLOW_AGENT")
	strVar(&s.AgentBin, "CRAFTFLOW_AGENT_BIN")
	intVar(&s.TimeoutSec, "CRAFTFLOW_TIMEOUT_SEC")
	strVar(&s.CheckpointBackend, "CRAFTFLOW_CHECKPOINT_BACKEND")
	intVar(&s.MaxTurns, "CRAFTFLOW_MAX_TURNS")
	boolVar(&s.PublishEnabled, "CRAFTFLOW_PUBLISH")
	boolVar(&s.PublishFatal, "CRAFTFLOW_PUBLISH_FATAL")
	strVar(&s.GitHubOwner, "CRAFTFLOW_GITHUB_OWNER")
	strVar(&s.GitHubRepo, "CRAFTFLOW_GITHUB_REPO")
	strVar(&s.StderrLevel, "CRAFTFLOW_STDERR_LEVEL")
	return applied
}

func applyDefaults(s *RawSettings, baseDir string) {
	defStr := func(dst **string, v string) {
		if *dst == nil {
			*dst = &v
		}
	}
	defInt := func(dst **int, v int) {
		if *dst == nil {
			*dst = &v
		}
	}
	defBool := func(dst **bool, v bool) {
		if *dst == nil {
			*dst = &v
		}
	}

	defStr(&s.Home, baseDir)
	defStr(&s.Agent, "claude-cli")
	defStr(&s.AgentBin, "claude")
	defInt(&s.TimeoutSec, 600)
	defStr(&s.CheckpointBackend, "file")
	defInt(&s.MaxTurns, 200)
	defBool(&s.PublishEnabled, false)
	defBool(&s.PublishFatal, false)
	defStr(&s.GitHubOwner, "")
	defStr(&s.GitHubRepo, "")
	defStr(&s.StderrLevel, "warn")
}

func buildAppConfig(s *RawSettings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		*s.Home, *s.Agent, *s.AgentBin, *s.TimeoutSec,
		*s.CheckpointBackend, *s.MaxTurns,
		*s.PublishEnabled, *s.PublishFatal,
		*s.GitHubOwner, *s.GitHubRepo, os.Getenv("CRAFTFLOW_GITHUB_TOKEN"),
		*s.StderrLevel,
		configSource, settingPath,
	)
}
