package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (JSON, ENV, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	// Core settings
	Home() string           // Base directory for craftflow (CRAFTFLOW_HOME)
	Agent() string          // Agent type: claude-cli, claude-api, mock (CRAFTFLOW_AGENT)
	AgentBin() string       // Agent binary path for CLI agents (CRAFTFLOW_AGENT_BIN)
	TimeoutSec() int        // Agent execution timeout in seconds (CRAFTFLOW_TIMEOUT_SEC)
	Timeout() time.Duration // Agent execution timeout as Duration

	// Persistence
	CheckpointBackend() string // "file" or "sqlite" (CRAFTFLOW_CHECKPOINT_BACKEND)

	// Execution limits
	MaxTurns() int // Maximum stage executions per run before aborting

	// Publish target
	PublishEnabled() bool // Enable GitHub publishing (CRAFTFLOW_PUBLISH)
	PublishFatal() bool   // Treat publish failures as fatal (CRAFTFLOW_PUBLISH_FATAL)
	GitHubOwner() string  // Repository owner (CRAFTFLOW_GITHUB_OWNER)
	GitHubRepo() string   // Repository name (CRAFTFLOW_GITHUB_REPO)
	GitHubToken() string  // API token (CRAFTFLOW_GITHUB_TOKEN)

	// Logging
	StderrLevel() string // Stderr log level (CRAFTFLOW_STDERR_LEVEL)

	// Metadata
	ConfigSource() string // Source of configuration: "json", "env", or "default"
	SettingPath() string  // Path to setting.json if loaded from file
}

// AppConfig is the concrete implementation of Config interface.
type AppConfig struct {
	home       string
	agent      string
	agentBin   string
	timeoutSec int

	checkpointBackend string
	maxTurns          int

	publishEnabled bool
	publishFatal   bool
	githubOwner    string
	githubRepo     string
	githubToken    string

	stderrLevel string

	configSource string
	settingPath  string
}

// Home returns the base directory for craftflow
func (c *AppConfig) Home() string { return c.home }

// Agent returns the configured agent type
func (c *AppConfig) Agent() string { return c.agent }

// AgentBin returns the agent binary path
func (c *AppConfig) AgentBin() string { return c.agentBin }

// TimeoutSec returns the timeout in seconds
func (c *AppConfig) TimeoutSec() int { return c.timeoutSec }

// Timeout returns the timeout as a Duration
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.timeoutSec) * time.Second
}

// CheckpointBackend returns the checkpoint persistence backend
func (c *AppConfig) CheckpointBackend() string { return c.checkpointBackend }

// MaxTurns returns the maximum stage executions allowed per run
func (c *AppConfig) MaxTurns() int { return c.maxTurns }

// PublishEnabled returns whether GitHub publishing is enabled
func (c *AppConfig) PublishEnabled() bool { return c.publishEnabled }

// PublishFatal returns whether publish failures abort the pipeline
func (c *AppConfig) PublishFatal() bool { return c.publishFatal }

// GitHubOwner returns the publish repository owner
func (c *AppConfig) GitHubOwner() string { return c.githubOwner }

// GitHubRepo returns the publish repository name
func (c *AppConfig) GitHubRepo() string { return c.githubRepo }

// GitHubToken returns the publish API token
func (c *AppConfig) GitHubToken() string { return c.githubToken }

// StderrLevel returns the stderr log level
func (c *AppConfig) StderrLevel() string { return c.stderrLevel }

// ConfigSource returns where the configuration was loaded from
func (c *AppConfig) ConfigSource() string { return c.configSource }

// SettingPath returns the path to setting.json if loaded from file
func (c *AppConfig) SettingPath() string { return c.settingPath }

// NewAppConfig creates an AppConfig with explicit values. Used by the
// loader and by tests.
func NewAppConfig(
	home, agent, agentBin string, timeoutSec int,
	checkpointBackend string, maxTurns int,
	publishEnabled, publishFatal bool,
	githubOwner, githubRepo, githubToken string,
	stderrLevel string,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		home:              home,
		agent:             agent,
		agentBin:          agentBin,
		timeoutSec:        timeoutSec,
		checkpointBackend: checkpointBackend,
		maxTurns:          maxTurns,
		publishEnabled:    publishEnabled,
		publishFatal:      publishFatal,
		githubOwner:       githubOwner,
		githubRepo:        githubRepo,
		githubToken:       githubToken,
		stderrLevel:       stderrLevel,
		configSource:      configSource,
		settingPath:       settingPath,
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return NewAppConfig(
		".craftflow", "claude-cli", "claude", 600,
		"file", 200,
		false, false,
		"", "", "",
		"warn",
		"default", "",
	)
}
