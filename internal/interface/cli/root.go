package cli

import (
	"github.com/craftflow/craftflow/internal/app/config"
	infraConfig "github.com/craftflow/craftflow/internal/infra/config"
	"github.com/spf13/cobra"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig config.Config

func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "craftflow",
		Short: "Craftflow pipeline orchestrator",
		Long: `Craftflow drives a multi-stage generation pipeline: story, design,
code, security, tests, QA and deployment, with review gates between
stages and a human approval step after the story draft. Sessions are
checkpointed and can be paused and resumed at any point.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration before any command runs
			// Priority: setting.json > ENV > defaults
			cfg, err := infraConfig.LoadSettings(homeDir())
			if err != nil {
				// Continue with defaults if loading fails
				cfg = config.DefaultConfig()
			}
			globalConfig = cfg
			InitGlobalLogger(cfg.StderrLevel())
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
