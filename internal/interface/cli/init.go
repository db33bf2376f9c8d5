package cli

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/craftflow/craftflow/internal/app"
	"github.com/craftflow/craftflow/internal/infra/persistence/file"
)

const settingTemplate = `{
  "home": ".craftflow",
  "agent": "claude-cli",
  "agent_bin": "claude",
  "timeout_sec": 600,
  "checkpoint_backend": "file",
  "max_turns": 200,
  "publish_enabled": false,
  "publish_fatal": false,
  "github_owner": "",
  "github_repo": "",
  "stderr_level": "warn"
}
`

const pipelineTemplate = `# Craftflow pipeline configuration.
name: default
approval_token: APPROVED
# continuous: true re-enters code generation after each deployment.
continuous: false
gates:
  design:
    threshold: 2
  code:
    threshold: 2
  security:
    threshold: 2
  tests:
    threshold: 2
  qa:
    threshold: 2
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the craftflow home directory with default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := app.GetPaths()
			fs := afero.NewOsFs()

			if err := os.MkdirAll(paths.Sessions, 0o755); err != nil {
				return err
			}

			created := 0
			for _, f := range []struct {
				path, content string
			}{
				{paths.Setting, settingTemplate},
				{paths.Pipeline, pipelineTemplate},
			} {
				if !force {
					if ok, _ := afero.Exists(fs, f.path); ok {
						fmt.Fprintf(cmd.OutOrStdout(), "skip %s (exists)\n", f.path)
						continue
					}
				}
				if err := file.WriteFileAtomic(fs, f.path, []byte(f.content)); err != nil {
					return fmt.Errorf("write %s: %w", f.path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", f.path)
				created++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", paths.Home)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration files")
	return cmd
}
