package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/craftflow/craftflow/internal/domain/model/session"
)

func newRunCmd() *cobra.Command {
	var (
		project string
		reqFile string
	)

	cmd := &cobra.Command{
		Use:   "run [requirements]",
		Short: "Start a new pipeline session from requirements text",
		Long: `Start a new session. The requirements text comes from the argument
or from --file. The pipeline drafts a user story and then suspends for
human review; resume the printed session id to continue.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requirements := ""
			if len(args) == 1 {
				requirements = args[0]
			}
			if reqFile != "" {
				if requirements != "" {
					return fmt.Errorf("pass requirements as an argument or via --file, not both")
				}
				data, err := os.ReadFile(reqFile)
				if err != nil {
					return err
				}
				requirements = string(data)
			}
			if strings.TrimSpace(requirements) == "" {
				return fmt.Errorf("requirements text is empty")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			sess := session.New(project)
			fmt.Fprintf(cmd.OutOrStdout(), "session %s\n", sess.ID)

			res, err := rt.engine.Start(cmd.Context(), sess, requirements)
			if err != nil {
				return err
			}
			reportResult(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", ".", "project directory generated files are written into")
	cmd.Flags().StringVar(&reqFile, "file", "", "read requirements from a file")
	return cmd
}
