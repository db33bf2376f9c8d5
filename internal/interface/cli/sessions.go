package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List checkpointed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ids, err := rt.checkpoints.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "no sessions")
				return nil
			}
			for _, id := range ids {
				cp, err := rt.checkpoints.Load(cmd.Context(), id)
				if err != nil {
					fmt.Fprintf(out, "%s  (unreadable: %v)\n", id, err)
					continue
				}
				fmt.Fprintf(out, "%s  %-16s turn %-4d saved %s\n",
					id, cp.State.Current, cp.State.Turn, cp.SavedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	return cmd
}
