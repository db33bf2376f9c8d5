package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftflow/craftflow/internal/application/usecase/execution"
	"github.com/craftflow/craftflow/internal/domain/model/session"
)

func newResumeCmd() *cobra.Command {
	var (
		feedback string
		approve  bool
	)

	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a suspended or interrupted session",
		Long: `Resume a session. For a session awaiting story review, pass
--approve to accept the story or --feedback to request a revision.
Without either flag the session continues from its last checkpoint,
which picks up sessions stopped by the turn guard or a crash.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !session.ValidateID(id) {
				return fmt.Errorf("invalid session id %q", id)
			}
			if approve && feedback != "" {
				return fmt.Errorf("--approve and --feedback are mutually exclusive")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := resumeOrContinue(cmd, rt, id, feedback, approve)
			if err != nil {
				return err
			}
			reportResult(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&feedback, "feedback", "", "revision feedback for the story draft")
	cmd.Flags().BoolVar(&approve, "approve", false, "approve the story draft as-is")
	return cmd
}

func resumeOrContinue(cmd *cobra.Command, rt *runtime, id, feedback string, approve bool) (*execution.RunResult, error) {
	if approve || feedback != "" {
		// Empty feedback with --approve means approval.
		return rt.engine.Resume(cmd.Context(), id, feedback)
	}
	return rt.engine.Continue(cmd.Context(), id)
}
