package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/craftflow/craftflow/internal/domain/model/session"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
)

// statusView is the machine-readable shape of `craftflow status --json`.
type statusView struct {
	SessionID   string         `json:"session_id"`
	Stage       string         `json:"stage"`
	Suspended   bool           `json:"suspended"`
	Done        bool           `json:"done"`
	Turn        int            `json:"turn"`
	Rejections  map[string]int `json:"rejections,omitempty"`
	ForcedGates []string       `json:"forced_gates,omitempty"`
	SavedAt     time.Time      `json:"saved_at"`
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show the checkpointed state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !session.ValidateID(id) {
				return fmt.Errorf("invalid session id %q", id)
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			cp, err := rt.checkpoints.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			st := cp.State

			view := statusView{
				SessionID:  cp.SessionID,
				Stage:      st.Current.String(),
				Suspended:  st.Current == stage.HumanFeedback,
				Done:       st.Current == stage.Done,
				Turn:       st.Turn,
				Rejections: st.Rejections,
				SavedAt:    cp.SavedAt,
			}
			for g := range st.ForcedGates {
				view.ForcedGates = append(view.ForcedGates, g)
			}
			sort.Strings(view.ForcedGates)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			fmt.Fprintf(out, "session:  %s\n", view.SessionID)
			fmt.Fprintf(out, "stage:    %s\n", view.Stage)
			fmt.Fprintf(out, "turn:     %d\n", view.Turn)
			fmt.Fprintf(out, "saved:    %s\n", view.SavedAt.Format(time.RFC3339))
			if view.Suspended {
				fmt.Fprintln(out, "awaiting story feedback; resume with --approve or --feedback")
			}
			for _, g := range stage.GateNames {
				if n := st.Rejections[g]; n > 0 {
					fmt.Fprintf(out, "gate %-8s %d consecutive rejections\n", g+":", n)
				}
			}
			if len(view.ForcedGates) > 0 {
				fmt.Fprintf(out, "force-advanced gates (unreviewed): %v\n", view.ForcedGates)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
