package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/creastat/foodagent/engine"
	"github.com/creastat/foodagent/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Add a food item through a conversation",
		Long: `Starts an interactive conversation on stdin/stdout.

Commands inside the chat:
  /cancel   discard the current item and start over
  /state    print the collected fields
  /quit     leave`,
		RunE: runChat,
	}
	cmd.Flags().StringP("session", "s", "", "Resume a session (default: new session id)")
	cmd.Flags().StringToString("caller", nil, "Caller context forwarded to storage (key=value)")
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("session")
	caller, _ := cmd.Flags().GetStringToString("caller")
	if id == "" {
		v7, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("session id: %w", err)
		}
		id = v7.String()
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", id)
	return chatLoop(cmd.Context(), a.engine, id, caller, cmd.InOrStdin(), cmd.OutOrStdout())
}

// dialogue is the part of the engine the chat loop drives.
type dialogue interface {
	Step(ctx context.Context, turn engine.Turn) (engine.Reply, error)
	Cancel(ctx context.Context, id string) error
	Peek(ctx context.Context, id string) (*session.State, error)
}

// chatLoop runs one session until it completes, the input ends or the user
// quits. Storage failures are printed and the session continues.
func chatLoop(ctx context.Context, d dialogue, id string, caller map[string]string, in io.Reader, out io.Writer) error {
	r, err := d.Step(ctx, engine.Turn{SessionID: id, Caller: caller})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, r.Text)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/cancel":
			if err := d.Cancel(ctx, id); err != nil {
				return err
			}
			r, err = d.Step(ctx, engine.Turn{SessionID: id, Caller: caller})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Cancelled. "+r.Text)
			continue
		case "/state":
			st, err := d.Peek(ctx, id)
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(stateView(st), "", "  ")
			fmt.Fprintln(out, string(b))
			continue
		}

		r, err = d.Step(ctx, engine.Turn{SessionID: id, Text: &line, Caller: caller})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, r.Text)
		if r.Complete {
			return nil
		}
	}
}

type stateSummary struct {
	Fields   map[string]string `json:"fields"`
	Attempts int               `json:"attempts"`
	Mode     session.Mode      `json:"mode"`
	Phase    session.Phase     `json:"phase"`
}

func stateView(st *session.State) *stateSummary {
	if st == nil {
		return nil
	}
	v := &stateSummary{
		Fields:   make(map[string]string, len(st.Fields)),
		Attempts: st.AttemptCount,
		Mode:     st.Mode,
		Phase:    st.Phase,
	}
	for k, val := range st.Fields {
		v.Fields[k.String()] = val
	}
	return v
}
