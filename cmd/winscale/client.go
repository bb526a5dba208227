package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/winscale/internal/ipc"
)

func newToggleCmd(flags *globalFlags) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Show or hide the overview on the active monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handled, err := flags.client().Toggle(all)
			if err != nil {
				return err
			}
			if !handled {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing to show")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include windows from every workspace")
	return cmd
}

func newReloadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to re-read its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.client().Reload(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Config reloaded")
			return nil
		},
	}
}

func newWorkspaceCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "workspace <dx> <dy>",
		Short: "Move the visible overview to a neighbouring workspace",
		Example: `  winscale workspace 1 0     # one workspace to the right
  winscale workspace -- 0 -1 # one workspace up`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid dx %q: %w", args[0], err)
			}
			dy, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid dy %q: %w", args[1], err)
			}
			handled, err := flags.client().SwitchWorkspace(dx, dy)
			if err != nil {
				return err
			}
			if !handled {
				fmt.Fprintln(cmd.ErrOrStderr(), "overview is not active")
			}
			return nil
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and overview status",
		Long:  "Show daemon and overview status. Output is a table on a terminal and JSON otherwise.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := flags.client().GetStatus()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			printStatus(out, status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running: %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "uptime_seconds: %d\n", status.UptimeSeconds)
	if status.ConfigPath != "" {
		fmt.Fprintf(w, "config:         %s\n", status.ConfigPath)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTPUT\tPHASE\tSCOPE\tGRID\tFOCUS\tWINDOWS")
	for _, o := range status.Outputs {
		grid := "-"
		if o.Rows > 0 {
			grid = fmt.Sprintf("%dx%d", o.Cols, o.Rows)
			if o.LastRowCols != o.Cols {
				grid += fmt.Sprintf(" (last row %d)", o.LastRowCols)
			}
		}
		focus := "-"
		if o.CurrentFocus != 0 {
			focus = fmt.Sprintf("0x%x", o.CurrentFocus)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", o.Output, o.Phase, o.Scope, grid, focus, len(o.Windows))
	}
	tw.Flush()
}
