package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/winscale/internal/overview"
	"github.com/1broseidon/winscale/internal/platform"
)

type simulateOptions struct {
	windows int
	width   int
	height  int
	all     bool
	asJSON  bool
}

// simulatedWindow is one row of the simulate report.
type simulatedWindow struct {
	ID      uint32        `json:"id"`
	Row     int           `json:"row"`
	Col     int           `json:"col"`
	Source  platform.Rect `json:"source"`
	Target  platform.Rect `json:"target"`
	Opacity float64       `json:"opacity"`
}

type simulateReport struct {
	Rows        int               `json:"rows"`
	Cols        int               `json:"cols"`
	LastRowCols int               `json:"last_row_cols"`
	Windows     []simulatedWindow `json:"windows"`
}

func newSimulateCmd(flags *globalFlags) *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compute the overview grid for synthetic windows",
		Long: `Run one overview activation against an in-memory screen with synthetic
windows and print the resulting grid. Uses the layout settings of the
configuration file; no X server is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := flags.load()
			if err != nil {
				return err
			}
			overviewOpts, err := overview.OptionsFromConfig(res.Config)
			if err != nil {
				return err
			}
			report, err := simulate(opts, overviewOpts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.windows, "windows", "n", 6, "number of windows")
	cmd.Flags().IntVar(&opts.width, "width", 1920, "screen width")
	cmd.Flags().IntVar(&opts.height, "height", 1080, "screen height")
	cmd.Flags().BoolVar(&opts.all, "all", false, "use the all-workspaces scope")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")
	return cmd
}

func simulate(opts simulateOptions, overviewOpts overview.Options) (*simulateReport, error) {
	if opts.windows < 1 {
		return nil, fmt.Errorf("need at least one window, got %d", opts.windows)
	}
	if opts.width < 100 || opts.height < 100 {
		return nil, fmt.Errorf("screen %dx%d is too small", opts.width, opts.height)
	}

	screen := platform.Rect{Width: opts.width, Height: opts.height}
	out := platform.NewMemoryOutput("sim", screen, 1, 1)
	for i := 1; i <= opts.windows; i++ {
		w := min(opts.width, 400+(i*137)%600)
		h := min(opts.height, 300+(i*89)%400)
		out.AddWindow(platform.Window{
			ID:     platform.WindowID(i),
			Title:  fmt.Sprintf("window %d", i),
			Mapped: true,
			Geometry: platform.Rect{
				X:      (i * 211) % max(1, opts.width-w),
				Y:      (i * 149) % max(1, opts.height-h),
				Width:  w,
				Height: h,
			},
		})
	}

	m := overview.NewManager(platform.NewMemoryBackend(out), overviewOpts, slog.New(slog.DiscardHandler))
	scope := overview.ScopeCurrentWorkspace
	if opts.all {
		scope = overview.ScopeAllWorkspaces
	}
	if !m.Toggle(scope) {
		return nil, fmt.Errorf("overview did not activate")
	}
	for m.NeedsFrame() {
		m.Tick(time.Hour)
	}

	st := m.Controller(out).Status()
	report := &simulateReport{Rows: st.Rows, Cols: st.Cols, LastRowCols: st.LastRowCols}
	for _, ws := range st.Windows {
		id := platform.WindowID(ws.ID)
		src, _ := out.Window(id)
		target, opacity, _ := out.Rendered(id)
		report.Windows = append(report.Windows, simulatedWindow{
			ID:      ws.ID,
			Row:     ws.Row,
			Col:     ws.Col,
			Source:  src.Geometry,
			Target:  target,
			Opacity: opacity,
		})
	}
	m.Shutdown()
	return report, nil
}

func printReport(w io.Writer, r *simulateReport) {
	fmt.Fprintf(w, "grid: %d rows x %d cols (last row %d)\n\n", r.Rows, r.Cols, r.LastRowCols)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCELL\tSOURCE\tTARGET\tALPHA")
	for _, win := range r.Windows {
		fmt.Fprintf(tw, "%d\t%d,%d\t%s\t%s\t%.2f\n", win.ID, win.Row, win.Col, rectString(win.Source), rectString(win.Target), win.Opacity)
	}
	tw.Flush()
}

func rectString(r platform.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}
