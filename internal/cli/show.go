package cli

import (
	"fmt"
	"io"

	"github.com/mvp-joe/dryjin/internal/storage"
	"github.com/spf13/cobra"
)

var (
	showDBFlag     string
	showRunFlag    string
	showMethodFlag string
	showBodiesFlag bool
	showRunsFlag   bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a recorded import run",
	Long: `Show prints a run recorded by "dryjin import --db". Without --run the
most recent run is shown.

Examples:
  # Summary and edges of the latest run
  dryjin show --db out/runs.db

  # Calls into and out of one method, with synthesized bodies
  dryjin show --db out/runs.db --method "<DummyNative: void JNI_OnLoad()>" --bodies

  # List every recorded run
  dryjin show --db out/runs.db --runs
`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showDBFlag, "db", "", "SQLite database (defaults to output.database)")
	showCmd.Flags().StringVar(&showRunFlag, "run", "", "run ID (defaults to the latest run)")
	showCmd.Flags().StringVarP(&showMethodFlag, "method", "m", "", "only show edges into and out of this method signature")
	showCmd.Flags().BoolVar(&showBodiesFlag, "bodies", false, "print synthesized method bodies")
	showCmd.Flags().BoolVar(&showRunsFlag, "runs", false, "list recorded runs and exit")
}

func runShow(cmd *cobra.Command, args []string) error {
	dbPath := showDBFlag
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath = cfg.Output.Database
	}
	if dbPath == "" {
		return fmt.Errorf("no database: pass --db or set output.database")
	}

	reader, err := storage.NewRunReader(dbPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	out := cmd.OutOrStdout()
	if showRunsFlag {
		return listRuns(out, reader)
	}
	return showRun(out, reader, showRunFlag, showMethodFlag, showBodiesFlag)
}

func listRuns(out io.Writer, reader *storage.RunReader) error {
	runs, err := reader.ReadRuns()
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  %-9s  %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Strategy, run.JSONFile)
	}
	return nil
}

func showRun(out io.Writer, reader *storage.RunReader, runID, method string, bodies bool) error {
	run, err := findRun(reader, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s (%s strategy)\n", run.ID, run.Strategy)
	fmt.Fprintf(out, "  Input:       %s\n", run.JSONFile)
	fmt.Fprintf(out, "  Created:     %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Bodies:      %s built, %s skipped\n", formatNumber(run.NodesBuilt), formatNumber(run.NodesSkipped))
	fmt.Fprintf(out, "  Edges:       %s queued, %s discarded\n", formatNumber(run.EdgesQueued), formatNumber(run.EdgesDiscarded))
	fmt.Fprintf(out, "  Source/sink: %s sources, %s sinks added\n", formatNumber(run.SourcesAdded), formatNumber(run.SinksAdded))

	if method == "" {
		edges, err := reader.ReadEdges(run.ID, storage.EdgeFilter{})
		if err != nil {
			return err
		}
		printEdges(out, "Call edges", edges)
	} else {
		outgoing, err := reader.ReadEdges(run.ID, storage.EdgeFilter{Src: method})
		if err != nil {
			return err
		}
		incoming, err := reader.ReadEdges(run.ID, storage.EdgeFilter{Tgt: method})
		if err != nil {
			return err
		}
		printEdges(out, "Calls out of "+method, outgoing)
		printEdges(out, "Calls into "+method, incoming)
	}

	links, err := reader.ReadIccLinks(run.ID)
	if err != nil {
		return err
	}
	if len(links) > 0 {
		fmt.Fprintf(out, "\nICC links (%d):\n", len(links))
		for _, l := range links {
			fmt.Fprintf(out, "  %s @%d -> %s [%s]\n", l.FromMethod, l.StmtIndex, l.ToClass, l.ExitKind)
		}
	}

	if bodies {
		methods, err := reader.ReadMethods(run.ID)
		if err != nil {
			return err
		}
		for _, m := range methods {
			if method != "" && m.Signature != method {
				continue
			}
			fmt.Fprintln(out)
			if m.Phantom {
				fmt.Fprintf(out, "%s (phantom)\n", m.Signature)
				continue
			}
			fmt.Fprintln(out, m.Body)
		}
	}
	return nil
}

func findRun(reader *storage.RunReader, runID string) (storage.Run, error) {
	if runID == "" {
		return reader.LatestRun()
	}
	runs, err := reader.ReadRuns()
	if err != nil {
		return storage.Run{}, err
	}
	for _, run := range runs {
		if run.ID == runID {
			return run, nil
		}
	}
	return storage.Run{}, fmt.Errorf("run %s not found", runID)
}

func printEdges(out io.Writer, title string, edges []storage.CallEdgeRecord) {
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(edges))
	for _, e := range edges {
		site := "-"
		if e.StmtIndex != nil {
			site = fmt.Sprintf("@%d", *e.StmtIndex)
		}
		fmt.Fprintf(out, "  %-9s %s %s -> %s\n", e.Kind, site, e.Src, e.Tgt)
	}
}
