package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/dispatch"
	"github.com/sells-group/kb-resolver/internal/export"
	"github.com/sells-group/kb-resolver/internal/fetcher"
	"github.com/sells-group/kb-resolver/internal/format"
	"github.com/sells-group/kb-resolver/internal/registry"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the knowledge-base snapshot",
}

// -- kb stats --

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the snapshot contains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := loadKB(cmd)
		if err != nil {
			return err
		}
		formatKBStats(os.Stdout, st)
		return nil
	},
}

// -- kb export --

var kbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the metric index to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := loadKB(cmd)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("out")
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "kb export: create file")
		}
		if err := export.WriteWorkbook(f, st.Index, st.Registry); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "kb export: close file")
		}

		zap.L().Info("kb export: workbook written",
			zap.String("path", path),
			zap.Int("metrics", len(st.Index.Keys())),
		)
		return nil
	},
}

func loadKB(cmd *cobra.Command) (*dispatch.State, error) {
	if err := cfg.Validate("kb"); err != nil {
		return nil, err
	}
	reg, err := registry.Load(cfg.Registry.Overrides)
	if err != nil {
		return nil, eris.Wrap(err, "load registry")
	}
	return loadState(cmd.Context(), cfg, fetcher.NewOpener(cfg.Fetch.Options()), reg)
}

func formatKBStats(out io.Writer, st *dispatch.State) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	snap := st.Snapshot
	_, _ = fmt.Fprintf(w, "Source:\t%s\n", snap.Source)
	_, _ = fmt.Fprintf(w, "Reports:\t%d\n", len(snap.Reports))
	if dates := st.Index.Dates(); len(dates) > 0 {
		_, _ = fmt.Fprintf(w, "Report dates:\t%s to %s\n", format.Date(dates[0]), format.Date(dates[len(dates)-1]))
	}
	_, _ = fmt.Fprintf(w, "Metrics:\t%d keys, %d values\n", len(st.Index.Keys()), st.Index.Len())
	_, _ = fmt.Fprintf(w, "Registry:\t%d canonical metrics\n", st.Registry.Len())
	_, _ = fmt.Fprintf(w, "Market records:\t%d\n", len(snap.Market))
	_, _ = fmt.Fprintf(w, "Symbols:\t%d\n", len(snap.Symbols()))
	_, _ = fmt.Fprintf(w, "Profile sections:\t%d\n", len(snap.Profile.Sections))
	_, _ = fmt.Fprintf(w, "Semantic documents:\t%d\n", st.Semantic.Len())
	_ = w.Flush()
}

func init() {
	kbExportCmd.Flags().String("out", "metrics.xlsx", "output workbook path")

	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbExportCmd)
	rootCmd.AddCommand(kbCmd)
}
