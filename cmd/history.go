package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/store"
)

// copyPageSize is how many records history copy reads per page.
const copyPageSize = 500

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect answered questions",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent questions and how they were answered",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		intent, _ := cmd.Flags().GetString("intent")
		brainUsed, _ := cmd.Flags().GetString("brain")
		since, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.QueryFilter{
			Intent:    model.Intent(intent),
			BrainUsed: model.BrainUsed(brainUsed),
			Limit:     limit,
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		recs, err := st.ListQueries(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No questions found.")
			return nil
		}

		formatHistory(os.Stdout, recs)
		return nil
	},
}

// -- history copy --

var historyCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Bulk copy the history into a Postgres database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dsn, _ := cmd.Flags().GetString("to")
		if dsn == "" {
			return eris.New("history copy: --to is required")
		}

		src, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		dst, err := store.NewPostgres(ctx, dsn, &store.PoolConfig{MaxConns: cfg.Store.MaxConns, MinConns: cfg.Store.MinConns})
		if err != nil {
			return err
		}
		defer dst.Close() //nolint:errcheck
		if err := dst.Migrate(ctx); err != nil {
			return err
		}

		n, err := copyHistory(ctx, src, dst)
		if err != nil {
			return err
		}
		zap.L().Info("history copy: complete", zap.Int64("rows", n))
		return nil
	},
}

// copier is the bulk-load side of history copy.
type copier interface {
	CopyQueries(ctx context.Context, recs []model.QueryRecord) (int64, error)
}

// copyHistory pages through src and bulk-loads every record into dst.
func copyHistory(ctx context.Context, src store.Store, dst copier) (int64, error) {
	var total int64
	for offset := 0; ; offset += copyPageSize {
		recs, err := src.ListQueries(ctx, store.QueryFilter{Limit: copyPageSize, Offset: offset})
		if err != nil {
			return total, eris.Wrap(err, "history copy: read")
		}
		if len(recs) == 0 {
			return total, nil
		}
		n, err := dst.CopyQueries(ctx, recs)
		total += n
		if err != nil {
			return total, eris.Wrap(err, "history copy: write")
		}
		if len(recs) < copyPageSize {
			return total, nil
		}
	}
}

func openHistory(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("history"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.StoreOptions())
}

func formatHistory(out io.Writer, recs []model.QueryRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tASKED\tINTENT\tBRAIN\tCONFIDENCE\tMS\tQUESTION")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t-----\t----------\t--\t--------")

	for _, r := range recs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			id,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Intent,
			r.BrainUsed,
			r.Confidence,
			r.ElapsedMS,
			truncateText(r.Question, 60),
		)
	}
	_ = w.Flush()
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyListCmd.Flags().String("intent", "", "filter by intent (e.g. FINANCIAL_METRIC)")
	historyListCmd.Flags().String("brain", "", "filter by brain (Local, SemanticFallback, ExternalBrain, Hybrid)")
	historyListCmd.Flags().Duration("since", 0, "only questions asked within this duration")
	historyListCmd.Flags().Int("limit", store.DefaultListLimit, "maximum rows")

	historyCopyCmd.Flags().String("to", "", "destination Postgres connection string")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyCopyCmd)
	rootCmd.AddCommand(historyCmd)
}
