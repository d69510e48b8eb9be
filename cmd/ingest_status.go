package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discgeo/discgeo/internal/model"
)

var ingestStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the ingest run log",
	Long:  "Displays the audit history of boundary ingestion runs, most recent first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.ListIngestRuns(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest status")
		}
		if len(runs) == 0 {
			zap.L().Info("no ingest runs found, run 'ingest states' to start loading boundaries")
			return nil
		}

		formatIngestRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	ingestCmd.AddCommand(ingestStatusCmd)
}

// formatIngestRuns writes a tabular representation of ingest runs to w.
func formatIngestRuns(out io.Writer, runs []model.IngestRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATASET\tSTATUS\tSTARTED\tDURATION\tLOADED\tSKIPPED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-------\t--------\t------\t-------\t-----")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			shortID(r.ID),
			r.Dataset,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.Loaded,
			r.Skipped,
			truncate(r.Error, 60),
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
