package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/tracing"
)

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs <recording>",
		Short: "List the runs stored in a recording.",
		Long: "`runs pagesim_recording.sqlite3` lists the runs written by " +
			"`simulate --record`. With --steps it prints the steps of one run.",
		Args: cobra.ExactArgs(1),
		RunE: runRuns,
	}

	flags := runsCmd.Flags()
	flags.String("steps", "", "Print the steps of the run with this ID.")
	flags.Int("limit", 0, "Print at most this many steps; 0 prints all.")
	flags.Int("offset", 0, "Skip this many steps.")

	return runsCmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	reader, err := datarecording.NewReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(tracing.RunTableName, tracing.RunEntry{})
	reader.MapTable(tracing.StepTableName, tracing.StepEntry{})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runID, _ := cmd.Flags().GetString("steps"); runID != "" {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		if limit < 0 || offset < 0 {
			return fmt.Errorf("--limit and --offset cannot be negative")
		}

		return printSteps(ctx, cmd, reader, runID, limit, offset)
	}

	return printRuns(ctx, cmd, reader)
}

func printRuns(
	ctx context.Context,
	cmd *cobra.Command,
	reader datarecording.DataReader,
) error {
	rows, _, err := reader.Query(ctx, tracing.RunTableName,
		datarecording.QueryParams{OrderBy: "RunID ASC"})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Run\tAlgorithm\tFrames\tAccesses\tPage Faults\tTLB Hits")

	for _, row := range rows {
		r := row.(*tracing.RunEntry)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			r.RunID, r.Policy, r.NumFrames, r.NumAccesses,
			r.PageFaults, r.TLBHits)
	}

	return tw.Flush()
}

func printSteps(
	ctx context.Context,
	cmd *cobra.Command,
	reader datarecording.DataReader,
	runID string,
	limit, offset int,
) error {
	rows, total, err := reader.Query(ctx, tracing.StepTableName,
		datarecording.QueryParams{
			Where:   "RunID = ?",
			Args:    []any{runID},
			OrderBy: "StepIndex ASC",
			Limit:   limit,
			Offset:  offset,
		})
	if err != nil {
		return err
	}

	if total == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPage\tMemory\tStatus\tEvicted\tTLB\tTLB Contents")

	for _, row := range rows {
		s := row.(*tracing.StepEntry)

		evicted := s.Evicted
		if evicted == "" {
			evicted = "-"
		}

		fmt.Fprintf(tw, "%d\t%s\t[%s]\t%s\t%s\t%s\t[%s]\n",
			s.StepIndex, s.Page, s.Memory, s.Status, evicted,
			s.TLBStatus, s.TLBContents)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rows) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d steps\n",
			len(rows), total)
	}

	return nil
}
