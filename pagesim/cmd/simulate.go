package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/paging"
	"github.com/sarchlab/pagesim/tracing"
)

func newSimulateCmd() *cobra.Command {
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a reference string and print every access.",
		Long: "`simulate --algorithm LRU --frames 3 --refs 1,2,3,4` replays " +
			"the reference string and prints memory and TLB state after " +
			"each access.",
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}

	flags := simulateCmd.Flags()
	flags.StringP("algorithm", "a", "FIFO", "FIFO, LRU or Optimal.")
	flags.IntP("frames", "f", 3, "Number of frames in main memory.")
	flags.StringP("refs", "r", "",
		"Reference string, separated by commas or spaces.")
	flags.String("file", "", "Read the reference string from a file.")
	flags.Bool("json", false, "Print the result as JSON.")
	flags.Bool("compare", false, "Run every algorithm and compare them.")
	flags.Bool("log", false, "Log every step to stderr.")
	flags.String("record", "",
		"Record the trace into a SQLite database with this name.")

	simulateCmd.MarkFlagsMutuallyExclusive("algorithm", "compare")

	return simulateCmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	inline, _ := cmd.Flags().GetString("refs")
	filename, _ := cmd.Flags().GetString("file")
	numFrames, _ := cmd.Flags().GetInt("frames")
	asJSON, _ := cmd.Flags().GetBool("json")
	compare, _ := cmd.Flags().GetBool("compare")

	refs, err := readReferenceString(inline, filename)
	if err != nil {
		return err
	}

	algorithm, _ := cmd.Flags().GetString("algorithm")
	policy, err := paging.ParsePolicy(algorithm)
	if err != nil {
		return err
	}

	// Nothing may touch the disk before the input is known to be valid.
	if numFrames <= 0 {
		return fmt.Errorf("%w: frame count must be positive, got %d",
			paging.ErrInvalidCapacity, numFrames)
	}

	if len(refs) == 0 {
		return fmt.Errorf("%w: reference string is empty",
			paging.ErrInvalidCapacity)
	}

	label := policy.String()
	if compare {
		label = "Compare"
	}

	hooks, finish := simulationHooks(cmd, label, numFrames)
	defer finish()

	if compare {
		return runCompare(cmd, refs, numFrames, asJSON, hooks)
	}

	res, err := paging.Simulate(policy, refs, numFrames, hooks...)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd, res)
	}

	printTrace(cmd.OutOrStdout(), policy, numFrames, res)

	return nil
}

// simulationHooks creates the hooks asked for by --log and --record. The
// returned function writes and closes the recording, if any.
func simulationHooks(
	cmd *cobra.Command,
	label string,
	numFrames int,
) ([]hooking.Hook, func()) {
	var hooks []hooking.Hook

	if logSteps, _ := cmd.Flags().GetBool("log"); logSteps {
		hooks = append(hooks, tracing.NewStepLogger(log.New(os.Stderr, "", 0)))
	}

	recordName := stringSetting(cmd, "record", envRecord)
	if recordName == "" {
		return hooks, func() {}
	}

	recorder := datarecording.New(recordName)

	execRecorder := datarecording.NewExecRecorder(recorder)
	execRecorder.Start()
	execRecorder.Property("Algorithm", label)
	execRecorder.Property("Frames", fmt.Sprint(numFrames))

	hooks = append(hooks, tracing.NewDBTracer(recorder))

	return hooks, func() {
		execRecorder.End()
		recorder.Close()
	}
}

func runCompare(
	cmd *cobra.Command,
	refs []paging.Page,
	numFrames int,
	asJSON bool,
	hooks []hooking.Hook,
) error {
	comparisons, err := paging.Compare(refs, numFrames, hooks...)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd, comparisons)
	}

	printComparison(cmd.OutOrStdout(), numFrames, comparisons)

	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
