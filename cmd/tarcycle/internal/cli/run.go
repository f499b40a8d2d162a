package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tarcycle/tarcycle/cmd/tarcycle/internal/archiver"
	"github.com/tarcycle/tarcycle/cmd/tarcycle/internal/backup"
	"github.com/tarcycle/tarcycle/pkg/config"
)

var runFlags struct {
	maxIncrements int
	maxSnapshots  int
	excludes      []string
	candidates    []string
	quiet         bool
}

var runCmd = &cobra.Command{
	Use:   "run <backup-dir> <target>...",
	Short: "Perform one backup run",
	Long: `Performs a single backup run into the backup directory.

The run continues the current chain with an incremental archive when the
chain is under its increment budget, and otherwise starts a new chain
with a full archive. Starting a new chain prunes chains beyond the
retention limit.

Limits:

  --max-increments N   incremental archives allowed per chain
                       (0 forces a full archive every run, -1 is unlimited)
  --max-snapshots N    previous chains retained when a new chain starts
                       (0 keeps only the new chain, -1 disables pruning)

Flags override tarcycle.toml and TARCYCLE_* environment variables.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runFlags.maxIncrements, "max-increments", config.DefaultMaxIncrements,
		"Incremental archives allowed per chain (-1 for unlimited)")
	runCmd.Flags().IntVar(&runFlags.maxSnapshots, "max-snapshots", config.DefaultMaxSnapshots,
		"Previous chains retained when a new chain starts (-1 to disable pruning)")
	runCmd.Flags().StringArrayVar(&runFlags.excludes, "exclude", nil,
		"Exclude pattern passed to the archive tool (repeatable)")
	runCmd.Flags().StringSliceVar(&runFlags.candidates, "archiver", nil,
		"Archive tool candidates to probe (comma-separated)")
	runCmd.Flags().BoolVarP(&runFlags.quiet, "quiet", "q", false,
		"Suppress the result line")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	limits := jobLimits{
		maxIncrements: cfg.MaxIncrements(),
		maxSnapshots:  cfg.MaxSnapshots(),
		excludes:      cfg.Backup.Excludes,
		candidates:    cfg.Archiver.Candidates,
	}
	if cmd.Flags().Changed("max-increments") {
		limits.maxIncrements = runFlags.maxIncrements
	}
	if cmd.Flags().Changed("max-snapshots") {
		limits.maxSnapshots = runFlags.maxSnapshots
	}
	if cmd.Flags().Changed("exclude") {
		limits.excludes = runFlags.excludes
	}
	if cmd.Flags().Changed("archiver") {
		limits.candidates = runFlags.candidates
	}

	job, err := buildJob(args[0], args[1:], limits)
	if err != nil {
		return err
	}

	res, err := job.Run(cmd.Context())
	if err != nil {
		return err
	}

	if !runFlags.quiet {
		what := "incremental"
		if res.NewChain {
			what = "full"
		}
		fmt.Printf("%s (%s, marker %s", res.Archive, what, res.Marker)
		if res.Pruned > 0 {
			fmt.Printf(", pruned %d", res.Pruned)
		}
		fmt.Println(")")
	}
	return nil
}

// jobLimits are the effective backup settings after config and flag
// layering. Shared with watch mode.
type jobLimits struct {
	maxIncrements int
	maxSnapshots  int
	excludes      []string
	candidates    []string
}

// buildJob discovers the archive tool and assembles a backup job.
func buildJob(dir string, targets []string, limits jobLimits) (*backup.Job, error) {
	tool, err := archiver.Discover(archiver.WithCandidates(limits.candidates...))
	if err != nil {
		return nil, err
	}

	job := &backup.Job{
		Dir:           dir,
		Targets:       targets,
		MaxIncrements: limits.maxIncrements,
		MaxSnapshots:  limits.maxSnapshots,
		Excludes:      limits.excludes,
		Tool:          tool,
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}
