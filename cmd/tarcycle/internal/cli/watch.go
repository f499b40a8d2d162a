package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tarcycle/tarcycle/cmd/tarcycle/internal/watch"
	"github.com/tarcycle/tarcycle/pkg/config"
)

var watchFlags struct {
	debounce      int
	maxIncrements int
	maxSnapshots  int
	excludes      []string
	candidates    []string
	ignore        []string
	verbose       bool
	json          bool
	noColor       bool
}

var watchCmd = &cobra.Command{
	Use:   "watch <backup-dir> <target>...",
	Short: "Watch targets and back up automatically on change",
	Long: `Watches the target paths and performs a backup run whenever their
content changes, after a debounce window.

Each triggered run follows the same chain and retention rules as
'tarcycle run'. Byte-identical rewrites do not trigger a run.

Example output:

  $ tarcycle watch /backups ~/docs

  tarcycle: watching 1 target(s), archiving to /backups
  tarcycle:   /home/alice/docs
  tarcycle: ready

  [14:32:15] ~ /home/alice/docs/notes.txt
  [14:32:17] backing up (1 changed)...
  [14:32:18] ✓ backup_20240301_143217.tar.gz (incremental)

Press Ctrl+C to stop watching.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWatchCmd,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", config.DefaultDebounceMS,
		"Debounce window in milliseconds")
	watchCmd.Flags().IntVar(&watchFlags.maxIncrements, "max-increments", config.DefaultMaxIncrements,
		"Incremental archives allowed per chain (-1 for unlimited)")
	watchCmd.Flags().IntVar(&watchFlags.maxSnapshots, "max-snapshots", config.DefaultMaxSnapshots,
		"Previous chains retained when a new chain starts (-1 to disable pruning)")
	watchCmd.Flags().StringArrayVar(&watchFlags.excludes, "exclude", nil,
		"Exclude pattern passed to the archive tool (repeatable)")
	watchCmd.Flags().StringSliceVar(&watchFlags.candidates, "archiver", nil,
		"Archive tool candidates to probe (comma-separated)")
	watchCmd.Flags().StringArrayVar(&watchFlags.ignore, "ignore", nil,
		"Path pattern that never triggers a backup (repeatable)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	backupDir := args[0]
	targets := args[1:]

	cfg := config.Load()

	limits := jobLimits{
		maxIncrements: cfg.MaxIncrements(),
		maxSnapshots:  cfg.MaxSnapshots(),
		excludes:      cfg.Backup.Excludes,
		candidates:    cfg.Archiver.Candidates,
	}
	if cmd.Flags().Changed("max-increments") {
		limits.maxIncrements = watchFlags.maxIncrements
	}
	if cmd.Flags().Changed("max-snapshots") {
		limits.maxSnapshots = watchFlags.maxSnapshots
	}
	if cmd.Flags().Changed("exclude") {
		limits.excludes = watchFlags.excludes
	}
	if cmd.Flags().Changed("archiver") {
		limits.candidates = watchFlags.candidates
	}

	debounce := cfg.DebounceMS()
	if cmd.Flags().Changed("debounce") {
		debounce = watchFlags.debounce
	}
	ignore := cfg.Watch.Ignore
	if cmd.Flags().Changed("ignore") {
		ignore = watchFlags.ignore
	}

	job, err := buildJob(backupDir, targets, limits)
	if err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Targets:  targets,
		Ignore:   ignore,
		Debounce: debounce,
		Verbose:  watchFlags.verbose,
		NoColor:  watchFlags.noColor,
		JSON:     watchFlags.json,
		Backup: func(ctx context.Context) (string, bool, error) {
			res, err := job.Run(ctx)
			if err != nil {
				return "", false, err
			}
			return res.Archive, res.NewChain, nil
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx, backupDir)
}
