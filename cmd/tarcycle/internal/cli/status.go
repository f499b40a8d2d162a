package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tarcycle/tarcycle/cmd/tarcycle/internal/chain"
)

var statusFlags struct {
	json bool
}

var statusCmd = &cobra.Command{
	Use:   "status <backup-dir>",
	Short: "Show the chains in a backup directory",
	Long: `Shows the snapshot chains in a backup directory.

Each chain is listed with its marker and the archives created under it,
oldest first. The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// ChainOutput is one chain in the JSON output of tarcycle status.
type ChainOutput struct {
	Marker   string   `json:"marker"`
	Archives []string `json:"archives"`
	Bytes    int64    `json:"bytes"`
}

// StatusOutput is the JSON output format for tarcycle status.
type StatusOutput struct {
	Dir      string        `json:"dir"`
	Chains   []ChainOutput `json:"chains"`
	Archives int           `json:"archives"`
	Markers  int           `json:"markers"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := args[0]

	inv, err := chain.List(dir)
	if err != nil {
		return err
	}
	chains := inv.Chains()

	if statusFlags.json {
		output := StatusOutput{
			Dir:      dir,
			Chains:   make([]ChainOutput, 0, len(chains)),
			Archives: len(inv.Archives),
			Markers:  len(inv.Markers),
		}
		for _, c := range chains {
			output.Chains = append(output.Chains, ChainOutput{
				Marker:   c.Marker,
				Archives: c.Archives,
				Bytes:    chainSize(dir, c),
			})
		}
		return outputJSON(output)
	}

	if len(chains) == 0 {
		fmt.Println("No chains found")
		return nil
	}

	fmt.Printf("Chains (%d):\n", len(chains))
	for _, c := range chains {
		fmt.Printf("  %s (%d archives, %s)\n", c.Marker, len(c.Archives), formatBytes(chainSize(dir, c)))
		for _, a := range c.Archives {
			fmt.Printf("    %s\n", a)
		}
	}
	return nil
}

// chainSize sums the archive sizes of one chain. Files that vanish
// between listing and stat are counted as zero.
func chainSize(dir string, c chain.Chain) int64 {
	var total int64
	for _, a := range c.Archives {
		if info, err := os.Stat(filepath.Join(dir, a)); err == nil {
			total += info.Size()
		}
	}
	return total
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
