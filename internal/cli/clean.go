package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"appenv/internal/paths"
	"appenv/internal/stage"
)

var cleanYes bool

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the environment directory so the next run reinstalls it",
		RunE:  runClean,
	}
	cmd.Flags().BoolVar(&cleanYes, "yes", false, "Remove without asking; otherwise only report what would be removed")
	return cmd
}

type cleanResult struct {
	Path       string `json:"path"`
	Removed    int    `json:"removed"`
	FreedBytes int64  `json:"freed_bytes"`
	DryRun     bool   `json:"dry_run"`
}

func runClean(cmd *cobra.Command, _ []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	root := app.Paths.Root
	result := cleanResult{Path: root, DryRun: !cleanYes}

	exists, err := paths.DirExists(root)
	if err != nil {
		return fmt.Errorf("stat environment directory: %w", err)
	}
	if exists {
		result.Removed, result.FreedBytes, err = measureTree(root)
		if err != nil {
			return err
		}
		if cleanYes {
			if err := stage.Remove(root); err != nil {
				return err
			}
		}
	}
	return writeCleanResult(cmd.OutOrStdout(), result)
}

func measureTree(root string) (int, int64, error) {
	var files int
	var size int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			files++
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("scan environment directory: %w", err)
	}
	return files, size, nil
}

func writeCleanResult(out io.Writer, result cleanResult) error {
	if outputJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	switch {
	case result.Removed == 0 && result.FreedBytes == 0:
		fmt.Fprintf(out, "Nothing to remove at %s\n", result.Path)
	case result.DryRun:
		fmt.Fprintf(out, "Would remove %s (%d files, %s); rerun with --yes to delete\n", result.Path, result.Removed, formatBytes(result.FreedBytes))
	default:
		fmt.Fprintf(out, "Removed %s (%d files, %s)\n", result.Path, result.Removed, formatBytes(result.FreedBytes))
	}
	return nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
