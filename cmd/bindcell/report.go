package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/bindcell/internal/cell/recorder"
	"github.com/kolkov/bindcell/internal/cell/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [flags] dump...",
	Short: "Print the conflicts recorded in one or more dumps",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("modfile", "", "go.mod of the program; frames in its module are highlighted")
	reportCmd.Flags().Bool("summary", false, "print per-kind counts instead of full reports")
	reportCmd.Flags().Bool("unique", false, "print each conflict location once")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := applyColorFlag(cmd); err != nil {
		return err
	}
	modFile, _ := cmd.Flags().GetString("modfile")
	summary, _ := cmd.Flags().GetBool("summary")
	unique, _ := cmd.Flags().GetBool("unique")

	var modPath string
	if modFile != "" {
		p, err := mainModulePath(modFile)
		if err != nil {
			return err
		}
		modPath = p
	}

	conflicts, err := readDumps(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if summary {
		writeSummary(out, conflicts)
		return nil
	}

	style := reportStyle(modPath)
	seen := make(map[string]bool)
	for i := range conflicts {
		c := &conflicts[i]
		if unique {
			if seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
		}
		c.Format(out, style)
	}
	return nil
}

// readDumps decodes every dump concurrently and concatenates the records in
// argument order.
func readDumps(paths []string) ([]report.Conflict, error) {
	results := make([][]report.Conflict, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			records, err := recorder.ReadAll(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

//nolint:errcheck // Summary output is best effort.
func writeSummary(w io.Writer, conflicts []report.Conflict) {
	byKind := make(map[string]int)
	locations := make(map[string]bool)
	for i := range conflicts {
		byKind[conflicts[i].Kind]++
		locations[conflicts[i].Key()] = true
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	fmt.Fprintf(w, "%d conflicts at %d locations\n", len(conflicts), len(locations))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-30s %d\n", k, byKind[k])
	}
}
