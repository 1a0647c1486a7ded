package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List the storage roots a scan would cover",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		roots := cfg.RootLister().Roots()
		if len(roots) == 0 {
			color.Yellow("No scan roots found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROOT\tUSED\tFREE\tTOTAL")
		for _, root := range roots {
			usage, err := disk.Usage(root)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\t-\t-\n", root)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", root,
				progress.FormatBytes(int64(usage.Used)),
				progress.FormatBytes(int64(usage.Free)),
				progress.FormatBytes(int64(usage.Total)))
		}
		return w.Flush()
	},
}
