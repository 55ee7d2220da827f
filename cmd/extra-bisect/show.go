package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the patchset of the current revision and all named skip ranges",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runner, store := mustRunner(ctx)
		out := cmd.OutOrStdout()

		head, err := runner.Current(ctx)
		if err != nil {
			log.Fatalf("Failed to resolve current revision - %v", err)
		}
		patchset, err := runner.ReadPatchset(ctx)
		if err != nil {
			log.Fatalf("Failed to read patchset - %v", err)
		}
		fmt.Fprintf(out, "Revision %s\nPatchset %s (%s)\n", head, patchset.Name, patchset.Digest())
		for _, o := range patchset.Overlays {
			fmt.Fprintf(out, "  %s\n", o)
		}

		skips, err := store.SkipRanges()
		if err != nil {
			log.Fatalf("Failed to read skip ranges - %v", err)
		}
		// Group skips by name, keeping the order in which names first appeared
		names := []string{}
		byName := make(map[string][]string)
		for _, skip := range skips {
			if _, ok := byName[skip.Name]; !ok {
				names = append(names, skip.Name)
			}
			byName[skip.Name] = append(byName[skip.Name], skip.Revision)
		}
		fmt.Fprintf(out, "%d named skip ranges\n", len(names))
		for _, name := range names {
			fmt.Fprintf(out, "  %s: %d revisions\n", name, len(byName[name]))
			for _, rev := range byName[name] {
				fmt.Fprintf(out, "    %s\n", rev)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
