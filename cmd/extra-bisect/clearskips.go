package main

import (
	"context"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var clearAgree bool

var clearSkipsCmd = &cobra.Command{
	Use:     "clear-skips",
	Aliases: []string{"clean"},
	Short:   "Forget all named skip ranges",
	Long: `Forget all named skip ranges.
This only removes the names, the revisions stay skipped in the bisection itself.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store := mustRunner(ctx)

		skips, err := store.SkipRanges()
		if err != nil {
			log.Fatalf("Failed to read skip ranges - %v", err)
		}
		if len(skips) == 0 {
			log.Info("No named skips to forget. Exiting...")
			return
		}

		log.Warnf("About to forget %d named skips.", len(skips))

		prompt := promptui.Prompt{
			Label:     "Proceed",
			IsConfirm: true,
		}

		if !clearAgree {
			if _, err := prompt.Run(); err != nil {
				log.Info("Exiting...")
				os.Exit(0)
			}
		}

		n, err := store.ClearSkipRanges()
		if err != nil {
			log.Fatalf("Failed to forget named skips - %v", err)
		}
		log.Infof("Forgot %d named skips.", n)
	},
}

func init() {
	rootCmd.AddCommand(clearSkipsCmd)

	clearSkipsCmd.Flags().BoolVarP(&clearAgree, "assume-yes", "y", false, `Bypass "Are you sure?" message.`)
}
