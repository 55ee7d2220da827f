package main

import (
	"context"

	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/spf13/cobra"
)

var patchPicks []string
var patchEnvs []string
var patchAll bool

var patchCmd = &cobra.Command{
	Use:   "patch name",
	Short: "Add overlays to a patchset of the current revision",
	Long: `Add overlays to the patchset called name and activate it for the revision currently checked out.
Overlays are either commits to cherry-pick, given by --pick, or environment variables to set, given by --env.
They get applied in the order they were added, picks before environment variables within one invocation.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runner, store := mustRunner(ctx)

		overlays := []bisect.Overlay{}
		for _, pick := range patchPicks {
			overlays = append(overlays, bisect.Overlay{Pick: pick})
		}
		for _, env := range patchEnvs {
			overlays = append(overlays, bisect.Overlay{Env: env})
		}
		if len(overlays) == 0 {
			log.Fatal("No overlays given, use --pick or --env")
		}

		rev := ""
		if !patchAll {
			var err error
			if rev, err = runner.Current(ctx); err != nil {
				log.Fatalf("Failed to resolve current revision - %v", err)
			}
		}
		if err := store.AddOverlays(args[0], rev, overlays); err != nil {
			log.Fatalf("Failed to add overlays to patchset %s - %v", args[0], err)
		}
		log.Infof("Added %d overlays to patchset %s", len(overlays), args[0])
	},
}

func init() {
	rootCmd.AddCommand(patchCmd)

	patchCmd.Flags().StringArrayVar(&patchPicks, "pick", nil, "Commit to cherry-pick, may be repeated")
	patchCmd.Flags().StringArrayVar(&patchEnvs, "env", nil, "Environment variable to set in the form KEY=VALUE, may be repeated")
	patchCmd.Flags().BoolVarP(&patchAll, "all", "a", false, "Activate the patchset for all revisions instead of only the current one")
}
