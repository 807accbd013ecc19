package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
)

var (
	runBeer    string
	runBrewery string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve a single bottle label synchronously",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Resolver.ResolveBottle(ctx, model.LabelGuess{
			BeerName:        runBeer,
			BreweryNameHint: runBrewery,
		})
		if err != nil {
			return eris.Wrap(err, "resolve bottle")
		}

		zap.L().Info("bottle resolved",
			zap.String("beer", res.Beer.Name),
			zap.String("brewery", res.Brewery.Name),
			zap.String("source", string(res.Source)),
			zap.Bool("fast_path", res.FastPath),
			zap.Bool("flagged", res.Flagged),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	runCmd.Flags().StringVar(&runBeer, "beer", "", "beer name as read from the label (required)")
	runCmd.Flags().StringVar(&runBrewery, "brewery", "", "brewery name hint, if the label shows one")
	_ = runCmd.MarkFlagRequired("beer")
	rootCmd.AddCommand(runCmd)
}
