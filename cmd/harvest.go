package cmd

import (
	"context"
	"log"
	"os"

	"github.com/toxscout/toxscout/internal/enrich"
	"github.com/toxscout/toxscout/internal/harvest"
	"github.com/toxscout/toxscout/internal/lead"
	"github.com/toxscout/toxscout/internal/logger"
	"github.com/toxscout/toxscout/internal/scoring"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Build ranked leads from harvested publication author records",
	Run: func(cmd *cobra.Command, _ []string) {
		runHarvest(cmd)
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringP("entries", "e", "", "JSONL file with publication author entries")
	harvestCmd.Flags().IntP("top-n", "n", 0, "keep only the N best leads (0 keeps all)")

	viper.BindPFlag("harvest.entries", harvestCmd.Flags().Lookup("entries"))
	viper.BindPFlag("harvest.top-n", harvestCmd.Flags().Lookup("top-n"))
}

// runHarvest scores author records that already carry their own publication
// counts, so the enrichment chain here skips the publication lookup.
func runHarvest(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Harvest == nil || config.Harvest.Entries == "" {
		logger.Fatal("entries file is required", zap.String("hint", "set 'harvest.entries' in the config or pass --entries"))
	}
	if config.Harvest.Output == "" {
		logger.Fatal("harvest output CSV is required", zap.String("hint", "set 'harvest.output' in the config"))
	}

	file, err := os.Open(config.Harvest.Entries)
	if err != nil {
		logger.Fatal("opening entries file", zap.Error(err))
	}
	defer file.Close()

	entries, err := harvest.ReadEntries(file)
	if err != nil {
		logger.Fatal("reading entries", zap.Error(err))
	}

	aggregator := harvest.NewAggregator(harvest.NormalizedNameKey)
	for _, e := range entries {
		aggregator.Add(e)
	}
	records := aggregator.Records()

	logger.Info("aggregated author records",
		zap.Int("entries", len(entries)),
		zap.Int("authors", len(records)),
	)

	chain := enrich.NewChain(logger,
		enrich.NewEmail(),
		enrich.NewCompany(),
		enrich.NewWorkMode(),
	)
	scorer := scoring.New()

	leads := &lead.Leads{}
	for _, record := range records {
		profile := record.Profile()
		if !scorer.PassesThreshold(profile) {
			continue
		}

		enriched := chain.Run(ctx, *profile)
		enriched.Score, enriched.Breakdown = scorer.Score(&enriched)
		leads.Append(&enriched)
	}

	leads.SortByScore()
	leads.Top(config.Harvest.TopN)
	leads.AssignRanks()

	store := lead.NewStore(config.Harvest.Output)
	if err := store.Save(leads); err != nil {
		logger.Fatal("persisting harvested leads", zap.Error(err))
	}

	logger.Info("harvest finished",
		zap.Int("leads", leads.Len()),
		zap.String("output", store.Path()),
	)
}
