package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/toxscout/toxscout/internal/enrich"
	"github.com/toxscout/toxscout/internal/extract"
	"github.com/toxscout/toxscout/internal/lead"
	"github.com/toxscout/toxscout/internal/logger"
	"github.com/toxscout/toxscout/internal/pipeline"
	"github.com/toxscout/toxscout/internal/pubmed"
	"github.com/toxscout/toxscout/internal/resilience"
	"github.com/toxscout/toxscout/internal/scoring"
	"github.com/toxscout/toxscout/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptExit            = "Exit"
	PromptReportByCompany = "Report by company"
	PromptLeadsToFile     = "Dump leads to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptExit, PromptReportByCompany, PromptLeadsToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the toxscout scoring pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not offer the interactive report menu after the run")
	runCmd.Flags().StringP("input", "i", "", "input CSV with profile URLs in the first column")
	runCmd.Flags().StringP("output", "o", "", "output CSV for ranked leads")

	viper.BindPFlag("input", runCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting toxscout", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.Input == "" {
		logger.Fatal("input CSV is required", zap.String("hint", "set 'input' in the config or pass --input"))
	}
	if config.Output == "" {
		logger.Fatal("output CSV is required", zap.String("hint", "set 'output' in the config or pass --output"))
	}

	extractor, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the profile extractor", zap.Error(err))
	}

	urls, err := lead.LoadSourceURLs(config.Input)
	if err != nil {
		logger.Fatal("loading input URLs", zap.Error(err))
	}

	if len(urls) == 0 {
		logger.Info("exiting", zap.String("reason", "no profile URLs in input"))
		return
	}

	store := lead.NewStore(config.Output)
	p := pipeline.New(
		pipelineConfig(config.Pipeline),
		extractor,
		enrich.Default(logger, newPublications(config.PubMed, logger)),
		scoring.New(),
		store,
		logger,
	)

	summary, err := p.Run(ctx, urls)
	if err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	logger.Info("pipeline finished",
		zap.Int("input_urls", summary.QueueTotal),
		zap.Int("already_processed", summary.AlreadyProcessed),
		zap.Int("processed", summary.Processed),
		zap.Int("extracted", summary.Extracted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.Failed),
	)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	leads, err := store.Load()
	if err != nil {
		logger.Fatal("loading results for the report", zap.Error(err))
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, leads); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, leads *lead.Leads) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(leads.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("leads count", leads.Len()))
		return nil
	case PromptLeadsToFile:
		filename, err := leads.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func newExtractor(ctx context.Context, config *AIConfig, logger *zap.Logger) (extract.Extractor, error) {
	if config == nil || config.Gemini == nil {
		return nil, errors.New("gemini configuration is required under ai.gemini")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := extract.NewGenerator(ctx, apiKey, config.Gemini.Model)
	if err != nil {
		return nil, err
	}

	policy := resilience.DefaultPolicy()
	if config.Gemini.MaxRetries > 0 {
		policy.MaxAttempts = config.Gemini.MaxRetries
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return extract.NewGeminiExtractor(generator, policy, genLogger), nil
}

func newPublications(config *PubMedConfig, logger *zap.Logger) *enrich.Publications {
	client := pubmed.New(logger, resilience.DefaultPolicy())

	monthsBack := 0
	if config != nil {
		if config.APIURL != "" {
			client.APIURL = config.APIURL
		}
		if config.UserAgent != "" {
			client.UserAgent = config.UserAgent
		}
		monthsBack = config.MonthsBack
	}

	return enrich.NewPublications(client, monthsBack, logger)
}

func pipelineConfig(config *PipelineConfig) pipeline.Config {
	if config == nil {
		return pipeline.Config{}
	}
	return pipeline.Config{
		BatchSize:    config.BatchSize,
		BatchPause:   config.BatchPause,
		ProfilePause: config.ProfilePause,
		KeepRejected: config.KeepRejected,
	}
}
