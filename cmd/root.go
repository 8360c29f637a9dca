package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "toxscout"
)

type Config struct {
	Input    string          `mapstructure:"input"`
	Output   string          `mapstructure:"output"`
	Pipeline *PipelineConfig `mapstructure:"pipeline"`
	PubMed   *PubMedConfig   `mapstructure:"pubmed"`
	AI       *AIConfig       `mapstructure:"ai"`
	Harvest  *HarvestConfig  `mapstructure:"harvest"`
}

type PipelineConfig struct {
	BatchSize    int           `mapstructure:"batch-size"`
	BatchPause   time.Duration `mapstructure:"batch-pause"`
	ProfilePause time.Duration `mapstructure:"profile-pause"`
	KeepRejected bool          `mapstructure:"keep-rejected"`
}

type PubMedConfig struct {
	APIURL     string `mapstructure:"api-url"`
	UserAgent  string `mapstructure:"user-agent"`
	MonthsBack int    `mapstructure:"months-back"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type HarvestConfig struct {
	Entries string `mapstructure:"entries"`
	Output  string `mapstructure:"output"`
	TopN    int    `mapstructure:"top-n"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "toxscout scores and enriches sales leads for preclinical liver-toxicity outreach",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is toxscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the pipeline commands.
	if runCmd.CalledAs() == "" && harvestCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
