package cmd

import (
	"log"

	"github.com/jobsourcing/match-scorer/internal/match"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "match-scorer"
)

type Config struct {
	Gateway  *GatewayConfig  `mapstructure:"gateway"`
	Identity *IdentityConfig `mapstructure:"identity"`
	AI       *AIConfig       `mapstructure:"ai"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Queue    *QueueConfig    `mapstructure:"queue"`
	Weights  *match.Weights  `mapstructure:"weights"`
}

type GatewayConfig struct {
	URL string `mapstructure:"url"`
}

type IdentityConfig struct {
	TokenURL         string `mapstructure:"token-url"`
	ClientID         string `mapstructure:"client-id"`
	ClientSecretFile string `mapstructure:"client-secret-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	OpenAI   *OpenAIConfig `mapstructure:"openai"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type QueueConfig struct {
	Network    string   `mapstructure:"network"`
	Addresses  []string `mapstructure:"addresses"`
	Group      string   `mapstructure:"group"`
	Partitions int      `mapstructure:"partitions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "match-scorer is a worker that scores candidate profiles against job offers with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("identity.client-secret-file", "CLIENT_SECRET_FILE"); err != nil {
		log.Fatalf("binding CLIENT_SECRET_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is match-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run and send commands. If there is no config,
	// we can skip initialization.
	if runCmd.CalledAs() == "" && sendCmd.CalledAs() == "" {
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

// scoringWeights returns the configured weights, falling back to the
// defaults, and validates them before the first message is handled.
func scoringWeights(config *Config) (match.Weights, error) {
	weights := match.DefaultWeights()
	if config.Weights != nil {
		weights = *config.Weights
	}

	if err := weights.Validate(); err != nil {
		return weights, err
	}

	return weights, nil
}
