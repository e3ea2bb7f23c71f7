package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jobsourcing/match-scorer/internal/ai"
	"github.com/jobsourcing/match-scorer/internal/ai/gemini"
	"github.com/jobsourcing/match-scorer/internal/ai/openai"
	"github.com/jobsourcing/match-scorer/internal/event"
	"github.com/jobsourcing/match-scorer/internal/gateway"
	"github.com/jobsourcing/match-scorer/internal/identity"
	"github.com/jobsourcing/match-scorer/internal/logger"
	"github.com/jobsourcing/match-scorer/internal/secrets"
	"github.com/jobsourcing/match-scorer/internal/store"
	"github.com/jobsourcing/match-scorer/internal/worker"

	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/kafka"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultConsumerGroup = "match-scorer"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the match-scorer worker",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run is the main command for the worker.
func run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the match-scorer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if err := validateConfig(config); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	weights, err := scoringWeights(config)
	if err != nil {
		logger.Fatal("invalid scoring weights", zap.Error(err))
	}

	clientSecret, err := secrets.Load(secrets.Source{
		Name: "identity client secret",
		File: config.Identity.ClientSecretFile,
		Env:  "IDENTITY_CLIENT_SECRET",
	})
	if err != nil {
		logger.Fatal(
			"loading identity client secret",
			zap.Error(err),
			zap.String("hint", "set CLIENT_SECRET_FILE environment variable or the 'identity.client-secret-file' key in the configuration file"),
		)
	}

	tokens := identity.New(logger, config.Identity.TokenURL, config.Identity.ClientID, clientSecret)
	fetcher := gateway.New(logger, strings.TrimRight(config.Gateway.URL, "/"))

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building evaluation client", zap.Error(err))
	}

	redisClient, err := store.NewRedisClient(ctx, config.Redis.URL)
	if err != nil {
		logger.Fatal("connecting to redis", zap.Error(err))
	}

	matchStore := store.New(redisClient, logger)

	w := worker.New(weights, &worker.Deps{
		Tokens:    tokens,
		Fetcher:   fetcher,
		Generator: generator,
		Store:     matchStore,
		Logger:    logger,
	})

	q, err := newMQ(ctx, config.Queue)
	if err != nil {
		logger.Fatal("connecting to the message queue", zap.Error(err))
	}

	group := config.Queue.Group
	if group == "" {
		group = defaultConsumerGroup
	}

	consumer, err := event.NewScoreRequestedConsumer(w, q, group, logger)
	if err != nil {
		logger.Fatal("creating score request consumer", zap.Error(err))
	}

	consumer.Start(ctx)

	logger.Info("worker started",
		zap.String("topic", event.ScoreRequestsTopic),
		zap.String("group", group),
		zap.String("model", generator.Model()),
	)

	<-ctx.Done()

	logger.Info("shutting down")

	if err := consumer.Stop(context.Background()); err != nil {
		logger.Warn("stopping consumer", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Warn("closing redis client", zap.Error(err))
	}
}

func validateConfig(config *Config) error {
	if config == nil {
		return errors.New("config is required")
	}

	if config.Gateway == nil || config.Gateway.URL == "" {
		return errors.New("gateway url is required under gateway.url")
	}

	if config.Identity == nil || config.Identity.TokenURL == "" || config.Identity.ClientID == "" {
		return errors.New("identity.token-url and identity.client-id are required")
	}

	if config.Redis == nil || config.Redis.URL == "" {
		return errors.New("redis url is required under redis.url")
	}

	if config.Queue == nil || len(config.Queue.Addresses) == 0 {
		return errors.New("queue addresses are required under queue.addresses")
	}

	return nil
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	provider := "openai"
	if cfg != nil && cfg.Provider != "" {
		provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	}

	switch provider {
	case "openai":
		if cfg == nil || cfg.OpenAI == nil {
			return nil, errors.New("openai configuration is required when the openai provider is selected")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: cfg.OpenAI.APIKeyFile,
			Env:  "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}

		return openai.NewClient(apiKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger)
	case "gemini":
		if cfg.Gemini == nil {
			return nil, errors.New("gemini configuration is required when the gemini provider is selected")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		return gemini.NewClient(ctx, apiKey, cfg.Gemini.Model, logger)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}
}

func newMQ(ctx context.Context, cfg *QueueConfig) (mq.MQ, error) {
	q, err := kafka.NewMQ(cfg.Network, cfg.Addresses)
	if err != nil {
		return nil, err
	}

	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = 1
	}

	if err := q.CreateTopic(ctx, event.ScoreRequestsTopic, partitions); err != nil {
		return nil, fmt.Errorf("creating topic %s: %w", event.ScoreRequestsTopic, err)
	}

	return q, nil
}
