package cmd

import (
	"context"
	"log"

	"github.com/jobsourcing/match-scorer/internal/event"
	"github.com/jobsourcing/match-scorer/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Publish a scoring request for one (offer, profile) pair",
	Run: func(cmd *cobra.Command, _ []string) {
		send(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("offer-id", "", "identifier of the job offer")
	sendCmd.Flags().String("profile-id", "", "identifier of the candidate profile")
	sendCmd.Flags().String("candidate-id", "", "identifier of the candidate")
	sendCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation before sending")

	sendCmd.MarkFlagRequired("offer-id")
	sendCmd.MarkFlagRequired("profile-id")
	sendCmd.MarkFlagRequired("candidate-id")
}

func send(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Queue == nil || len(config.Queue.Addresses) == 0 {
		logger.Fatal("queue addresses are required under queue.addresses")
	}

	evt := event.ScoreRequested{
		OfferID:     cmd.Flag("offer-id").Value.String(),
		ProfileID:   cmd.Flag("profile-id").Value.String(),
		CandidateID: cmd.Flag("candidate-id").Value.String(),
	}

	if cmd.Flag("auto-aprove").Value.String() == "false" {
		prompt := promptui.Select{
			Label: "Send the scoring request?",
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	q, err := newMQ(ctx, config.Queue)
	if err != nil {
		logger.Fatal("connecting to the message queue", zap.Error(err))
	}

	producer, err := event.NewScoreRequestedProducer(q)
	if err != nil {
		logger.Fatal("creating score request producer", zap.Error(err))
	}

	if err := producer.Produce(ctx, evt); err != nil {
		logger.Fatal("sending score request", zap.Error(err))
	}

	logger.Info("score request sent",
		zap.String("offer_id", evt.OfferID),
		zap.String("profile_id", evt.ProfileID),
		zap.String("candidate_id", evt.CandidateID),
	)
}
