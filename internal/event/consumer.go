package event

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ecodeclub/mq-api"
	"go.uber.org/zap"

	"github.com/jobsourcing/match-scorer/internal/worker"
)

// Handler processes one message body and reports the outcome. It never
// fails outright: every error is folded into the response, so the delivery
// platform does not see a crash and does not redeliver.
type Handler interface {
	Handle(ctx context.Context, body []byte) worker.Response
}

type ScoreRequestedConsumer struct {
	handler  Handler
	consumer mq.Consumer
	logger   *zap.Logger
}

func NewScoreRequestedConsumer(handler Handler, q mq.MQ, groupID string, logger *zap.Logger) (*ScoreRequestedConsumer, error) {
	consumer, err := q.Consumer(ScoreRequestsTopic, groupID)
	if err != nil {
		return nil, err
	}

	return &ScoreRequestedConsumer{
		handler:  handler,
		consumer: consumer,
		logger:   logger,
	}, nil
}

// Consume pulls one message and hands its body to the handler.
func (c *ScoreRequestedConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consuming score request: %w", err)
	}

	resp := c.handler.Handle(ctx, msg.Value)

	switch resp.StatusCode {
	case http.StatusOK:
		c.logger.Debug("score request processed", zap.Int("status_code", resp.StatusCode))
	default:
		c.logger.Warn("score request rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", resp.Body),
		)
	}

	return nil
}

func (c *ScoreRequestedConsumer) Start(ctx context.Context) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := c.Consume(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("consuming score requests", zap.Error(err))
			}
		}
	}()
}

func (c *ScoreRequestedConsumer) Stop(_ context.Context) error {
	return c.consumer.Close()
}
