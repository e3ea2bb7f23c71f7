package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ecodeclub/mq-api"
)

// ScoreRequestedProducer publishes scoring requests for the worker.
type ScoreRequestedProducer interface {
	Produce(ctx context.Context, evt ScoreRequested) error
}

type scoreRequestedProducer struct {
	producer mq.Producer
}

func NewScoreRequestedProducer(q mq.MQ) (ScoreRequestedProducer, error) {
	p, err := q.Producer(ScoreRequestsTopic)
	if err != nil {
		return nil, err
	}
	return &scoreRequestedProducer{producer: p}, nil
}

func (s *scoreRequestedProducer) Produce(ctx context.Context, evt ScoreRequested) error {
	data, err := json.Marshal(&evt)
	if err != nil {
		return fmt.Errorf("marshal score request: %w", err)
	}

	if _, err = s.producer.Produce(ctx, &mq.Message{Value: data}); err != nil {
		return fmt.Errorf("produce score request: %w", err)
	}

	return nil
}
