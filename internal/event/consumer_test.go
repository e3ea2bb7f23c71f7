package event

import (
	"context"
	"errors"
	"testing"

	"github.com/ecodeclub/mq-api"
	"go.uber.org/zap"

	"github.com/jobsourcing/match-scorer/internal/worker"
)

type stubHandler struct {
	resp     worker.Response
	lastBody []byte
	calls    int
}

func (s *stubHandler) Handle(_ context.Context, body []byte) worker.Response {
	s.calls++
	s.lastBody = body
	return s.resp
}

type stubMQConsumer struct {
	msg    *mq.Message
	err    error
	closed bool
}

func (s *stubMQConsumer) Consume(_ context.Context) (*mq.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.msg, nil
}

func (s *stubMQConsumer) ConsumeChan(_ context.Context) (<-chan *mq.Message, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMQConsumer) Close() error {
	s.closed = true
	return nil
}

func TestConsumeForwardsMessageBody(t *testing.T) {
	body := []byte(`{"offerId": "O1", "profileId": "P1", "candidateId": "C1"}`)
	handler := &stubHandler{resp: worker.Response{StatusCode: 200}}
	consumer := &ScoreRequestedConsumer{
		handler:  handler,
		consumer: &stubMQConsumer{msg: &mq.Message{Value: body}},
		logger:   zap.NewNop(),
	}

	if err := consumer.Consume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if handler.calls != 1 {
		t.Fatalf("expected one handler call, got %d", handler.calls)
	}

	if string(handler.lastBody) != string(body) {
		t.Fatalf("unexpected body: %s", handler.lastBody)
	}
}

func TestConsumeDoesNotFailOnHandlerRejection(t *testing.T) {
	handler := &stubHandler{resp: worker.Response{StatusCode: 500, Body: "Error: upstream down"}}
	consumer := &ScoreRequestedConsumer{
		handler:  handler,
		consumer: &stubMQConsumer{msg: &mq.Message{Value: []byte(`{}`)}},
		logger:   zap.NewNop(),
	}

	// A rejected message is logged, not redelivered.
	if err := consumer.Consume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConsumeWrapsConsumerErrors(t *testing.T) {
	handler := &stubHandler{}
	consumer := &ScoreRequestedConsumer{
		handler:  handler,
		consumer: &stubMQConsumer{err: errors.New("broker unavailable")},
		logger:   zap.NewNop(),
	}

	if err := consumer.Consume(context.Background()); err == nil {
		t.Fatal("expected error when the broker is unavailable")
	}

	if handler.calls != 0 {
		t.Fatal("expected the handler not to be called")
	}
}

func TestStopClosesConsumer(t *testing.T) {
	mqConsumer := &stubMQConsumer{}
	consumer := &ScoreRequestedConsumer{
		handler:  &stubHandler{},
		consumer: mqConsumer,
		logger:   zap.NewNop(),
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !mqConsumer.closed {
		t.Fatal("expected the underlying consumer to be closed")
	}
}
