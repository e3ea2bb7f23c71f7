// Package worker runs the scoring pipeline for a single inbound message:
// validate, authenticate, fetch the offer and profile documents, evaluate
// the match with an LLM, normalize the result and persist it.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jobsourcing/match-scorer/internal/ai"
	"github.com/jobsourcing/match-scorer/internal/gateway"
	"github.com/jobsourcing/match-scorer/internal/logger"
	"github.com/jobsourcing/match-scorer/internal/match"
	"github.com/jobsourcing/match-scorer/internal/store"
)

const defaultMaxLogLength = 200

// TokenSource provides a bearer token for the gateway calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// DocumentFetcher resolves the offer and profile identifiers into documents.
type DocumentFetcher interface {
	FetchOffer(ctx context.Context, token, offerID string) (json.RawMessage, error)
	FetchProfile(ctx context.Context, token, candidateID, profileID string) (json.RawMessage, error)
}

// ResultStore upserts a normalized match result.
type ResultStore interface {
	Upsert(ctx context.Context, offerID, profileID, candidateID string, details json.RawMessage, score decimal.Decimal) (*store.Record, error)
}

// Request is the inbound unit of work.
type Request struct {
	OfferID     string `json:"offerId"`
	ProfileID   string `json:"profileId"`
	CandidateID string `json:"candidateId"`
}

// Response is the uniform invocation outcome. Body carries a JSON error
// object for caller faults and a plain description for everything else.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body,omitempty"`
}

// Deps groups the collaborators of a Worker.
type Deps struct {
	Tokens    TokenSource
	Fetcher   DocumentFetcher
	Generator ai.Generator
	Store     ResultStore
	Logger    *zap.Logger
}

type Worker struct {
	tokens    TokenSource
	fetcher   DocumentFetcher
	generator ai.Generator
	store     ResultStore
	weights   match.Weights
	logger    *zap.Logger
	maxLogLen int
}

func New(weights match.Weights, deps *Deps) *Worker {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Worker{
		tokens:    deps.Tokens,
		fetcher:   deps.Fetcher,
		generator: deps.Generator,
		store:     deps.Store,
		weights:   weights,
		logger:    log,
		maxLogLen: defaultMaxLogLength,
	}
}

// Handle processes one inbound message body and always returns a response;
// failures never escape to the delivery platform.
func (w *Worker) Handle(ctx context.Context, body []byte) Response {
	if err := w.process(ctx, body); err != nil {
		var werr *Error
		if errors.As(err, &werr) {
			w.logger.Error("processing failed",
				zap.String("error_kind", werr.Kind.String()),
				zap.Error(err),
			)
			return responseFor(werr)
		}

		w.logger.Error("processing failed", zap.Error(err))
		return Response{StatusCode: 500, Body: "Error: " + err.Error()}
	}

	return Response{StatusCode: 200}
}

func (w *Worker) process(ctx context.Context, body []byte) error {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("decoding message body: %w", err)
	}

	if missing := req.missingFields(); len(missing) > 0 {
		return validationError(missing)
	}

	log := w.logger.With(logger.MatchFields(req.OfferID, req.ProfileID, req.CandidateID)...)

	token, err := w.tokens.Token(ctx)
	if err != nil {
		return newError(KindAuth, "acquiring access token", err)
	}

	offer, err := w.fetcher.FetchOffer(ctx, token, req.OfferID)
	if err != nil {
		return newError(KindUpstream, "fetching offer", err)
	}

	profile, err := w.fetcher.FetchProfile(ctx, token, req.CandidateID, req.ProfileID)
	if err != nil {
		return newError(KindUpstream, "fetching profile", err)
	}

	if gateway.IsEmptyDocument(offer) || gateway.IsEmptyDocument(profile) {
		log.Warn("empty offer or profile document, skipping evaluation")
		return emptyDocumentError()
	}

	prompt := match.BuildPrompt(offer, profile, w.weights)

	log.Debug("evaluation request",
		zap.String("model", w.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := w.generator.GenerateContent(ctx, ai.SystemPrompt, prompt)
	if err != nil {
		return newError(KindUpstream, "evaluating match", err)
	}

	result, err := match.ParseResult(raw)
	if err != nil {
		log.Error("evaluation response is not valid JSON",
			zap.String("response_preview", logger.TruncateForLog(raw, w.maxLogLen)),
		)
		return newError(KindMalformedEvaluation, "parsing evaluation response", err)
	}

	log.Debug("evaluation breakdown",
		zap.Float64("skills", result.Breakdown.Skills.Score),
		zap.Float64("experience", result.Breakdown.Experience.Score),
		zap.Float64("education", result.Breakdown.Education.Score),
		zap.Float64("language", result.Breakdown.Language.Score),
		zap.Float64("location", result.Breakdown.Location.Score),
		zap.Float64("title", result.Breakdown.Title.Score),
	)

	record, err := w.store.Upsert(ctx, req.OfferID, req.ProfileID, req.CandidateID, result.Details, result.Score)
	if err != nil {
		return newError(KindStorage, "persisting match result", err)
	}

	log.Info("match scored",
		zap.String("score", record.Score.StringFixed(2)),
		zap.Bool("created", record.Created),
	)

	return nil
}

func (r Request) missingFields() []string {
	var missing []string
	if r.OfferID == "" {
		missing = append(missing, "offerId")
	}
	if r.ProfileID == "" {
		missing = append(missing, "profileId")
	}
	if r.CandidateID == "" {
		missing = append(missing, "candidateId")
	}
	return missing
}

func responseFor(err *Error) Response {
	switch err.Kind {
	case KindValidation, KindEmptyDocument:
		body, _ := json.Marshal(map[string]string{"error": err.Message})
		return Response{StatusCode: 400, Body: string(body)}
	default:
		return Response{StatusCode: 500, Body: "Error: " + err.Error()}
	}
}
