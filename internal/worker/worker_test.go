package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jobsourcing/match-scorer/internal/ai"
	"github.com/jobsourcing/match-scorer/internal/match"
	"github.com/jobsourcing/match-scorer/internal/store"
)

const validEvaluation = `{
	"skills_match": {"score": 80, "matched": ["Go"], "missing": ["Rust"]},
	"experience_match": {"score": 70, "matched": ["5 years backend"], "missing": []},
	"education_match": {"score": 60, "matched": ["BSc"], "missing": []},
	"language_match": {"score": 90, "matched": ["English"], "missing": []},
	"location_match": {"score": 100, "matched": ["Paris"], "missing": []},
	"profile_title_match": {"score": 50, "matched": ["Backend Developer"], "missing": []},
	"final_score": 72,
	"reasoning": "Good overall fit.",
	"red_flags": {"Rust": "not present in the profile"},
	"estimated_seniority": "Senior",
	"growth_potential": "High",
	"recommended_training": ["Rust"]
}`

type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) Token(_ context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

type stubFetcher struct {
	offer      json.RawMessage
	profile    json.RawMessage
	offerErr   error
	profileErr error

	offerCalls   int
	profileCalls int
	lastToken    string
}

func (s *stubFetcher) FetchOffer(_ context.Context, token, _ string) (json.RawMessage, error) {
	s.offerCalls++
	s.lastToken = token
	if s.offerErr != nil {
		return nil, s.offerErr
	}
	return s.offer, nil
}

func (s *stubFetcher) FetchProfile(_ context.Context, token, _, _ string) (json.RawMessage, error) {
	s.profileCalls++
	s.lastToken = token
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

type stubGenerator struct {
	response string
	err      error

	calls      int
	lastSystem string
	lastUser   string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

type stubStore struct {
	err   error
	calls int

	lastOfferID     string
	lastProfileID   string
	lastCandidateID string
	lastDetails     json.RawMessage
	lastScore       decimal.Decimal
}

func (s *stubStore) Upsert(_ context.Context, offerID, profileID, candidateID string, details json.RawMessage, score decimal.Decimal) (*store.Record, error) {
	s.calls++
	s.lastOfferID = offerID
	s.lastProfileID = profileID
	s.lastCandidateID = candidateID
	s.lastDetails = details
	s.lastScore = score
	if s.err != nil {
		return nil, s.err
	}
	return &store.Record{
		OfferID:     offerID,
		ProfileID:   profileID,
		CandidateID: candidateID,
		Details:     details,
		Score:       score,
		Created:     true,
	}, nil
}

type fixture struct {
	tokens    *stubTokens
	fetcher   *stubFetcher
	generator *stubGenerator
	store     *stubStore
	worker    *Worker
}

func newFixture() *fixture {
	tokens := &stubTokens{token: "token-1"}
	fetcher := &stubFetcher{
		offer:   json.RawMessage(`{"title": "Go Developer"}`),
		profile: json.RawMessage(`{"resume": "Go services since 2015."}`),
	}
	generator := &stubGenerator{response: validEvaluation}
	st := &stubStore{}

	w := New(match.DefaultWeights(), &Deps{
		Tokens:    tokens,
		Fetcher:   fetcher,
		Generator: generator,
		Store:     st,
		Logger:    zap.NewNop(),
	})

	return &fixture{tokens: tokens, fetcher: fetcher, generator: generator, store: st, worker: w}
}

func TestHandleScoresAndPersists(t *testing.T) {
	f := newFixture()

	resp := f.worker.Handle(context.Background(), []byte(`{"offerId": "O1", "profileId": "P1", "candidateId": "C1"}`))

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, resp.Body)
	}

	if f.store.lastOfferID != "O1" || f.store.lastProfileID != "P1" || f.store.lastCandidateID != "C1" {
		t.Fatalf("unexpected store identifiers: %s/%s/%s", f.store.lastOfferID, f.store.lastProfileID, f.store.lastCandidateID)
	}

	if got := f.store.lastScore.StringFixed(2); got != "72.00" {
		t.Fatalf("expected score 72.00, got %s", got)
	}

	if strings.Contains(string(f.store.lastDetails), "final_score") {
		t.Fatalf("expected final_score to be stripped from details: %s", f.store.lastDetails)
	}

	if f.generator.lastSystem != ai.SystemPrompt {
		t.Fatalf("unexpected system prompt: %q", f.generator.lastSystem)
	}

	if !strings.Contains(f.generator.lastUser, `{"title": "Go Developer"}`) {
		t.Fatalf("expected offer document in the rendered prompt")
	}

	if f.fetcher.lastToken != "token-1" {
		t.Fatalf("expected bearer token to reach the fetcher, got %q", f.fetcher.lastToken)
	}
}

func TestHandleReportsAllMissingFields(t *testing.T) {
	f := newFixture()

	resp := f.worker.Handle(context.Background(), []byte(`{"profileId": "P1"}`))

	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}

	for _, field := range []string{"offerId", "candidateId"} {
		if !strings.Contains(body["error"], field) {
			t.Fatalf("expected %q in the error message, got %q", field, body["error"])
		}
	}

	if strings.Contains(body["error"], "profileId") {
		t.Fatalf("profileId was present and must not be reported: %q", body["error"])
	}

	if f.tokens.calls != 0 || f.fetcher.offerCalls != 0 || f.store.calls != 0 {
		t.Fatal("expected no collaborator calls on validation failure")
	}
}

func TestHandleShortCircuitsOnEmptyDocument(t *testing.T) {
	f := newFixture()
	f.fetcher.offer = json.RawMessage(`{}`)

	resp := f.worker.Handle(context.Background(), []byte(`{"offerId": "O1", "profileId": "P1", "candidateId": "C1"}`))

	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	if !strings.Contains(resp.Body, "Missing required fields") {
		t.Fatalf("unexpected body: %q", resp.Body)
	}

	if f.generator.calls != 0 {
		t.Fatal("expected the evaluator not to be called for empty documents")
	}

	if f.store.calls != 0 {
		t.Fatal("expected no store write for empty documents")
	}
}

func TestHandleFailsOnMalformedEvaluation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
	}{
		{name: "plain text", response: "I am sorry, I cannot produce JSON."},
		{name: "trailing prose", response: "{\"final_score\": 55, \"reasoning\": \"ok\"}\nHere is my explanation of the score."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.generator.response = tc.response

			resp := f.worker.Handle(context.Background(), []byte(`{"offerId": "O1", "profileId": "P1", "candidateId": "C1"}`))

			if resp.StatusCode != 500 {
				t.Fatalf("expected 500, got %d", resp.StatusCode)
			}

			if !strings.HasPrefix(resp.Body, "Error: ") {
				t.Fatalf("unexpected body: %q", resp.Body)
			}

			if f.store.calls != 0 {
				t.Fatal("expected no store write for a malformed evaluation")
			}
		})
	}
}

func TestHandleDefaultsInvalidScoreToZero(t *testing.T) {
	f := newFixture()
	f.generator.response = `{"final_score": "N/A", "reasoning": "model refused to commit"}`

	resp := f.worker.Handle(context.Background(), []byte(`{"offerId": "O1", "profileId": "P1", "candidateId": "C1"}`))

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, resp.Body)
	}

	if got := f.store.lastScore.StringFixed(2); got != "0.00" {
		t.Fatalf("expected score 0.00, got %s", got)
	}
}

func TestHandleMapsCollaboratorFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(f *fixture)
		noStore bool
	}{
		{
			name:    "auth failure",
			mutate:  func(f *fixture) { f.tokens.err = errors.New("identity provider down") },
			noStore: true,
		},
		{
			name:    "offer fetch failure",
			mutate:  func(f *fixture) { f.fetcher.offerErr = errors.New("bad status: 502 Bad Gateway") },
			noStore: true,
		},
		{
			name:    "profile fetch failure",
			mutate:  func(f *fixture) { f.fetcher.profileErr = errors.New("bad status: 404 Not Found") },
			noStore: true,
		},
		{
			name:   "storage failure",
			mutate: func(f *fixture) { f.store.err = errors.New("redis: connection refused") },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			tc.mutate(f)

			resp := f.worker.Handle(context.Background(), []byte(`{"offerId": "O1", "profileId": "P1", "candidateId": "C1"}`))

			if resp.StatusCode != 500 {
				t.Fatalf("expected 500, got %d", resp.StatusCode)
			}

			if !strings.HasPrefix(resp.Body, "Error: ") {
				t.Fatalf("unexpected body: %q", resp.Body)
			}

			if tc.noStore && f.store.calls != 0 {
				t.Fatal("expected no store write")
			}
		})
	}
}

func TestHandleFailsOnUnparseableBody(t *testing.T) {
	f := newFixture()

	resp := f.worker.Handle(context.Background(), []byte("not json"))

	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	if f.tokens.calls != 0 {
		t.Fatal("expected no collaborator calls for an unparseable body")
	}
}
