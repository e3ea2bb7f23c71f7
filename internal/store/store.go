// Package store persists match results into Redis, one hash per
// (offer, profile) pair.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	fieldOfferID     = "offerId"
	fieldProfileID   = "profileId"
	fieldCandidateID = "candidateId"
	fieldDetails     = "openAiMatchDetails"
	fieldScore       = "totalMatchScoreAdvanced"
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"
)

// Record mirrors the persisted hash for one (offer, profile) pair.
type Record struct {
	OfferID     string
	ProfileID   string
	CandidateID string
	Details     json.RawMessage
	Score       decimal.Decimal
	CreatedAt   string
	UpdatedAt   string
	// Created reports whether this write created the record.
	Created bool
}

type Store struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func New(client *redis.Client, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Key returns the hash key for one (offer, profile) pair.
func Key(offerID, profileID string) string {
	return fmt.Sprintf("match:%s:%s", offerID, profileID)
}

// Upsert writes the match fields and updatedAt unconditionally and sets
// createdAt only when the record does not have one yet. Both commands run in
// a single MULTI/EXEC transaction, so the caller never observes a
// read-then-write race window.
func (s *Store) Upsert(ctx context.Context, offerID, profileID, candidateID string, details json.RawMessage, score decimal.Decimal) (*Record, error) {
	key := Key(offerID, profileID)
	now := s.now().UTC().Format(time.RFC3339Nano)
	fields := matchFields(offerID, profileID, candidateID, details, score, now)

	var (
		createdCmd   *redis.BoolCmd
		createdAtCmd *redis.StringCmd
	)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		createdCmd = pipe.HSetNX(ctx, key, fieldCreatedAt, now)
		createdAtCmd = pipe.HGet(ctx, key, fieldCreatedAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert match record %s: %w", key, err)
	}

	record := &Record{
		OfferID:     offerID,
		ProfileID:   profileID,
		CandidateID: candidateID,
		Details:     details,
		Score:       score,
		CreatedAt:   createdAtCmd.Val(),
		UpdatedAt:   now,
		Created:     createdCmd.Val(),
	}

	s.logger.Debug("match record written",
		zap.String("key", key),
		zap.String("score", score.StringFixed(2)),
		zap.Bool("created", record.Created),
	)

	return record, nil
}

// matchFields builds the unconditionally written hash fields. createdAt is
// deliberately absent: it is set through HSETNX only.
func matchFields(offerID, profileID, candidateID string, details json.RawMessage, score decimal.Decimal, now string) map[string]any {
	return map[string]any{
		fieldOfferID:     offerID,
		fieldProfileID:   profileID,
		fieldCandidateID: candidateID,
		fieldDetails:     string(details),
		fieldScore:       score.StringFixed(2),
		fieldUpdatedAt:   now,
	}
}
