// Package event connects the worker to the message-delivery platform.
package event

// ScoreRequestsTopic carries one scoring request per message.
const ScoreRequestsTopic = "match_score_requests"

// ScoreRequested asks the worker to score one (offer, profile) pair.
type ScoreRequested struct {
	OfferID     string `json:"offerId"`
	ProfileID   string `json:"profileId"`
	CandidateID string `json:"candidateId"`
}
