package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the LLM provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the LLM model identifier.
	FieldModel = "ai_model"
	// FieldOfferID is the structured log field key for the job offer identifier.
	FieldOfferID = "offer_id"
	// FieldProfileID is the structured log field key for the candidate profile identifier.
	FieldProfileID = "profile_id"
	// FieldCandidateID is the structured log field key for the candidate identifier.
	FieldCandidateID = "candidate_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// MatchFields returns standard zap fields identifying a single match request.
// Empty values are ignored to keep log entries compact when information is missing.
func MatchFields(offerID, profileID, candidateID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldOfferID, Value: offerID},
		StringField{Key: FieldProfileID, Value: profileID},
		StringField{Key: FieldCandidateID, Value: candidateID},
	)
}

// ProviderFields returns standard zap fields that describe the LLM provider and model.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}
