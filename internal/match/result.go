package match

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

const finalScoreKey = "final_score"

// Result is the parsed and normalized evaluation produced by the LLM.
type Result struct {
	// Score is the extracted final score with exactly two fractional digits.
	Score decimal.Decimal
	// Details is the remaining evaluation object with the final score removed.
	Details json.RawMessage
	// Breakdown is the typed view of the per-dimension scores.
	Breakdown Breakdown
}

// Dimension is one scored axis of the evaluation.
type Dimension struct {
	Score   float64  `mapstructure:"score"`
	Matched []string `mapstructure:"matched"`
	Missing []string `mapstructure:"missing"`
}

// Breakdown carries the per-dimension scores of an evaluation.
type Breakdown struct {
	Skills     Dimension `mapstructure:"skills_match"`
	Experience Dimension `mapstructure:"experience_match"`
	Education  Dimension `mapstructure:"education_match"`
	Language   Dimension `mapstructure:"language_match"`
	Location   Dimension `mapstructure:"location_match"`
	Title      Dimension `mapstructure:"profile_title_match"`
}

// ParseResult parses the raw evaluator output as a JSON object and splits it
// into the normalized final score and the detail payload. A response that is
// not a JSON object is an error; a missing or non-numeric final score is not,
// it falls back to 0.00.
func ParseResult(raw string) (*Result, error) {
	cleaned := extractJSON(raw)

	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.UseNumber()

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse evaluation response: %w", err)
	}

	// Decode stops at the end of the first value; anything after it means
	// the response is not a single JSON object.
	if decoder.More() {
		return nil, fmt.Errorf("parse evaluation response: trailing data after JSON object")
	}

	score := normalizeScore(payload[finalScoreKey])
	delete(payload, finalScoreKey)

	details, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation details: %w", err)
	}

	return &Result{Score: score, Details: details, Breakdown: decodeBreakdown(payload)}, nil
}

// decodeBreakdown is best effort: a missing or oddly shaped dimension keeps
// its zero value.
func decodeBreakdown(payload map[string]any) Breakdown {
	var b Breakdown

	cfg := &mapstructure.DecoderConfig{
		Result:           &b,
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return b
	}

	_ = decoder.Decode(payload)

	return b
}

// normalizeScore converts the final score to a decimal with exactly two
// fractional digits, rounding half to even. Values that are absent, not
// numeric, or negative fall back to zero.
func normalizeScore(v any) decimal.Decimal {
	var raw string

	switch val := v.(type) {
	case json.Number:
		raw = val.String()
	case string:
		raw = strings.TrimSpace(val)
	default:
		return decimal.Zero
	}

	score, err := decimal.NewFromString(raw)
	if err != nil || score.IsNegative() {
		return decimal.Zero
	}

	return score.RoundBank(2)
}

// extractJSON strips a fenced code block some models wrap their JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
