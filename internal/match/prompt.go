// Package match holds the core scoring contract: the deterministic
// evaluation prompt, the scoring weights, and the parsing and normalization
// of the evaluator's response.
package match

import (
	"encoding/json"
	"strings"

	_ "embed"
)

//go:embed prompt.md
var promptTemplate string

// BuildPrompt renders the evaluation instruction for one (offer, profile)
// pair. It is a pure function of its inputs: the two documents are embedded
// verbatim and the weight percentages are rendered exactly as configured.
func BuildPrompt(offer, profile json.RawMessage, weights Weights) string {
	replacer := strings.NewReplacer(
		"{{SKILLS_WEIGHT}}", percent(weights.Skills),
		"{{EXPERIENCE_WEIGHT}}", percent(weights.Experience),
		"{{EDUCATION_WEIGHT}}", percent(weights.Education),
		"{{LANGUAGE_WEIGHT}}", percent(weights.Language),
		"{{LOCATION_WEIGHT}}", percent(weights.Location),
		"{{TITLE_WEIGHT}}", percent(weights.Title),
		"{{PROFILE_JSON}}", string(profile),
		"{{OFFER_JSON}}", string(offer),
	)

	return replacer.Replace(promptTemplate)
}
