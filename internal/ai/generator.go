package ai

import "context"

// SystemPrompt frames the evaluator for every provider.
const SystemPrompt = "You are an expert recruitment assistant."

// Generator sends a single-turn conversation to an LLM completion endpoint
// and returns the raw text of the first response.
type Generator interface {
	GenerateContent(ctx context.Context, system, user string) (string, error)
	Model() string
}
