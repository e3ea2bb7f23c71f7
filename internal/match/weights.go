package match

import (
	"fmt"
	"math"
	"strconv"
)

// Weights are the relative contributions of each scoring dimension to the
// final score. They must sum to 1.
type Weights struct {
	Skills     float64 `mapstructure:"skills"`
	Experience float64 `mapstructure:"experience"`
	Education  float64 `mapstructure:"education"`
	Language   float64 `mapstructure:"language"`
	Location   float64 `mapstructure:"location"`
	Title      float64 `mapstructure:"title"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Skills:     0.40,
		Experience: 0.30,
		Education:  0.10,
		Language:   0.10,
		Location:   0.05,
		Title:      0.05,
	}
}

func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		"skills":     w.Skills,
		"experience": w.Experience,
		"education":  w.Education,
		"language":   w.Language,
		"location":   w.Location,
		"title":      w.Title,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("weight %s must be between 0 and 1, got %v", name, value)
		}
	}

	sum := w.Skills + w.Experience + w.Education + w.Language + w.Location + w.Title
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %v", sum)
	}

	return nil
}

// percent renders a weight as the percentage embedded into the prompt,
// without a trailing fraction for whole numbers.
func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', -1, 64)
}
