package detection

import (
	"farmguardian/internal/model"
	"strings"
)

// AnimalLabels is the allow-list of label substrings accepted from the classifier.
var AnimalLabels = []string{"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe"}

// IsAnimal reports whether label case-insensitively contains one of the allow-listed substrings.
func IsAnimal(label string) bool {
	lower := strings.ToLower(label)
	for _, animal := range AnimalLabels {
		if strings.Contains(lower, animal) {
			return true
		}
	}
	return false
}

// FilterAnimals keeps the results whose label passes IsAnimal, preserving order.
func FilterAnimals(results []model.RawResult) []model.RawResult {
	kept := make([]model.RawResult, 0, len(results))
	for _, r := range results {
		if IsAnimal(r.Label) {
			kept = append(kept, r)
		}
	}
	return kept
}
