// Package insight turns one day of accounted work time and the latest
// step count into a categorized suggestion. Generation is a pure
// function: rules live in a fixed ordered table and the first match
// wins, so a given input pair always yields the same insight.
package insight

import (
	"fmt"
	"math"
)

// Category classifies an insight.
type Category string

const (
	// CategoryWorkout suggests moving more.
	CategoryWorkout Category = "workout"
	// CategoryProductivity suggests more focused work time.
	CategoryProductivity Category = "productivity"
	// CategoryBalance acknowledges, or nudges toward, a balanced day.
	CategoryBalance Category = "balance"
)

// Insight is the generated suggestion.
type Insight struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

// rule is one row of the decision table. Rules are evaluated top to
// bottom; order is part of the contract.
type rule struct {
	matches func(hours float64, steps int) bool
	build   func(hours float64, steps int) Insight
}

var rules = []rule{
	{
		matches: func(hours float64, steps int) bool { return hours > 3 && steps < 3000 },
		build: func(hours float64, steps int) Insight {
			return Insight{
				Category: CategoryWorkout,
				Text: fmt.Sprintf("You've worked for %.1f hours but only taken %d steps. Consider taking a short walk!",
					hours, steps),
			}
		},
	},
	{
		matches: func(hours float64, steps int) bool { return hours < 1 && steps > 8000 },
		build: func(hours float64, steps int) Insight {
			return Insight{
				Category: CategoryProductivity,
				Text: fmt.Sprintf("Great job on your %d steps today! Consider balancing with some focused work time.",
					steps),
			}
		},
	},
	{
		matches: func(hours float64, steps int) bool { return hours > 2 && steps > 5000 },
		build: func(hours float64, steps int) Insight {
			return Insight{
				Category: CategoryBalance,
				Text: fmt.Sprintf("Excellent balance! You've worked for %.1f hours and taken %d steps. Keep it up!",
					hours, steps),
			}
		},
	},
	{
		matches: func(hours float64, steps int) bool { return hours > 4 },
		build: func(hours float64, steps int) Insight {
			return Insight{
				Category: CategoryWorkout,
				Text: fmt.Sprintf("You've been working for %.1f hours. Remember to take short breaks and move around!",
					hours),
			}
		},
	},
	{
		matches: func(hours float64, steps int) bool { return steps > 10000 },
		build: func(hours float64, steps int) Insight {
			return Insight{
				Category: CategoryBalance,
				Text: fmt.Sprintf("Impressive! You've taken %d steps today. That's great for your health!",
					steps),
			}
		},
	},
}

var fallback = Insight{
	Category: CategoryBalance,
	Text:     "Try to balance your day with both productive work and regular movement.",
}

// Generate evaluates the rule table for the given accounted minutes
// and step count. Minutes are converted to hours rounded to one
// decimal place before any threshold comparison.
func Generate(todayMinutes float64, steps int) Insight {
	hours := math.Round(todayMinutes/6) / 10

	for _, r := range rules {
		if r.matches(hours, steps) {
			return r.build(hours, steps)
		}
	}
	return fallback
}
