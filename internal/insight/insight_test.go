package insight

import "testing"

func TestRuleOrdering(t *testing.T) {
	tests := []struct {
		name    string
		minutes float64
		steps   int
		want    Category
	}{
		{"high work low steps", 200, 1000, CategoryWorkout},
		{"low work high steps", 30, 9000, CategoryProductivity},
		{"balanced moderate both", 150, 6000, CategoryBalance},
		{"very high work alone", 300, 4000, CategoryWorkout},
		{"very high steps alone", 90, 12000, CategoryBalance},
		{"nothing notable", 30, 2000, CategoryBalance},
		{"zero day", 0, 0, CategoryBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.minutes, tt.steps)
			if got.Category != tt.want {
				t.Fatalf("Generate(%f, %d) category = %s, want %s",
					tt.minutes, tt.steps, got.Category, tt.want)
			}
			if got.Text == "" {
				t.Fatalf("Generate(%f, %d) produced empty text", tt.minutes, tt.steps)
			}
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	// 300 minutes and 1000 steps matches both the high-work/low-steps
	// rule and the very-high-work rule; the earlier one must win.
	got := Generate(300, 1000)
	if got.Category != CategoryWorkout {
		t.Fatalf("expected workout, got %s", got.Category)
	}
	want := "You've worked for 5.0 hours but only taken 1000 steps. Consider taking a short walk!"
	if got.Text != want {
		t.Fatalf("expected first rule's text, got %q", got.Text)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := Generate(150, 6000)
	for i := 0; i < 10; i++ {
		if got := Generate(150, 6000); got != first {
			t.Fatalf("generation not deterministic: %+v != %+v", got, first)
		}
	}
}

func TestHoursRoundedToOneDecimal(t *testing.T) {
	// 185 minutes is 3.08 hours; rounded to 3.1 it clears the >3
	// threshold.
	got := Generate(185, 1000)
	if got.Category != CategoryWorkout {
		t.Fatalf("expected workout at 3.1 rounded hours, got %s", got.Category)
	}

	// 179 minutes rounds to 3.0, which does not clear >3.
	got = Generate(179, 1000)
	if got.Category == CategoryWorkout {
		t.Fatalf("expected 3.0 rounded hours to miss the >3 threshold")
	}
}
