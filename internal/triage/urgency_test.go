package triage

import "testing"

func TestClassifyUrgency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		score      float64
		engagement int
		want       Urgency
	}{
		{"very negative viral", -0.8, 150, UrgencyCritical},
		{"very negative quiet", -0.8, 50, UrgencyHigh},
		{"moderately negative notable", -0.5, 60, UrgencyHigh},
		{"moderately negative quiet", -0.5, 10, UrgencyMedium},
		{"mildly negative", -0.1, 0, UrgencyLow},
		{"positive viral", 0.9, 1000, UrgencyLow},
		{"boundary -0.7 is very negative band", -0.7, 150, UrgencyCritical},
		{"boundary -0.7 low engagement", -0.7, 100, UrgencyHigh},
		{"boundary -0.3 is moderate band", -0.3, 51, UrgencyHigh},
		{"boundary -0.3 low engagement", -0.3, 50, UrgencyMedium},
		{"just above -0.3", -0.29, 1000, UrgencyLow},
		{"zero score", 0, 0, UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyUrgency(tt.score, tt.engagement); got != tt.want {
				t.Errorf("ClassifyUrgency(%v, %d) = %s, want %s", tt.score, tt.engagement, got, tt.want)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusNew, StatusInProgress, StatusResolved, StatusIgnored} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{"", "open", "closed", "NEW"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}
