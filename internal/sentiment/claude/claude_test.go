package claude

import (
	"testing"

	"github.com/linnemanlabs/pulse/internal/sentiment"
)

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantLabel sentiment.Label
		wantScore float64
		wantErr   bool
	}{
		{"plain json", `{"label":"NEGATIVE","confidence":0.92}`, sentiment.LabelNegative, 0.92, false},
		{"positive", `{"label":"POSITIVE","confidence":0.8}`, sentiment.LabelPositive, 0.8, false},
		{"neutral", `{"label":"NEUTRAL","confidence":0.55}`, sentiment.LabelNeutral, 0.55, false},
		{"lowercase label", `{"label":"negative","confidence":0.7}`, sentiment.LabelNegative, 0.7, false},
		{"fenced json", "```json\n{\"label\":\"NEGATIVE\",\"confidence\":0.9}\n```", sentiment.LabelNegative, 0.9, false},
		{"surrounding whitespace", "  {\"label\":\"POSITIVE\",\"confidence\":0.6}\n", sentiment.LabelPositive, 0.6, false},
		{"unknown label", `{"label":"MIXED","confidence":0.5}`, "", 0, true},
		{"confidence out of range", `{"label":"NEGATIVE","confidence":1.4}`, "", 0, true},
		{"not json", `the sentiment is negative`, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			label, score, err := parseVerdict(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseVerdict(%q) = (%s, %v), want error", tt.raw, label, score)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVerdict(%q): %v", tt.raw, err)
			}
			if label != tt.wantLabel {
				t.Errorf("label = %s, want %s", label, tt.wantLabel)
			}
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}
