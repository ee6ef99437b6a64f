package triage

// Urgency bands. Each lower bound is inclusive: a score of exactly -0.7 is in
// the very-negative band, not the moderately-negative one.
const (
	veryNegative       = -0.7
	moderatelyNegative = -0.3

	viralEngagement   = 100
	notableEngagement = 50
)

// ClassifyUrgency maps a normalized sentiment score and an engagement count to
// an urgency tier. Pure and total: every input yields a tier, first matching
// band wins.
func ClassifyUrgency(score float64, engagement int) Urgency {
	switch {
	case score <= veryNegative:
		if engagement > viralEngagement {
			return UrgencyCritical
		}
		return UrgencyHigh
	case score <= moderatelyNegative:
		if engagement > notableEngagement {
			return UrgencyHigh
		}
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
