package match

// Label buckets a match score. Each bucket includes its lower bound.
func Label(score float64) string {
	switch {
	case score >= 90:
		return "exceptional"
	case score >= 85:
		return "excellent"
	case score >= 75:
		return "very good"
	case score >= 65:
		return "good"
	default:
		return "decent"
	}
}
