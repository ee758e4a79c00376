package scoring

// Verbosize maps a distance score to a human-readable phrase. It
// touches no invariant of the kernel itself; it exists so a renderer
// has something to call without recomputing the bucketing.
func Verbosize(score float64) string {
	switch {
	case score == NoData:
		return "No data available"
	case score <= 0.05:
		return "Consistently voted for"
	case score <= 0.15:
		return "Almost always voted for"
	case score <= 0.4:
		return "Generally voted for"
	case score <= 0.6:
		return "Voted a mixture of for and against"
	case score <= 0.85:
		return "Generally voted against"
	case score <= 0.95:
		return "Almost always voted against"
	default:
		return "Consistently voted against"
	}
}
