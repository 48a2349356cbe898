package policy

const (
	confidenceFloor   = 0.3
	confidenceCeiling = 0.95

	shortReplyTokens = 200
)

// Confidence computes the UX confidence signal shown next to the reply.
// It is a heuristic over response metadata and trust, not a calibrated
// probability. Given identical inputs it reproduces bit-for-bit.
func Confidence(cached bool, tokensUsed int, trustScore float64) float64 {
	base := 0.7
	if cached {
		base += 0.2
	}
	if tokensUsed < shortReplyTokens {
		base += 0.1
	}

	score := base * (0.5 + 0.5*trustScore)

	if score < confidenceFloor {
		return confidenceFloor
	}
	if score > confidenceCeiling {
		return confidenceCeiling
	}
	return score
}
