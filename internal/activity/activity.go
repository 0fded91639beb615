// Package activity computes the per-asset activity score and its
// distribution bucket. The weighting and the threshold ladder are product
// constants carried over verbatim; they are not derived from data.
package activity

// Score blends payment and trade counts. Trades count half.
func Score(payments, trades int64) float64 {
	return float64(payments) + 0.5*float64(trades)
}

// thresholds is the fixed distribution ladder. A value lands in the bucket
// of the greatest threshold it reaches.
var thresholds = []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000, 100000}

// Bucket returns the distribution bucket index for a score, 0 for scores
// below the first threshold, len(thresholds) for scores at or above the
// last.
func Bucket(score float64) int {
	for i, t := range thresholds {
		if score < t {
			return i
		}
	}
	return len(thresholds)
}
