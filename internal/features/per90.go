package features

// MinMinutesPer90 is the playing time below which per-90 rates are floored
// to zero.
const MinMinutesPer90 = 270

// RatePer90 returns total scaled to a 90-minute basis, or 0 when fewer than
// MinMinutesPer90 minutes have been played.
func RatePer90(total, minutes float64) float64 {
	if minutes < MinMinutesPer90 {
		return 0
	}
	return 90 * total / minutes
}
