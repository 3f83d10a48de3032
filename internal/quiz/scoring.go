package quiz

import "time"

const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
	GradeF = "F"
)

// Score returns round(100*correct/total) as an integer percentage.
// Halves round up, so 1/8 (12.5%) scores 13.
func Score(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	if correct > total {
		correct = total
	}
	return roundHalfUp(int64(100*correct), int64(total))
}

// Grade maps a score to a letter; each threshold is inclusive.
func Grade(score int) string {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// ElapsedMinutes rounds the wall-clock duration between start and end to whole minutes.
func ElapsedMinutes(start, end time.Time) int {
	if start.IsZero() || !end.After(start) {
		return 0
	}
	return roundHalfUp(end.Sub(start).Milliseconds(), int64(time.Minute/time.Millisecond))
}

// roundHalfUp divides two non-negative integers and rounds .5 up.
func roundHalfUp(numerator, denominator int64) int {
	return int((2*numerator + denominator) / (2 * denominator))
}
