package game

import "time"

const (
	baseScore    = 1000
	movePenalty  = 50
	minimumScore = 100
)

// Score rates a finished game: 1000 points, minus 50 per move, minus one
// per whole elapsed second, never below 100.
func Score(moves int, elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	s := baseScore - moves*movePenalty - int(elapsed/time.Second)
	return min(max(s, minimumScore), baseScore)
}

// Grade maps a score onto a letter grade.
func Grade(score int) string {
	switch {
	case score >= 900:
		return "S"
	case score >= 700:
		return "A"
	case score >= 500:
		return "B"
	case score >= 300:
		return "C"
	default:
		return "D"
	}
}

// Efficiency describes a score in words.
func Efficiency(score int) string {
	switch {
	case score >= 700:
		return "very high"
	case score >= 500:
		return "high"
	default:
		return "normal"
	}
}
