package enroll

import "math"

// QuizPassScore is the fixed passing threshold for quiz modules.
const QuizPassScore = 70

// QuizScore computes round(100 * correct / total); total must be > 0.
func QuizScore(correct, total int) int {
	return int(math.Round(100 * float64(correct) / float64(total)))
}

func QuizPassed(score int) bool { return score >= QuizPassScore }
