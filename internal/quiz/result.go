package quiz

import "time"

type AnswerReview struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex int    `json:"selected_index"`
	CorrectIndex  int    `json:"correct_index"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
}

type Result struct {
	ResultID         string         `json:"result_id"`
	SessionID        string         `json:"session_id"`
	SetID            string         `json:"set_id"`
	Title            string         `json:"title"`
	Score            int            `json:"score"`
	Grade            string         `json:"grade"`
	CorrectCount     int            `json:"correct_count"`
	TotalQuestions   int            `json:"total_questions"`
	TimeSpentMinutes int            `json:"time_spent_minutes"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      time.Time      `json:"completed_at"`
	Review           []AnswerReview `json:"review,omitempty"`
}

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	if r.Review != nil {
		r.Review = append([]AnswerReview(nil), r.Review...)
	}
	return r
}

// ProgressSummary backs the home dashboard.
type ProgressSummary struct {
	Greeting        string     `json:"greeting,omitempty"`
	StreakDays      int        `json:"streak_days"`
	QuizzesTaken    int        `json:"quizzes_taken"`
	AverageScore    int        `json:"average_score"`
	BestScore       int        `json:"best_score"`
	TotalMinutes    int        `json:"total_minutes"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}

func buildResult(session *session, completedAt time.Time) Result {
	review := make([]AnswerReview, 0, len(session.questions))
	correct := 0
	for idx, question := range session.questions {
		selected := session.answerLog[idx]
		isCorrect := selected == question.CorrectIndex
		if isCorrect {
			correct++
		}
		review = append(review, AnswerReview{
			QuestionID:    question.QuestionID,
			SelectedIndex: selected,
			CorrectIndex:  question.CorrectIndex,
			Correct:       isCorrect,
			Explanation:   question.Explanation,
		})
	}

	score := Score(correct, len(session.questions))
	return Result{
		ResultID:         session.newID(),
		SessionID:        session.id,
		SetID:            session.setID,
		Title:            session.title,
		Score:            score,
		Grade:            Grade(score),
		CorrectCount:     correct,
		TotalQuestions:   len(session.questions),
		TimeSpentMinutes: ElapsedMinutes(session.startedAt, completedAt),
		StartedAt:        session.startedAt,
		CompletedAt:      completedAt,
		Review:           review,
	}
}

// Summarize folds a result history into dashboard totals.
func Summarize(results []Result) ProgressSummary {
	summary := ProgressSummary{QuizzesTaken: len(results)}
	if len(results) == 0 {
		return summary
	}

	totalScore := 0
	for idx := range results {
		result := results[idx]
		totalScore += result.Score
		summary.TotalMinutes += result.TimeSpentMinutes
		if result.Score > summary.BestScore {
			summary.BestScore = result.Score
		}
		if summary.LastCompletedAt == nil || result.CompletedAt.After(*summary.LastCompletedAt) {
			completedAt := result.CompletedAt
			summary.LastCompletedAt = &completedAt
		}
	}
	summary.AverageScore = roundHalfUp(int64(totalScore), int64(len(results)))
	return summary
}

// SummarizeAt is Summarize plus the greeting and streak as seen at now.
func SummarizeAt(results []Result, now time.Time) ProgressSummary {
	summary := Summarize(results)
	summary.Greeting = Greeting(now)
	summary.StreakDays = StudyStreak(results, now)
	return summary
}

// Greeting picks the dashboard salutation from the hour of now.
func Greeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// StudyStreak counts consecutive calendar days, in now's location, with at
// least one completed quiz. The streak ends today, or yesterday when nothing
// has been completed yet today.
func StudyStreak(results []Result, now time.Time) int {
	loc := now.Location()
	days := make(map[int]struct{}, len(results))
	for _, result := range results {
		days[dayKey(result.CompletedAt.In(loc))] = struct{}{}
	}

	year, month, date := now.Date()
	day := time.Date(year, month, date, 12, 0, 0, 0, loc)
	if _, ok := days[dayKey(day)]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[dayKey(day)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func dayKey(t time.Time) int {
	year, month, day := t.Date()
	return year*10000 + int(month)*100 + day
}
