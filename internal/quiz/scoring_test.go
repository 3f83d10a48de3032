package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{3, 3, 100},
		{2, 3, 67},
		{1, 3, 33},
		{0, 3, 0},
		{1, 8, 13},
		{7, 8, 88},
		{0, 0, 0},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, Score(tc.correct, tc.total), "Score(%d, %d)", tc.correct, tc.total)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	for total := 1; total <= 25; total++ {
		for correct := 0; correct <= total; correct++ {
			score := Score(correct, total)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	}
}

func TestGrade(t *testing.T) {
	cases := map[int]string{
		100: GradeA,
		95:  GradeA,
		90:  GradeA,
		89:  GradeB,
		82:  GradeB,
		80:  GradeB,
		75:  GradeC,
		70:  GradeC,
		67:  GradeD,
		65:  GradeD,
		60:  GradeD,
		59:  GradeF,
		40:  GradeF,
		0:   GradeF,
	}

	for score, want := range cases {
		assert.Equalf(t, want, Grade(score), "Grade(%d)", score)
	}
}

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ElapsedMinutes(start, start.Add(29*time.Second)))
	assert.Equal(t, 1, ElapsedMinutes(start, start.Add(30*time.Second)))
	assert.Equal(t, 12, ElapsedMinutes(start, start.Add(12*time.Minute+10*time.Second)))
	assert.Equal(t, 0, ElapsedMinutes(time.Time{}, start))
	assert.Equal(t, 0, ElapsedMinutes(start, start.Add(-time.Minute)))
}
