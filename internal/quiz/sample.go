package quiz

import "time"

const SampleSetID = "physics-basics"

// SampleQuestionSet returns the bundled physics quiz. Correct answers are [0, 2, 0].
func SampleQuestionSet() QuestionSet {
	return QuestionSet{
		SetID:     SampleSetID,
		Title:     "Physics Basics",
		Source:    SourceBuiltin,
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Questions: []Question{
			NewQuestion(
				"1",
				"What is the first law of thermodynamics?",
				[]string{
					"Energy cannot be created or destroyed",
					"Entropy always increases",
					"Heat flows from hot to cold",
					"Work equals force times distance",
				},
				0,
				"The first law of thermodynamics states that energy cannot be created or destroyed, only transformed from one form to another.",
			),
			NewQuestion(
				"2",
				"Which of the following is a vector quantity?",
				[]string{"Mass", "Temperature", "Velocity", "Energy"},
				2,
				"Velocity is a vector quantity because it has both magnitude and direction, unlike scalar quantities like mass, temperature, and energy.",
			),
			NewQuestion(
				"3",
				"What is the speed of light in a vacuum?",
				[]string{"3 × 10⁸ m/s", "3 × 10⁶ m/s", "3 × 10⁷ m/s", "3 × 10⁹ m/s"},
				0,
				"The speed of light in a vacuum is approximately 3 × 10⁸ meters per second, which is a fundamental constant in physics.",
			),
		},
	}
}
