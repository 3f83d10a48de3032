package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html"
	"math/rand"
	"strings"
	"time"

	"studybuddy/internal/opentdb"
)

// OptionCount is fixed: every question offers exactly four choices.
const OptionCount = 4

const (
	SourceBuiltin = "builtin"
	SourceOpenTDB = "opentdb"
)

type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// PublicQuestion is the part of a question that is safe to show before it is answered.
type PublicQuestion struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question"`
	Options    []Option `json:"options"`
}

type Question struct {
	PublicQuestion
	CorrectIndex int    `json:"correct_index"`
	Explanation  string `json:"explanation"`
}

type QuestionSet struct {
	SetID     string     `json:"set_id"`
	Title     string     `json:"title"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	Questions []Question `json:"questions"`
}

// NewQuestion builds a question from plain option strings, assigning letters A-D.
func NewQuestion(id, prompt string, options []string, correctIndex int, explanation string) Question {
	built := make([]Option, len(options))
	for idx, text := range options {
		built[idx] = Option{Letter: letterForIndex(idx), Text: text}
	}

	question := Question{
		PublicQuestion: PublicQuestion{
			QuestionID: id,
			Question:   prompt,
			Options:    built,
		},
		CorrectIndex: correctIndex,
		Explanation:  explanation,
	}
	if question.QuestionID == "" {
		question.QuestionID = MakeQuestionID(question)
	}
	return question
}

// BuildQuestions converts OpenTDB multiple-choice payloads into four-option
// questions. Entries that do not carry exactly three distractors are dropped.
func BuildQuestions(raw []opentdb.RawQuestion) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers) != OptionCount-1 {
			continue
		}
		question := buildQuestion(item)
		question.QuestionID = MakeQuestionID(question)
		questions = append(questions, question)
	}
	return questions
}

func ToPublicQuestions(questions []Question) []PublicQuestion {
	public := make([]PublicQuestion, 0, len(questions))
	for _, question := range questions {
		public = append(public, question.PublicQuestion)
	}
	return public
}

// Validate checks the fixed four-option format and the answer key.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question %q has no prompt", ErrInvalidQuestion, q.QuestionID)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: question %q has %d options, want %d", ErrInvalidQuestion, q.QuestionID, len(q.Options), OptionCount)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return fmt.Errorf("%w: question %q has correct index %d", ErrInvalidQuestion, q.QuestionID, q.CorrectIndex)
	}
	return nil
}

// Validate rejects empty sets so a session can never complete without questions.
func (s QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return ErrEmptyQuestionSet
	}
	for _, question := range s.Questions {
		if err := question.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func MakeQuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Question)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option.Text)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:6])
}

// NormalizeLetter maps "a".."d" (any case, surrounding space) to an option index.
func NormalizeLetter(answer string) (int, bool) {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 {
		return -1, false
	}
	index := int(letter[0] - 'A')
	if index < 0 || index >= OptionCount {
		return -1, false
	}
	return index, true
}

func letterForIndex(idx int) string {
	return string(rune('A' + idx))
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{
			text:      html.UnescapeString(incorrect),
			isCorrect: false,
		})
	}

	correctText := html.UnescapeString(raw.CorrectAnswer)
	choices = append(choices, choice{
		text:      correctText,
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]Option, len(choices))
	correctIndex := -1

	for idx, candidate := range choices {
		options[idx] = Option{
			Letter: letterForIndex(idx),
			Text:   candidate.text,
		}
		if candidate.isCorrect {
			correctIndex = idx
		}
	}

	explanation := "The correct answer is " + correctText + "."
	if category := html.UnescapeString(raw.Category); category != "" {
		explanation += " (" + category + ")"
	}

	return Question{
		PublicQuestion: PublicQuestion{
			Question: html.UnescapeString(raw.Question),
			Options:  options,
		},
		CorrectIndex: correctIndex,
		Explanation:  explanation,
	}
}
