package httpapi

import (
	"time"

	"studybuddy/internal/appstate"
	"studybuddy/internal/quiz"
	"studybuddy/internal/study"
)

type questionSetSummary struct {
	SetID         string    `json:"set_id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type questionSetsResponse struct {
	Sets []questionSetSummary `json:"sets"`
}

// questionSetResponse never carries the answer key.
type questionSetResponse struct {
	questionSetSummary
	Questions []quiz.PublicQuestion `json:"questions"`
}

type importRequest struct {
	Title  string `json:"title"`
	Amount int    `json:"amount"`
}

type startSessionRequest struct {
	SetID string `json:"set_id"`
}

// answerRequest accepts either an option index or a letter A-D.
type answerRequest struct {
	OptionIndex *int   `json:"option_index,omitempty"`
	Letter      string `json:"letter,omitempty"`
}

type sessionResponse struct {
	quiz.Snapshot
	Warnings []string `json:"warnings,omitempty"`
}

type historyResponse struct {
	Results []quiz.Result `json:"results"`
}

type chatSendRequest struct {
	Text string `json:"text"`
}

type chatSendResponse struct {
	Message study.Message `json:"message"`
	Reply   study.Message `json:"reply"`
}

type chatMessagesResponse struct {
	Messages     []study.Message `json:"messages"`
	ReplyPending bool            `json:"reply_pending"`
}

type suggestionsResponse struct {
	Suggestions []study.Suggestion `json:"suggestions"`
}

type recordingResponse struct {
	Recording bool   `json:"recording"`
	TaskID    string `json:"task_id,omitempty"`
}

type voiceSessionsResponse struct {
	Recording  bool                 `json:"recording"`
	Processing bool                 `json:"processing"`
	Sessions   []study.VoiceSession `json:"sessions"`
}

type uploadsResponse struct {
	Files      []study.File `json:"files"`
	Processing bool         `json:"processing"`
}

type settingsRequest struct {
	Toggle string `json:"toggle,omitempty"`
	// Patch fields; nil leaves the setting unchanged.
	DarkMode       *bool `json:"dark_mode,omitempty"`
	Notifications  *bool `json:"notifications,omitempty"`
	VoiceResponses *bool `json:"voice_responses,omitempty"`
}

type settingsResponse struct {
	appstate.Settings
	Available []string `json:"available"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSetSummary(set quiz.QuestionSet) questionSetSummary {
	return questionSetSummary{
		SetID:         set.SetID,
		Title:         set.Title,
		Source:        set.Source,
		QuestionCount: len(set.Questions),
		CreatedAt:     set.CreatedAt,
	}
}
