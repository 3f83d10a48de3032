package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"studybuddy/internal/account"
	"studybuddy/internal/appstate"
	"studybuddy/internal/asynctask"
	"studybuddy/internal/contact"
	"studybuddy/internal/quiz"
	"studybuddy/internal/study"
)

const maxRequestBodyBytes = 1 << 20

var (
	errUnavailable   = errors.New("service unavailable")
	errMissingOption = errors.New("option_index or letter is required")
)

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, quiz.ErrSessionNotFound),
		errors.Is(err, study.ErrFileNotFound),
		errors.Is(err, asynctask.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrNoAnswerSelected),
		errors.Is(err, quiz.ErrSessionInProgress),
		errors.Is(err, quiz.ErrNoActiveSession),
		errors.Is(err, quiz.ErrNotCompleted),
		errors.Is(err, study.ErrReplyPending),
		errors.Is(err, study.ErrAlreadyRecording),
		errors.Is(err, study.ErrNotRecording):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrOptionOutOfRange),
		errors.Is(err, quiz.ErrEmptyQuestionSet),
		errors.Is(err, quiz.ErrInvalidQuestion),
		errors.Is(err, errMissingOption),
		errors.Is(err, study.ErrEmptyMessage),
		errors.Is(err, study.ErrInvalidUpload),
		errors.Is(err, appstate.ErrUnknownSetting),
		errors.Is(err, contact.ErrInvalidSubmission):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrPasswordMismatch),
		errors.Is(err, account.ErrMissingFullName):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: account.UserMessage(err)})
	case errors.Is(err, study.ErrCapabilityUnavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, contact.ErrRelayUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.Is(err, errUnavailable),
		errors.Is(err, quiz.ErrImportUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

// decodeJSON reads a JSON body. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body")
	}
	return nil
}

func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func parseBoolParam(r *http.Request, key string) bool {
	value := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	return value == "1" || value == "true" || value == "yes"
}

// resolveOption turns an answer request into an option index.
func resolveOption(request answerRequest) (int, error) {
	if request.OptionIndex != nil {
		return *request.OptionIndex, nil
	}
	if request.Letter != "" {
		idx, ok := quiz.NormalizeLetter(request.Letter)
		if !ok {
			return 0, quiz.ErrOptionOutOfRange
		}
		return idx, nil
	}
	return 0, errMissingOption
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
