package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"studybuddy/internal/quiz"
)

const defaultHistoryLimit = 20

func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	sets, err := a.service.ListQuestionSets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := questionSetsResponse{Sets: make([]questionSetSummary, 0, len(sets))}
	for _, set := range sets {
		response.Sets = append(response.Sets, toSetSummary(set))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	set, err := a.service.GetQuestionSet(r.Context(), chi.URLParam(r, "set_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, questionSetResponse{
		questionSetSummary: toSetSummary(set),
		Questions:          quiz.ToPublicQuestions(set.Questions),
	})
}

func (a *API) HandleImportQuiz(w http.ResponseWriter, r *http.Request) {
	var request importRequest
	if err := decodeJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	set, err := a.service.ImportQuestionSet(r.Context(), request.Title, request.Amount)
	switch {
	case err == nil:
	case errors.Is(err, quiz.ErrEmptyQuestionSet), errors.Is(err, quiz.ErrImportUnavailable):
		writeServiceError(w, err)
		return
	default:
		a.entry(r).WithError(err).Warn("question import failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to fetch questions"})
		return
	}

	a.entry(r).WithFields(logrus.Fields{
		"set_id":    set.SetID,
		"questions": len(set.Questions),
	}).Info("question set imported")
	writeJSON(w, http.StatusCreated, toSetSummary(set))
}

func (a *API) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var request startSessionRequest
	if err := decodeJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	setID := strings.TrimSpace(request.SetID)
	if setID == "" {
		setID = quiz.SampleSetID
	}

	snapshot, err := a.sessions.Start(r.Context(), setID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Snapshot: snapshot})
}

func (a *API) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Snapshot: snapshot})
}

func (a *API) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var request answerRequest
	if err := decodeJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	optionIndex, err := resolveOption(request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	snapshot, err := a.sessions.Select(chi.URLParam(r, "id"), optionIndex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Snapshot: snapshot})
}

// HandleAdvance moves to the next question. When the last answer completes
// the quiz and the result cannot be stored, the completed session is still
// returned with a warning.
func (a *API) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.sessions.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil && snapshot.State != quiz.StateCompleted {
		writeServiceError(w, err)
		return
	}

	response := sessionResponse{Snapshot: snapshot}
	if err != nil {
		a.entry(r).WithError(err).Error("failed to record quiz result")
		response.Warnings = append(response.Warnings, "result could not be saved to history")
	}
	if snapshot.Result != nil {
		a.entry(r).WithFields(logrus.Fields{
			"session_id": snapshot.SessionID,
			"set_id":     snapshot.SetID,
			"score":      snapshot.Result.Score,
			"grade":      snapshot.Result.Grade,
		}).Info("quiz completed")
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) HandleExitSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Exit(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Acknowledge(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	results, err := a.service.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !parseBoolParam(r, "review") {
		for idx := range results {
			results[idx].Review = nil
		}
	}
	if results == nil {
		results = []quiz.Result{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Results: results})
}

func (a *API) HandleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := a.service.Progress(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (a *API) entry(r *http.Request) *logrus.Entry {
	return a.log.WithRequestID(middleware.GetReqID(r.Context()))
}
