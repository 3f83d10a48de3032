package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"studybuddy/internal/appstate"
	"studybuddy/internal/study"
)

func (a *API) HandleChatMessages(w http.ResponseWriter, _ *http.Request) {
	if a.chat == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, chatMessagesResponse{
		Messages:     a.chat.Messages(),
		ReplyPending: a.chat.ReplyPending(),
	})
}

// HandleSendChat answers 202: the reply is a loading placeholder until the
// tutor responds.
func (a *API) HandleSendChat(w http.ResponseWriter, r *http.Request) {
	if a.chat == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	var request chatSendRequest
	if err := decodeJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	message, reply, err := a.chat.Send(request.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.entry(r).WithField("task_id", reply.ID).Debug("chat reply requested")
	writeJSON(w, http.StatusAccepted, chatSendResponse{Message: message, Reply: reply})
}

func (a *API) HandleSuggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: study.Suggestions()})
}

func (a *API) HandleStartRecording(w http.ResponseWriter, _ *http.Request) {
	if a.voice == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	if err := a.voice.StartRecording(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingResponse{Recording: true})
}

func (a *API) HandleStopRecording(w http.ResponseWriter, r *http.Request) {
	if a.voice == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	taskID, err := a.voice.StopRecording()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.entry(r).WithField("task_id", taskID).Debug("voice question submitted")
	writeJSON(w, http.StatusAccepted, recordingResponse{Recording: false, TaskID: taskID})
}

func (a *API) HandleVoiceSessions(w http.ResponseWriter, _ *http.Request) {
	if a.voice == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, voiceSessionsResponse{
		Recording:  a.voice.Recording(),
		Processing: a.voice.Processing(),
		Sessions:   a.voice.Sessions(),
	})
}

func (a *API) HandleListUploads(w http.ResponseWriter, _ *http.Request) {
	if a.uploads == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, uploadsResponse{
		Files:      a.uploads.Files(),
		Processing: a.uploads.Processing(),
	})
}

func (a *API) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if a.uploads == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	var request study.UploadRequest
	if err := decodeJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if request.Kind == "" {
		request.Kind = study.KindDocument
	}

	file, err := a.uploads.Upload(request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.entry(r).WithFields(logrus.Fields{
		"file_id": file.ID,
		"kind":    file.Kind,
		"source":  request.Source,
	}).Info("upload accepted")
	writeJSON(w, http.StatusAccepted, file)
}

func (a *API) HandleRemoveUpload(w http.ResponseWriter, r *http.Request) {
	if a.uploads == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	if err := a.uploads.Remove(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleGetSettings(w http.ResponseWriter, _ *http.Request) {
	if a.settings == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: a.settings.Get(), Available: appstate.Names()})
}

// HandlePatchSettings either flips one named toggle or applies the given
// values.
func (a *API) HandlePatchSettings(w http.ResponseWriter, r *http.Request) {
	if a.settings == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	var request settingsRequest
	if err := decodeJSON(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if name := strings.TrimSpace(request.Toggle); name != "" {
		settings, err := a.settings.Toggle(name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settingsResponse{Settings: settings, Available: appstate.Names()})
		return
	}

	settings := a.settings.Update(func(s *appstate.Settings) {
		if request.DarkMode != nil {
			s.DarkMode = *request.DarkMode
		}
		if request.Notifications != nil {
			s.Notifications = *request.Notifications
		}
		if request.VoiceResponses != nil {
			s.VoiceResponses = *request.VoiceResponses
		}
	})
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings, Available: appstate.Names()})
}
