package httpapi

import (
	"studybuddy/internal/appstate"
	"studybuddy/internal/contact"
	"studybuddy/internal/logger"
	"studybuddy/internal/metrics"
	"studybuddy/internal/quiz"
	"studybuddy/internal/study"
)

// Dependencies lists what the API serves. Any study service, the settings
// store or the relay may be nil; their routes then answer 503.
type Dependencies struct {
	Service  *quiz.Service
	Sessions *quiz.Sessions
	Chat     *study.Chat
	Voice    *study.Voice
	Uploads  *study.Uploads
	Settings *appstate.Store
	Relay    *contact.Relay
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

type API struct {
	service  *quiz.Service
	sessions *quiz.Sessions
	chat     *study.Chat
	voice    *study.Voice
	uploads  *study.Uploads
	settings *appstate.Store
	relay    *contact.Relay
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewAPI(deps Dependencies) *API {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	sessions := deps.Sessions
	if sessions == nil && deps.Service != nil {
		sessions = quiz.NewSessions(deps.Service, nil)
	}
	return &API{
		service:  deps.Service,
		sessions: sessions,
		chat:     deps.Chat,
		voice:    deps.Voice,
		uploads:  deps.Uploads,
		settings: deps.Settings,
		relay:    deps.Relay,
		log:      log,
		metrics:  deps.Metrics,
	}
}
