package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	// AllowedOrigins defaults to every origin.
	AllowedOrigins  []string
	MaxLogBodyBytes int
}

func NewRouter(api *API, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.accessLog(opts.MaxLogBodyBytes))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/health", api.HandleHealth)
	if api.metrics != nil {
		r.Method(http.MethodGet, "/metrics", api.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(api.requireQuiz)

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", api.HandleListQuizzes)
			r.Post("/import", api.HandleImportQuiz)
			r.Get("/{set_id}", api.HandleGetQuiz)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", api.HandleStartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.HandleGetSession)
				r.Delete("/", api.HandleExitSession)
				r.Post("/answer", api.HandleAnswer)
				r.Post("/advance", api.HandleAdvance)
				r.Post("/acknowledge", api.HandleAcknowledge)
			})
		})

		r.Get("/history", api.HandleHistory)
		r.Get("/progress", api.HandleProgress)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Get("/messages", api.HandleChatMessages)
		r.Post("/messages", api.HandleSendChat)
		r.Get("/suggestions", api.HandleSuggestions)
	})

	r.Route("/voice", func(r chi.Router) {
		r.Post("/recording", api.HandleStartRecording)
		r.Delete("/recording", api.HandleStopRecording)
		r.Get("/sessions", api.HandleVoiceSessions)
	})

	r.Route("/uploads", func(r chi.Router) {
		r.Get("/", api.HandleListUploads)
		r.Post("/", api.HandleUpload)
		r.Delete("/{id}", api.HandleRemoveUpload)
	})

	r.Get("/settings", api.HandleGetSettings)
	r.Patch("/settings", api.HandlePatchSettings)

	r.Post("/account/signin", api.HandleSignIn)
	r.Post("/account/signup", api.HandleSignUp)
	r.Post("/contact", api.HandleContact)

	return r
}

func (a *API) requireQuiz(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.service == nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
