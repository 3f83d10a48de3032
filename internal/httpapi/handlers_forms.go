package httpapi

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"studybuddy/internal/account"
	"studybuddy/internal/contact"
)

func (a *API) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var form account.SignInForm
	if err := decodeJSON(r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	outcome, err := account.SignIn(form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (a *API) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var form account.SignUpForm
	if err := decodeJSON(r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	outcome, err := account.SignUp(form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

// HandleContact relays the portfolio form. Relay failures still answer with
// the visitor-facing message, using 502 so the page can show it as an error.
func (a *API) HandleContact(w http.ResponseWriter, r *http.Request) {
	if a.relay == nil {
		writeServiceError(w, errUnavailable)
		return
	}
	var submission contact.Submission
	if err := decodeJSON(r, &submission); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := a.relay.Submit(r.Context(), submission)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if a.metrics != nil {
		a.metrics.ContactOutcome(string(result.Outcome))
	}

	entry := a.entry(r).WithField("outcome", result.Outcome)
	if result.Err != nil {
		entry.WithError(result.Err).Warn("contact relay failed")
		writeJSON(w, http.StatusBadGateway, result)
		return
	}
	entry.WithFields(logrus.Fields{"clear_form": result.ClearForm}).Info("contact form handled")
	writeJSON(w, http.StatusOK, result)
}
