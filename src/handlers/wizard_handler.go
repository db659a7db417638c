package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/pricing"
	"github.com/username/sigortaapp/backend/src/services"
	"github.com/username/sigortaapp/backend/src/utils"
	"github.com/username/sigortaapp/backend/src/wizard"
)

// WizardHandler exposes the quote wizard over HTTP: one session per UI
// visitor, one endpoint per user action.
type WizardHandler struct {
	sessions services.SessionService
	machine  *wizard.Machine
}

func NewWizardHandler(sessions services.SessionService, machine *wizard.Machine) *WizardHandler {
	return &WizardHandler{
		sessions: sessions,
		machine:  machine,
	}
}

func (h *WizardHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Create()
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (h *WizardHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *WizardHandler) HandleSubmitIdentity(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var in wizard.IdentityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.machine.SubmitIdentity(r.Context(), session, in)
	h.writeStepResult(w, session, err)
}

func (h *WizardHandler) HandleSubmitRegistration(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var in wizard.RegistrationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.machine.SubmitRegistration(r.Context(), session, in)
	h.writeStepResult(w, session, err)
}

func (h *WizardHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeStepResult(w, session, h.machine.Back(session))
}

type selectionRequest struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  string `json:"year"`
}

func (h *WizardHandler) HandleSelectBrand(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var in selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.writeStepResult(w, session, h.machine.SelectBrand(r.Context(), session, in.Brand))
}

func (h *WizardHandler) HandleSelectModel(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var in selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.writeStepResult(w, session, h.machine.SelectModel(r.Context(), session, in.Model))
}

func (h *WizardHandler) HandleSelectYear(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var in selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.writeStepResult(w, session, h.machine.SelectYear(r.Context(), session, in.Year))
}

func (h *WizardHandler) HandleRequestQuote(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	_, err := h.machine.RequestQuote(r.Context(), session)
	h.writeStepResult(w, session, err)
}

type offerRequest struct {
	Company string `json:"company"`
}

func (h *WizardHandler) HandleSelectOffer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var in offerRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	_, err := h.machine.SelectOffer(session, in.Company)
	h.writeStepResult(w, session, err)
}

func (h *WizardHandler) HandleNewQuery(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeStepResult(w, session, h.machine.NewQuery(session))
}

func (h *WizardHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.SendJSONError(w, "session id required", http.StatusBadRequest)
		return
	}
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := r.PathValue("id")
	if id == "" {
		utils.SendJSONError(w, "session id required", http.StatusBadRequest)
		return nil, false
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		utils.SendJSONError(w, "session not found or expired", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// writeStepResult renders the session snapshot with a status derived from
// the wizard error, if any. Validation failures still return the snapshot so
// the client gets the per-field messages in one round trip.
func (h *WizardHandler) writeStepResult(w http.ResponseWriter, session *wizard.Session, err error) {
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrValidationFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrInvalidStep):
		status = http.StatusConflict
	case errors.Is(err, wizard.ErrSelectionIncomplete),
		errors.Is(err, wizard.ErrUnknownCompany),
		errors.Is(err, wizard.ErrNoOffer):
		status = http.StatusBadRequest
	case errors.Is(err, pricing.ErrNoComparablePrices):
		utils.SendJSONError(w, "no comparable insurer prices for this vehicle", http.StatusBadGateway)
		return
	default:
		// Catalog/backend failure: the session stayed where it was.
		logger.L.Error("Wizard action failed against the catalog backend", "sessionID", session.ID, "error", err)
		utils.SendJSONError(w, "upstream service unavailable, please retry", http.StatusBadGateway)
		return
	}
	writeJSON(w, status, session.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
