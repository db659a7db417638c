package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/models"
	"github.com/username/sigortaapp/backend/src/utils"
	"github.com/username/sigortaapp/backend/src/validation"
)

// metaBackend is the slice of the catalog client the meta endpoints need.
type metaBackend interface {
	BankAccounts(ctx context.Context) ([]models.BankAccount, error)
	Logo(ctx context.Context) (string, error)
	SubmitCancelRequest(ctx context.Context, req models.CancelRequest) error
}

// MetaHandler serves the page furniture around the wizard: bank accounts,
// the site logo, and the policy-cancellation intake form.
type MetaHandler struct {
	backend metaBackend
}

func NewMetaHandler(backend metaBackend) *MetaHandler {
	return &MetaHandler{backend: backend}
}

func (h *MetaHandler) HandleBankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.backend.BankAccounts(r.Context())
	if err != nil {
		logger.L.Error("Failed to load bank accounts", "error", err)
		utils.SendJSONError(w, "bank accounts unavailable", http.StatusBadGateway)
		return
	}
	if accounts == nil {
		accounts = []models.BankAccount{}
	}

	payload := map[string]interface{}{"accounts": accounts}
	w.Header().Set("Cache-Control", "no-cache, private")
	if writeWithETag(w, r, payload) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error generating JSON response for bank accounts", "error", err)
	}
}

func (h *MetaHandler) HandleLogo(w http.ResponseWriter, r *http.Request) {
	logoURL, err := h.backend.Logo(r.Context())
	if err != nil {
		logger.L.Error("Failed to load logo URL", "error", err)
		utils.SendJSONError(w, "logo unavailable", http.StatusBadGateway)
		return
	}

	payload := map[string]string{"logo_url": logoURL}
	w.Header().Set("Cache-Control", "no-cache, private")
	if writeWithETag(w, r, payload) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error generating JSON response for logo", "error", err)
	}
}

// writeWithETag sets the ETag header for the payload and answers 304 when the
// client already holds it. Returns true when the response is complete.
func writeWithETag(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	currentETag, etagErr := utils.GenerateETag(payload)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag", "error", etagErr)
		return false
	}
	if currentETag == "" {
		return false
	}

	quotedETag := fmt.Sprintf("\"%s\"", currentETag)
	w.Header().Set("ETag", quotedETag)
	clientETag := r.Header.Get("If-None-Match")
	for _, cETag := range strings.Split(clientETag, ",") {
		if strings.TrimSpace(cETag) == quotedETag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	if clientETag != "" {
		logger.L.Debug("ETag mismatch", "clientETags", clientETag, "serverETag", quotedETag)
	}
	return false
}

// cancelRequestInput carries the raw cancellation form. The plate arrives in
// three parts; the backend receives it joined.
type cancelRequestInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PlateRegion  string `json:"plakaIl"`
	PlateLetters string `json:"plakaSeri"`
	PlateDigits  string `json:"plakaNo"`
}

func (h *MetaHandler) HandleCancelRequest(w http.ResponseWriter, r *http.Request) {
	var in cancelRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	in.PlateRegion = validation.DigitsOnly(in.PlateRegion)
	in.PlateLetters = validation.UpperLettersOnly(in.PlateLetters)
	in.PlateDigits = validation.DigitsOnly(in.PlateDigits)

	fieldErrors := map[string]string{}
	if msg := validation.ValidateCancelName(in.Name); msg != "" {
		fieldErrors["name"] = msg
	}
	if msg := validation.ValidateCancelPhone(in.Phone); msg != "" {
		fieldErrors["phone"] = msg
	}
	if msg := validation.ValidateCancelPlate(in.PlateRegion, in.PlateLetters, in.PlateDigits); msg != "" {
		fieldErrors["plate"] = msg
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":       "validation failed",
			"fieldErrors": fieldErrors,
		})
		return
	}

	req := models.CancelRequest{
		Name:  in.Name,
		Phone: in.Phone,
		Plate: fmt.Sprintf("%s %s %s", in.PlateRegion, in.PlateLetters, in.PlateDigits),
	}
	if err := h.backend.SubmitCancelRequest(r.Context(), req); err != nil {
		logger.L.Error("Cancel request submission failed", "error", err, "plate", req.Plate)
		utils.SendJSONError(w, "cancel request could not be submitted, please retry", http.StatusBadGateway)
		return
	}

	logger.L.Info("Cancel request forwarded", "plate", req.Plate)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "İptal talebiniz alınmıştır. En kısa sürede sizinle iletişime geçilecektir.",
	})
}
