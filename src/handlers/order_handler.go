package handlers

import (
	"errors"
	"net/http"

	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/services"
	"github.com/username/sigortaapp/backend/src/utils"
	"github.com/username/sigortaapp/backend/src/wizard"
)

// OrderHandler finishes the flow: turning a session's selected offer into a
// submitted order with payment instructions.
type OrderHandler struct {
	sessions services.SessionService
	orders   services.OrderService
}

func NewOrderHandler(sessions services.SessionService, orders services.OrderService) *OrderHandler {
	return &OrderHandler{
		sessions: sessions,
		orders:   orders,
	}
}

func (h *OrderHandler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.SendJSONError(w, "session id required", http.StatusBadRequest)
		return
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		utils.SendJSONError(w, "session not found or expired", http.StatusNotFound)
		return
	}

	confirmation, err := h.orders.PlaceOrder(r.Context(), session)
	if err != nil {
		if errors.Is(err, wizard.ErrNoOffer) {
			utils.SendJSONError(w, "no offer selected", http.StatusBadRequest)
			return
		}
		logger.L.Error("Placing order failed", "sessionID", session.ID, "error", err)
		utils.SendJSONError(w, "order could not be submitted, please retry", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, confirmation)
}

// HandleCardPayment is the placeholder for the card payment path. Only wire
// transfer is live; the card flow answers with a coming-soon notice.
func (h *OrderHandler) HandleCardPayment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available": false,
		"message":   "Bu özellik çok yakında kullanıma sunulacak!",
	})
}
