package services

import (
	"context"

	"github.com/username/sigortaapp/backend/src/models"
	"github.com/username/sigortaapp/backend/src/wizard"
)

// SessionService owns the live wizard sessions. Sessions expire after the
// configured TTL of inactivity; expiry is the same as the user walking away.
type SessionService interface {
	Create() *wizard.Session
	Get(id string) (*wizard.Session, error)
	Delete(id string)
}

// OrderService finishes the flow: it consumes the session's selected offer,
// submits the order to the remote backend, and assembles the payment
// instructions shown to the user.
type OrderService interface {
	PlaceOrder(ctx context.Context, s *wizard.Session) (*models.OrderConfirmation, error)
}

// OrderNotifier tells the operations inbox about a captured order. Failures
// are logged, never surfaced; the order already succeeded.
type OrderNotifier interface {
	NotifyOrderCaptured(order models.Order, orderNumber string) error
}
