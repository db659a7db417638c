// backend/src/services/order_service.go
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/models"
	"github.com/username/sigortaapp/backend/src/wizard"
)

// orderBackend is the slice of the catalog client the order service needs.
type orderBackend interface {
	SaveOrder(ctx context.Context, order models.Order) (string, error)
	BankAccounts(ctx context.Context) ([]models.BankAccount, error)
}

type orderServiceImpl struct {
	backend  orderBackend
	notifier OrderNotifier
	now      func() time.Time
}

// NewOrderService creates the order service. The notifier may be a mock;
// notification never blocks or fails an order.
func NewOrderService(backend orderBackend, notifier OrderNotifier) OrderService {
	return &orderServiceImpl{
		backend:  backend,
		notifier: notifier,
		now:      time.Now,
	}
}

// PlaceOrder consumes the session's selected offer and submits the order to
// the remote backend. On submission failure the offer is restored so the
// user can retry. The returned confirmation carries the local order number
// the user must quote in the transfer description, plus the bank accounts.
func (o *orderServiceImpl) PlaceOrder(ctx context.Context, s *wizard.Session) (*models.OrderConfirmation, error) {
	order, offer, err := s.ConsumeOffer()
	if err != nil {
		return nil, err
	}

	orderNumber := o.generateOrderNumber()

	backendID, err := o.backend.SaveOrder(ctx, order)
	if err != nil {
		s.RestoreOffer(offer)
		logger.L.Error("Order submission failed", "sessionID", s.ID, "orderNumber", orderNumber, "error", err)
		return nil, fmt.Errorf("saving order: %w", err)
	}
	logger.L.Info("Order saved", "sessionID", s.ID, "orderNumber", orderNumber, "backendOrderID", backendID, "company", order.Company, "price", order.Price)

	accounts, err := o.backend.BankAccounts(ctx)
	if err != nil {
		// The order is already in; show the confirmation without accounts
		// rather than failing it.
		logger.L.Error("Failed to load bank accounts for confirmation", "sessionID", s.ID, "error", err)
		accounts = nil
	}

	if o.notifier != nil {
		if err := o.notifier.NotifyOrderCaptured(order, orderNumber); err != nil {
			logger.L.Warn("Order notification failed", "orderNumber", orderNumber, "error", err)
		}
	}

	return &models.OrderConfirmation{
		OrderNumber:    orderNumber,
		BackendOrderID: backendID,
		Company:        order.Company,
		Price:          order.Price,
		BankAccounts:   accounts,
	}, nil
}

// generateOrderNumber builds the user-facing order number: "SIG-" plus the
// last 8 digits of the current unix-millisecond clock.
func (o *orderServiceImpl) generateOrderNumber() string {
	millis := strconv.FormatInt(o.now().UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return "SIG-" + millis
}
