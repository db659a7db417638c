// backend/src/services/email_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/sigortaapp/backend/src/config"
	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/models"
)

// NewOrderNotifier picks the notification transport from config: mailgun,
// smtp, or a logging mock when neither is configured. An unset
// OPS_NOTIFY_EMAIL always yields the mock.
func NewOrderNotifier() OrderNotifier {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Order notifier will default to mock.")
		return &MockOrderNotifier{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing order notifier", "provider", provider)

	if config.Cfg.OpsNotifyEmail == "" {
		logger.L.Info("OPS_NOTIFY_EMAIL not set, order notifications go to the log only.")
		return &MockOrderNotifier{}
	}

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockOrderNotifier.")
			return &MockOrderNotifier{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunOrderNotifier{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			opsEmail:    config.Cfg.OpsNotifyEmail,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockOrderNotifier.")
			return &MockOrderNotifier{}
		}
		return &SMTPOrderNotifier{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
			OpsEmail:     config.Cfg.OpsNotifyEmail,
		}
	default:
		logger.L.Info("Defaulting to MockOrderNotifier.")
		return &MockOrderNotifier{}
	}
}

func orderSummaryBody(order models.Order, orderNumber string) string {
	return fmt.Sprintf(`Yeni sipariş alındı.

Sipariş No: %s
Araç: %s %s (%s)
Sigorta Şirketi: %s
Tutar: %.2f TL

Müşteri: %s %s
Telefon: +90 %s
Plaka: %s %s %s`,
		orderNumber,
		order.Brand, order.Model, order.Year,
		order.Company, order.Price,
		order.FirstName, order.LastName,
		order.Phone,
		order.PlateRegion, order.PlateLetters, order.PlateDigits)
}

type MailgunOrderNotifier struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
	opsEmail    string
}

func (n *MailgunOrderNotifier) NotifyOrderCaptured(order models.Order, orderNumber string) error {
	from := fmt.Sprintf("%s <%s>", n.senderName, n.senderEmail)
	subject := fmt.Sprintf("Yeni sipariş: %s", orderNumber)
	body := orderSummaryBody(order, orderNumber)

	message := n.mg.NewMessage(from, subject, body, n.opsEmail)
	message.AddTag("order-captured")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := n.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send order notification via Mailgun", "error", err, "orderNumber", orderNumber, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for order notification: %w", err)
	}
	logger.L.Info("Order notification sent via Mailgun", "orderNumber", orderNumber, "id", id)
	return nil
}

type SMTPOrderNotifier struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
	OpsEmail     string
}

func (n *SMTPOrderNotifier) NotifyOrderCaptured(order models.Order, orderNumber string) error {
	subject := fmt.Sprintf("Yeni sipariş: %s", orderNumber)
	body := orderSummaryBody(order, orderNumber)

	header := make(map[string]string)
	header["From"] = n.SenderEmail
	header["To"] = n.OpsEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", n.SMTPUser, n.SMTPPassword, n.SMTPServer)
	addr := fmt.Sprintf("%s:%d", n.SMTPServer, n.SMTPPort)
	if err := smtp.SendMail(addr, auth, n.SenderEmail, []string{n.OpsEmail}, []byte(message)); err != nil {
		logger.L.Error("Failed to send order notification via SMTP", "error", err, "orderNumber", orderNumber)
		return fmt.Errorf("failed to send order notification via SMTP: %w", err)
	}
	logger.L.Info("Order notification sent via SMTP", "orderNumber", orderNumber)
	return nil
}

type MockOrderNotifier struct{}

func (n *MockOrderNotifier) NotifyOrderCaptured(order models.Order, orderNumber string) error {
	logger.L.Info("MockOrderNotifier: Would send order notification.",
		"orderNumber", orderNumber, "company", order.Company, "price", order.Price)
	return nil
}
