// services/sms_notifier.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"motoshop-backend/config"
	"motoshop-backend/models"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageSender is the part of the Twilio REST API the notifier uses.
type MessageSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// NewTwilioSender builds a Twilio client from the configured credentials.
func NewTwilioSender(cfg config.TwilioConfig) MessageSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return client.Api
}

// SMSNotifier texts the job card alert to the linked customer's phone.
type SMSNotifier struct {
	db           *gorm.DB
	sender       MessageSender
	fromSMS      string
	fromWhatsApp string
	logger       *zap.Logger
}

func NewSMSNotifier(db *gorm.DB, sender MessageSender, cfg config.TwilioConfig, logger *zap.Logger) *SMSNotifier {
	return &SMSNotifier{
		db:           db,
		sender:       sender,
		fromSMS:      cfg.PhoneNumber,
		fromWhatsApp: cfg.WhatsAppNumber,
		logger:       logger,
	}
}

func (n *SMSNotifier) Handle(ctx context.Context, event JobCardEvent) error {
	if event.UserID == nil {
		return nil
	}

	var customer models.User
	err := n.db.WithContext(ctx).Select("id", "phone").First(&customer, *event.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		n.logger.Warn("alert recipient no longer exists", zap.Uint("user_id", *event.UserID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup customer %d: %w", *event.UserID, err)
	}
	if customer.Phone == "" {
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetBody(event.AlertMessage())

	// WhatsApp when the number is E.164 and a WhatsApp sender exists, SMS otherwise
	channel := "sms"
	if strings.HasPrefix(customer.Phone, "+") && n.fromWhatsApp != "" {
		channel = "whatsapp"
		params.SetTo("whatsapp:" + customer.Phone)
		params.SetFrom("whatsapp:" + n.fromWhatsApp)
	} else {
		params.SetTo(customer.Phone)
		params.SetFrom(n.fromSMS)
	}

	resp, err := n.sender.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send %s to customer %d: %w", channel, customer.ID, err)
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Uint("user_id", customer.ID),
		zap.String("channel", channel),
	}
	if resp != nil && resp.Sid != nil {
		fields = append(fields, zap.String("sid", *resp.Sid))
	}
	n.logger.Info("customer message sent", fields...)
	return nil
}
