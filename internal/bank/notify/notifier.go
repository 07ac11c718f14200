// Package notify delivers bank messages through SES and SNS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"bida-banking-workers/internal/bank"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"
	"bida-banking-workers/internal/common/metrics"
)

const (
	channelEmail = "ses"
	channelTopic = "sns"
)

// EmailSender is implemented by *aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, to []string, subject, body string) (string, error)
}

// TopicPublisher is implemented by *aws.SNSClient.
type TopicPublisher interface {
	PublishToTopic(ctx context.Context, subject, message string, attributes map[string]string) (string, error)
}

// AWSNotifier publishes every message to SNS and emails officer messages.
// Either channel may be nil.
type AWSNotifier struct {
	email        EmailSender
	officerEmail string
	topic        TopicPublisher
	logger       logger.Logger
}

func NewAWSNotifier(email EmailSender, officerEmail string, topic TopicPublisher, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		email:        email,
		officerEmail: officerEmail,
		topic:        topic,
		logger:       log.WithFields(map[string]interface{}{"component": "bank-notifier"}),
	}
}

type topicPayload struct {
	InvestorID string `json:"investorId"`
	bank.BankMessage
}

func (n *AWSNotifier) Notify(ctx context.Context, investorID string, msg bank.BankMessage) error {
	var firstErr error

	if n.topic != nil {
		if err := n.publish(ctx, investorID, msg); err != nil {
			firstErr = apperrors.NewNotificationSendFailedError(channelTopic, err)
		}
	}

	if msg.Recipient == bank.RecipientOfficer && n.email != nil && n.officerEmail != "" {
		if err := n.sendEmail(ctx, investorID, msg); err != nil && firstErr == nil {
			firstErr = apperrors.NewNotificationSendFailedError(channelEmail, err)
		}
	}

	return firstErr
}

func (n *AWSNotifier) publish(ctx context.Context, investorID string, msg bank.BankMessage) error {
	body, err := json.Marshal(topicPayload{InvestorID: investorID, BankMessage: msg})
	if err != nil {
		return err
	}

	id, err := n.topic.PublishToTopic(ctx, msg.Subject, string(body), map[string]string{
		"investorId": investorID,
		"recipient":  string(msg.Recipient),
		"category":   string(msg.Category),
	})
	if err != nil {
		metrics.NotificationsDelivered.WithLabelValues(channelTopic, "failed").Inc()
		return err
	}

	metrics.NotificationsDelivered.WithLabelValues(channelTopic, "sent").Inc()
	n.logger.Debug("bank message published", map[string]interface{}{"messageId": msg.ID, "snsMessageId": id})
	return nil
}

func (n *AWSNotifier) sendEmail(ctx context.Context, investorID string, msg bank.BankMessage) error {
	subject := fmt.Sprintf("[BIDA Banking] %s", msg.Subject)
	body := fmt.Sprintf("Investor: %s\nCategory: %s\n\n%s\n", investorID, msg.Category, msg.Body)

	id, err := n.email.SendText(ctx, []string{n.officerEmail}, subject, body)
	if err != nil {
		metrics.NotificationsDelivered.WithLabelValues(channelEmail, "failed").Inc()
		return err
	}

	metrics.NotificationsDelivered.WithLabelValues(channelEmail, "sent").Inc()
	n.logger.Debug("officer email sent", map[string]interface{}{"messageId": msg.ID, "sesMessageId": id})
	return nil
}
