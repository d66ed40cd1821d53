// Package notify sends the borrower confirmation after a pool is created.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsclients "pool-wizard/internal/common/aws"
	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

const (
	TypePoolCreated = "pool_created"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
	Timeout      time.Duration
}

// PoolCreated describes a successful creation.
type PoolCreated struct {
	PoolID     string
	PoolType   string
	FirstName  string
	Email      string
	Phone      string
	Amount     float64
	ROIRate    float64
	TermMonths int
}

type Notifier struct {
	config Config
	ses    awsclients.SESAPI
	sns    awsclients.SNSAPI
	logger logger.Logger
	now    func() time.Time
}

func New(cfg Config, sesClient awsclients.SESAPI, snsClient awsclients.SNSAPI, log logger.Logger) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Notifier{
		config: cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
		now:    time.Now,
	}
}

// NotifyPoolCreated sends the email and SMS confirmations. Channel failures are
// logged and reported in the returned records, never as an error.
func (n *Notifier) NotifyPoolCreated(ctx context.Context, evt PoolCreated) []models.Notification {
	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	subject, body := renderPoolCreated(evt)
	payload := map[string]interface{}{
		"poolId":   evt.PoolID,
		"poolType": evt.PoolType,
		"amount":   evt.Amount,
	}

	email := n.record(ChannelEmail, evt.Email, payload)
	switch {
	case !n.config.EmailEnabled || n.ses == nil || evt.Email == "":
	default:
		out, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
			Destination: &types.Destination{ToAddresses: []string{evt.Email}},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
			Source: aws.String(n.config.FromEmail),
		})
		var id string
		if out != nil && out.MessageId != nil {
			id = *out.MessageId
		}
		n.finish(&email, id, err)
	}

	sms := n.record(ChannelSMS, "", payload)
	phone, ok := E164(evt.Phone)
	switch {
	case !n.config.SMSEnabled || n.sns == nil || !ok:
	default:
		sms.Recipient = phone
		input := &sns.PublishInput{
			PhoneNumber: aws.String(phone),
			Message:     aws.String(body),
		}
		if n.config.SMSSenderID != "" {
			input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
				"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.config.SMSSenderID)},
			}
		}
		out, err := n.sns.Publish(ctx, input)
		var id string
		if out != nil && out.MessageId != nil {
			id = *out.MessageId
		}
		n.finish(&sms, id, err)
	}

	return []models.Notification{email, sms}
}

func (n *Notifier) record(channel, recipient string, payload map[string]interface{}) models.Notification {
	return models.Notification{
		ID:        uuid.New().String(),
		Type:      TypePoolCreated,
		Channel:   channel,
		Recipient: recipient,
		Status:    StatusDisabled,
		Payload:   payload,
	}
}

func (n *Notifier) finish(rec *models.Notification, messageID string, err error) {
	if err != nil {
		rec.Status = StatusFailed
		n.logger.Error("notification send failed", map[string]interface{}{
			"channel": rec.Channel,
			"error":   errors.NewNotificationFailedError(rec.Channel, err).Error(),
		})
		return
	}
	rec.Status = StatusSent
	rec.MessageID = messageID
	rec.SentAt = n.now().UTC().Format(time.RFC3339)
}

// E164 turns a 10-digit US phone in any punctuation into +1NXXNXXXXXX.
func E164(phone string) (string, bool) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", false
	}
	return "+1" + digits, true
}

func renderPoolCreated(evt PoolCreated) (string, string) {
	name := evt.FirstName
	if name == "" {
		name = "there"
	}
	subject := "Your funding pool has been created"
	body := fmt.Sprintf(
		"Hi %s, your %s pool for $%s at %s%% over %d months is now live (reference %s).",
		name, evt.PoolType, formatAmount(evt.Amount), trimFloat(evt.ROIRate), evt.TermMonths, evt.PoolID,
	)
	return subject, body
}

func formatAmount(v float64) string {
	whole := fmt.Sprintf("%.2f", v)
	intPart, frac := whole[:len(whole)-3], whole[len(whole)-3:]
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out) + frac
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
