package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/activitybooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender turns notification events into guardian emails. Delivery is a log line until an SMTP relay is configured.
type Sender struct {
	logger *zap.Logger
}

func NewSender() *Sender {
	return &Sender{logger: zap.L().Named("email")}
}

func (s *Sender) Send(ctx context.Context, event kafka.Event) error {
	subject, body := Render(event)
	if subject == "" {
		s.logger.Warn("no template for event", zap.String("type", string(event.Type)))
		return nil
	}
	s.logger.Info("send email",
		zap.Int64("user_id", event.UserID),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Render builds the subject and body for an event. Unknown event types yield an empty subject.
func Render(event kafka.Event) (string, string) {
	switch event.Type {
	case kafka.EventBookingConfirmed:
		return "Booking confirmed",
			fmt.Sprintf("Booking #%d for %s%s is confirmed for %d participant(s).", event.BookingID, event.ActivityType, when(event), event.Weight)
	case kafka.EventBookingCancelled:
		body := fmt.Sprintf("Booking #%d for %s%s was cancelled (%s).", event.BookingID, event.ActivityType, when(event), event.Remedy)
		if event.ReplacementBookingID != 0 {
			body += fmt.Sprintf(" Your new booking is #%d.", event.ReplacementBookingID)
		}
		if event.RefundPending {
			body += " Your refund is being processed and may take a little longer."
		}
		return "Booking cancelled", body
	case kafka.EventCreditIssued:
		scope := event.ActivityType
		if scope == "" {
			scope = "any activity"
		}
		return "Credit issued", fmt.Sprintf("Credit #%d is available for %s.", event.CreditID, scope)
	case kafka.EventCreditOptionIssued:
		body := fmt.Sprintf("Payment for booking #%d was not completed. Claim a courtesy credit with code %s.", event.BookingID, event.CreditOptionToken)
		if event.CreditOptionExpires != nil {
			body += fmt.Sprintf(" The code is valid until %s.", event.CreditOptionExpires.Format("2006-01-02 15:04 MST"))
		}
		return "Claim your credit", body
	case kafka.EventSessionForceCancelled:
		body := fmt.Sprintf("The %s session%s was cancelled by the organiser.", event.ActivityType, when(event))
		if event.Reason != "" {
			body += " Reason: " + event.Reason + "."
		}
		return "Session cancelled", body
	}
	return "", ""
}

func when(event kafka.Event) string {
	if event.StartsAt == nil {
		return ""
	}
	return " on " + event.StartsAt.Format("Mon 02 Jan 15:04")
}
