package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/models"
)

// EmailDelivery and ChatDelivery abstract the concrete senders so dispatch is
// testable and either channel can be left unconfigured (nil).
type EmailDelivery interface {
	Send(to, subject, htmlBody string) error
}

type ChatDelivery interface {
	Send(chatID, html string) error
}

// SubscriberLister yields the users subscribed at a given digest frequency.
type SubscriberLister interface {
	ListDigestSubscribers(ctx context.Context, frequency string) ([]models.User, error)
}

// Notifier fans a composed digest out to subscribers per their channel
// preferences.
type Notifier struct {
	users    SubscriberLister
	email    EmailDelivery
	telegram ChatDelivery
}

func NewNotifier(users SubscriberLister, email EmailDelivery, telegram ChatDelivery) *Notifier {
	return &Notifier{users: users, email: email, telegram: telegram}
}

// DeliveryReport counts one dispatch round.
type DeliveryReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendDigest delivers the digest to every subscriber at the given frequency.
// A failure for one recipient is logged and counted, never propagated: the
// rest of the loop always runs.
func (n *Notifier) SendDigest(ctx context.Context, d *digest.Digest, frequency string) (DeliveryReport, error) {
	users, err := n.users.ListDigestSubscribers(ctx, frequency)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("notify: list subscribers: %w", err)
	}

	var report DeliveryReport
	emailBody := RenderEmailHTML(d)
	telegramBody := RenderTelegram(d)
	subject := fmt.Sprintf("Дайджест: %s (%s)", d.Category.Name, d.Period.EndDate)

	for _, u := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !subscribedToCategory(u, d) {
			continue
		}

		if u.EmailNotifications && n.email != nil {
			if err := n.email.Send(u.Email, subject, emailBody); err != nil {
				slog.Error("notify: email delivery failed", "user", u.ID, "err", err)
				report.Failed++
			} else {
				report.Sent++
			}
		}
		if u.TelegramNotifications && u.TelegramChatID != "" && n.telegram != nil {
			if err := n.telegram.Send(u.TelegramChatID, telegramBody); err != nil {
				slog.Error("notify: telegram delivery failed", "user", u.ID, "err", err)
				report.Failed++
			} else {
				report.Sent++
			}
		}
	}

	slog.Info("notify: digest dispatched",
		"category", d.Category.Slug,
		"frequency", frequency,
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return report, nil
}

// subscribedToCategory reports whether the user follows the digest's
// category. An empty category list means "all categories".
func subscribedToCategory(u models.User, d *digest.Digest) bool {
	if len(u.CategoryIDs) == 0 {
		return true
	}
	for _, id := range u.CategoryIDs {
		if id == d.Category.ID {
			return true
		}
	}
	return false
}
