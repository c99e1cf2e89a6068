package service

import (
	"context"
	"log"
	"strings"

	"rostra/internal/models"
	"rostra/pkg/discord"
)

// SessionNotifier fires the template's Discord webhook when a host claims a
// session. Delivery is best-effort; a webhook failure never unwinds the
// claim.
type SessionNotifier struct {
	webhook *discord.Webhook
}

func NewSessionNotifier(webhook *discord.Webhook) *SessionNotifier {
	return &SessionNotifier{webhook: webhook}
}

// NotifyClaimed posts the claim announcement, substituting {host} and
// {session} in the configured title and body.
func (n *SessionNotifier) NotifyClaimed(ctx context.Context, t *models.ScheduleTemplate, host *models.User) {
	if !t.WebhookEnabled || t.WebhookURL == "" {
		return
	}
	hostName := "someone"
	if host != nil && host.Username != "" {
		hostName = host.Username
	}
	expand := func(s string) string {
		s = strings.ReplaceAll(s, "{host}", hostName)
		return strings.ReplaceAll(s, "{session}", t.Name)
	}
	msg := discord.Message{
		Content: t.WebhookPing,
		Embeds: []discord.Embed{{
			Title:       expand(t.WebhookTitle),
			Description: expand(t.WebhookBody),
		}},
	}
	if err := n.webhook.Execute(ctx, t.WebhookURL, msg); err != nil {
		log.Printf("[WEBHOOK] claim notification failed for template %s: %v", t.ID, err)
	}
}
