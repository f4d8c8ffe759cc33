package notify

import (
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/sprintwell/sprintwell/internal/health"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts health alerts to a Slack channel.
type Slack struct {
	client  slackClient
	channel string
}

// NewSlack creates a Slack notifier using a bot token.
func NewSlack(token, channel string) *Slack {
	return &Slack{client: slackapi.New(token), channel: channel}
}

// HealthChanged posts the alert to the configured channel.
func (s *Slack) HealthChanged(projectName string, report *health.Report, previousTier string) error {
	text := message(projectName, report, previousTier)
	_, _, err := s.client.PostMessage(s.channel, slackapi.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify: slack post to %s: %w", s.channel, err)
	}
	return nil
}
