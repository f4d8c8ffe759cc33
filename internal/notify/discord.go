package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sprintwell/sprintwell/internal/health"
)

// discordSession abstracts the Discord API methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts health alerts to a Discord channel.
type Discord struct {
	session discordSession
	channel string
}

// NewDiscord creates a Discord notifier using a bot token.
func NewDiscord(token, channel string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: discord session: %w", err)
	}
	return &Discord{session: session, channel: channel}, nil
}

// HealthChanged posts the alert to the configured channel.
func (d *Discord) HealthChanged(projectName string, report *health.Report, previousTier string) error {
	if _, err := d.session.ChannelMessageSend(d.channel, message(projectName, report, previousTier)); err != nil {
		return fmt.Errorf("notify: discord send to %s: %w", d.channel, err)
	}
	return nil
}
