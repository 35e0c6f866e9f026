package config

import (
	"github.com/replykit/replykit/pkg/domain/interfaces"
	"github.com/replykit/replykit/pkg/service/notify"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for Slack notification configuration
type Slack struct {
	botToken string
	channel  string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot OAuth token for escalation notifications",
			Sources:     cli.EnvVars("REPLYKIT_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel for escalation and deactivation notifications",
			Sources:     cli.EnvVars("REPLYKIT_SLACK_CHANNEL"),
			Destination: &s.channel,
		},
	}
}

// IsConfigured reports whether both token and channel are set
func (s *Slack) IsConfigured() bool {
	return s.botToken != "" && s.channel != ""
}

// Configure creates a Slack notifier from the configured flags.
// Returns nil when not configured (notifications will be disabled).
func (s *Slack) Configure() (interfaces.Notifier, error) {
	if !s.IsConfigured() {
		return nil, nil
	}
	return notify.New(s.botToken, s.channel)
}
