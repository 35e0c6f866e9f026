package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/domain/interfaces"
	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/slack-go/slack"
)

// slackNotifier posts operator-attention events to a Slack channel
type slackNotifier struct {
	api     *slack.Client
	channel string
}

var _ interfaces.Notifier = &slackNotifier{}

// New creates a Slack notifier posting to the given channel
func New(token, channel string) (interfaces.Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channel == "" {
		return nil, goerr.New("Slack channel is required")
	}

	return &slackNotifier{
		api:     slack.New(token),
		channel: channel,
	}, nil
}

func (n *slackNotifier) NotifyEscalation(ctx context.Context, event *model.EscalationEvent) error {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, ":rotating_light: Customer message needs attention", false, false),
		),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Reason:*\n%s", event.Reason), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Category:*\n%s", displayCategory(event)), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Decision:*\n%s", event.Decision), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Message ID:*\n%s", event.MessageID), false, false),
		}, nil),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("> %s", event.MessageText), false, false),
			nil, nil,
		),
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return goerr.Wrap(err, "failed to post escalation notification",
			goerr.V("channel", n.channel), goerr.V("messageID", event.MessageID))
	}

	return nil
}

func (n *slackNotifier) NotifyDeactivation(ctx context.Context, event *model.DeactivationEvent) error {
	text := fmt.Sprintf(
		":warning: Pattern `%s` (%s) was automatically deactivated: confidence dropped to %.1f after %d rejections. Please review.",
		event.PatternID, event.Category, event.ConfidenceScore, event.RejectCount,
	)

	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return goerr.Wrap(err, "failed to post deactivation notification",
			goerr.V("channel", n.channel), goerr.V("patternID", event.PatternID))
	}

	return nil
}

func displayCategory(event *model.EscalationEvent) string {
	if event.Category == "" {
		return "(none)"
	}
	return event.Category.String()
}
