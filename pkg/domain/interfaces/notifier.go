package interfaces

import (
	"context"

	"github.com/replykit/replykit/pkg/domain/model"
)

// Notifier delivers operator-attention events to the external notification
// collaborator. Delivery mechanics are outside the core's responsibility.
type Notifier interface {
	// NotifyEscalation reports a message that tripped the escalation rules
	NotifyEscalation(ctx context.Context, event *model.EscalationEvent) error

	// NotifyDeactivation reports a pattern automatically deactivated after
	// its confidence collapsed
	NotifyDeactivation(ctx context.Context, event *model.DeactivationEvent) error
}
