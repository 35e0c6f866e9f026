package types

import "fmt"

// FeedbackAction represents how an operator resolved a suggested response
type FeedbackAction string

const (
	// FeedbackAccepted means the response was sent unchanged (or auto-executed without complaint)
	FeedbackAccepted FeedbackAction = "accepted"
	// FeedbackEdited means the operator modified the response before sending
	FeedbackEdited FeedbackAction = "edited"
	// FeedbackRejected means the operator declined the suggestion entirely
	FeedbackRejected FeedbackAction = "rejected"
	// FeedbackIgnored means a queued item was never actioned within the timeout
	FeedbackIgnored FeedbackAction = "ignored"
)

// AllFeedbackActions returns all valid feedback actions
func AllFeedbackActions() []FeedbackAction {
	return []FeedbackAction{
		FeedbackAccepted,
		FeedbackEdited,
		FeedbackRejected,
		FeedbackIgnored,
	}
}

// IsValid checks if the feedback action is valid
func (a FeedbackAction) IsValid() bool {
	switch a {
	case FeedbackAccepted,
		FeedbackEdited,
		FeedbackRejected,
		FeedbackIgnored:
		return true
	default:
		return false
	}
}

// String returns the string representation of the feedback action
func (a FeedbackAction) String() string {
	return string(a)
}

// ParseFeedbackAction parses a string into a FeedbackAction
func ParseFeedbackAction(s string) (FeedbackAction, error) {
	action := FeedbackAction(s)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid feedback action: %s", s)
	}
	return action, nil
}
