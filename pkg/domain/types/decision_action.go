package types

import "fmt"

// DecisionAction represents the action chosen for an inbound message
type DecisionAction string

const (
	// DecisionAutoExecute sends the generated response without human review
	DecisionAutoExecute DecisionAction = "AUTO_EXECUTE"
	// DecisionSuggest proposes the response to a human operator
	DecisionSuggest DecisionAction = "SUGGEST"
	// DecisionQueueForReview queues the message for human triage
	DecisionQueueForReview DecisionAction = "QUEUE_FOR_REVIEW"
	// DecisionNone takes no action; no pattern matched
	DecisionNone DecisionAction = "NONE"
)

// AllDecisionActions returns all valid decision actions
func AllDecisionActions() []DecisionAction {
	return []DecisionAction{
		DecisionAutoExecute,
		DecisionSuggest,
		DecisionQueueForReview,
		DecisionNone,
	}
}

// IsValid checks if the decision action is valid
func (a DecisionAction) IsValid() bool {
	switch a {
	case DecisionAutoExecute,
		DecisionSuggest,
		DecisionQueueForReview,
		DecisionNone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the decision action
func (a DecisionAction) String() string {
	return string(a)
}

// ParseDecisionAction parses a string into a DecisionAction
func ParseDecisionAction(s string) (DecisionAction, error) {
	action := DecisionAction(s)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid decision action: %s", s)
	}
	return action, nil
}
