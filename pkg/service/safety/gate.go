package safety

import (
	"strings"

	"github.com/replykit/replykit/pkg/domain/model"
	"github.com/replykit/replykit/pkg/domain/types"
)

// RuleSet is one named group of keywords checked against the message and the
// candidate response text.
type RuleSet struct {
	Reason   string
	Keywords []string
}

// Gate classifies a message/response pair as blocked-from-automation or
// requiring-escalation, independent of any confidence value. Both rule sets
// are checked unconditionally; absence of any hit is the pass-through verdict.
type Gate struct {
	blacklist  []RuleSet
	escalation []RuleSet
}

// New creates a gate with the given rule sets
func New(blacklist, escalation []RuleSet) *Gate {
	return &Gate{
		blacklist:  normalizeRuleSets(blacklist),
		escalation: normalizeRuleSets(escalation),
	}
}

// NewDefault creates a gate with the built-in rule sets: topics that must
// never be auto-answered and markers that demand operator attention.
func NewDefault() *Gate {
	return New(defaultBlacklist(), defaultEscalation())
}

// Evaluate checks both rule sets against the message and response text.
// It never fails for well-formed input.
func (g *Gate) Evaluate(messageText, responseText string, category types.Category) model.Verdict {
	verdict := model.Verdict{}

	haystack := strings.ToLower(messageText + "\n" + responseText)

	if reason, hit := match(g.blacklist, haystack); hit {
		verdict.Blocked = true
		verdict.Reason = reason
	}
	if reason, hit := match(g.escalation, haystack); hit {
		verdict.Escalate = true
		if verdict.Reason == "" {
			verdict.Reason = reason
		} else {
			verdict.Reason += "; " + reason
		}
	}

	return verdict
}

func match(sets []RuleSet, haystack string) (string, bool) {
	for _, set := range sets {
		for _, kw := range set.Keywords {
			if strings.Contains(haystack, kw) {
				return set.Reason, true
			}
		}
	}
	return "", false
}

func normalizeRuleSets(sets []RuleSet) []RuleSet {
	normalized := make([]RuleSet, 0, len(sets))
	for _, set := range sets {
		keywords := make([]string, 0, len(set.Keywords))
		for _, kw := range set.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) > 0 {
			normalized = append(normalized, RuleSet{Reason: set.Reason, Keywords: keywords})
		}
	}
	return normalized
}

// defaultBlacklist covers categories that must never be auto-answered.
func defaultBlacklist() []RuleSet {
	return []RuleSet{
		{
			Reason: "legal matter",
			Keywords: []string{
				"lawsuit", "attorney", "my lawyer", "legal action", "small claims",
				"liability", "sue you", "suing",
			},
		},
		{
			Reason: "medical emergency",
			Keywords: []string{
				"emergency", "ambulance", "injured", "bleeding", "allergic reaction",
				"call 911", "passed out",
			},
		},
		{
			Reason: "refund or compensation demand",
			Keywords: []string{
				"refund", "chargeback", "money back", "compensation", "reimburse",
			},
		},
		{
			Reason: "harassment report",
			Keywords: []string{
				"harass", "assault", "threatened me", "stalking", "inappropriate touching",
			},
		},
	}
}

// defaultEscalation covers operator-attention markers.
func defaultEscalation() []RuleSet {
	return []RuleSet{
		{
			Reason: "manager requested",
			Keywords: []string{
				"speak to a manager", "talk to a manager", "speak to a human",
				"real person", "talk to someone",
			},
		},
		{
			Reason: "anger markers",
			Keywords: []string{
				"unacceptable", "ridiculous", "furious", "worst", "never coming back",
				"pissed", "fed up",
			},
		},
		{
			Reason: "legal threat",
			Keywords: []string{
				"lawsuit", "lawyer", "attorney", "legal action", "report you",
				"better business bureau",
			},
		},
	}
}
