package safety_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/replykit/replykit/pkg/domain/types"
	"github.com/replykit/replykit/pkg/service/safety"
)

func TestGateEvaluate(t *testing.T) {
	gate := safety.NewDefault()

	t.Run("neutral message passes through", func(t *testing.T) {
		verdict := gate.Evaluate("what time do you open tomorrow", "We open at 9am.", types.CategoryHours)
		gt.Bool(t, verdict.Blocked).False()
		gt.Bool(t, verdict.Escalate).False()
		gt.Value(t, verdict.Reason).Equal("")
	})

	t.Run("refund demand is blocked from automation", func(t *testing.T) {
		verdict := gate.Evaluate("I want a refund for last month", "", types.CategoryPricing)
		gt.Bool(t, verdict.Blocked).True()
		gt.String(t, verdict.Reason).NotEqual("")
	})

	t.Run("manager request escalates", func(t *testing.T) {
		verdict := gate.Evaluate("let me speak to a manager right now", "", types.CategoryGeneral)
		gt.Bool(t, verdict.Escalate).True()
	})

	t.Run("legal threat both blocks and escalates", func(t *testing.T) {
		verdict := gate.Evaluate("my lawyer will hear about this", "", types.CategoryGeneral)
		gt.Bool(t, verdict.Blocked).True()
		gt.Bool(t, verdict.Escalate).True()
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		verdict := gate.Evaluate("THIS IS UNACCEPTABLE", "", types.CategoryGeneral)
		gt.Bool(t, verdict.Escalate).True()
	})

	t.Run("response text is also checked", func(t *testing.T) {
		verdict := gate.Evaluate("how do I change my booking", "We can offer a refund instead.", types.CategoryBooking)
		gt.Bool(t, verdict.Blocked).True()
	})
}

func TestGateCustomRules(t *testing.T) {
	gate := safety.New(
		[]safety.RuleSet{{Reason: "outage", Keywords: []string{"data loss"}}},
		[]safety.RuleSet{{Reason: "vip", Keywords: []string{"enterprise plan"}}},
	)

	t.Run("custom blacklist replaces defaults", func(t *testing.T) {
		verdict := gate.Evaluate("I want a refund", "", types.CategoryPricing)
		gt.Bool(t, verdict.Blocked).False()

		verdict = gate.Evaluate("we hit data loss after the update", "", types.CategoryTechnicalIssue)
		gt.Bool(t, verdict.Blocked).True()
		gt.Value(t, verdict.Reason).Equal("outage")
	})

	t.Run("custom escalation rule fires", func(t *testing.T) {
		verdict := gate.Evaluate("we are on the enterprise plan and this keeps failing", "", types.CategoryTechnicalIssue)
		gt.Bool(t, verdict.Escalate).True()
		gt.Value(t, verdict.Reason).Equal("vip")
	})
}

func TestLoadRules(t *testing.T) {
	writeRules := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "rules.toml")
		gt.NoError(t, os.WriteFile(path, []byte(content), 0644)).Required()
		return path
	}

	t.Run("valid file loads", func(t *testing.T) {
		path := writeRules(t, `
[[blacklist]]
reason = "legal matter"
keywords = ["lawsuit", "attorney"]

[[escalation]]
reason = "anger"
keywords = ["furious"]
`)
		gate, err := safety.LoadRules(path)
		gt.NoError(t, err).Required()

		verdict := gate.Evaluate("I am filing a lawsuit", "", types.CategoryGeneral)
		gt.Bool(t, verdict.Blocked).True()
		verdict = gate.Evaluate("I am furious", "", types.CategoryGeneral)
		gt.Bool(t, verdict.Escalate).True()
	})

	t.Run("missing blacklist fails", func(t *testing.T) {
		path := writeRules(t, `
[[escalation]]
reason = "anger"
keywords = ["furious"]
`)
		_, err := safety.LoadRules(path)
		gt.Error(t, err)
	})

	t.Run("rule set without keywords fails", func(t *testing.T) {
		path := writeRules(t, `
[[blacklist]]
reason = "empty"
keywords = []
`)
		_, err := safety.LoadRules(path)
		gt.Error(t, err)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := safety.LoadRules(filepath.Join(t.TempDir(), "absent.toml"))
		gt.Error(t, err)
	})
}
