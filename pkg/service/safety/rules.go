package safety

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// rulesFile is the TOML representation of gate rule sets
type rulesFile struct {
	Blacklist  []ruleSetEntry `toml:"blacklist"`
	Escalation []ruleSetEntry `toml:"escalation"`
}

type ruleSetEntry struct {
	Reason   string   `toml:"reason"`
	Keywords []string `toml:"keywords"`
}

func (e *ruleSetEntry) validate() error {
	if e.Reason == "" {
		return goerr.New("rule set reason is required")
	}
	if len(e.Keywords) == 0 {
		return goerr.New("rule set requires at least one keyword", goerr.V("reason", e.Reason))
	}
	return nil
}

// LoadRules reads gate rule sets from a TOML file. An operator-maintained
// rules file fully replaces the built-in defaults.
func LoadRules(path string) (*Gate, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read safety rules file", goerr.V("path", path))
	}

	var file rulesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML safety rules", goerr.V("path", path))
	}

	if len(file.Blacklist) == 0 {
		return nil, goerr.New("safety rules file must define at least one blacklist rule set", goerr.V("path", path))
	}

	toRuleSets := func(entries []ruleSetEntry) ([]RuleSet, error) {
		sets := make([]RuleSet, 0, len(entries))
		for _, e := range entries {
			if err := e.validate(); err != nil {
				return nil, goerr.Wrap(err, "invalid rule set", goerr.V("path", path))
			}
			sets = append(sets, RuleSet{Reason: e.Reason, Keywords: e.Keywords})
		}
		return sets, nil
	}

	blacklist, err := toRuleSets(file.Blacklist)
	if err != nil {
		return nil, err
	}
	escalation, err := toRuleSets(file.Escalation)
	if err != nil {
		return nil, err
	}

	return New(blacklist, escalation), nil
}
