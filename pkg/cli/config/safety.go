package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/service/safety"
	"github.com/replykit/replykit/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Safety holds CLI flags for the safety rule set
type Safety struct {
	rulesPath string
}

// Flags returns CLI flags for safety configuration
func (s *Safety) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "safety-rules",
			Usage:       "Path to a TOML file with blacklist and escalation keyword rules",
			Sources:     cli.EnvVars("REPLYKIT_SAFETY_RULES"),
			Destination: &s.rulesPath,
		},
	}
}

// RulesPath returns the configured rule file path
func (s *Safety) RulesPath() string {
	return s.rulesPath
}

// Configure builds the safety gate. Without a rule file the built-in
// default keyword sets are used.
func (s *Safety) Configure() (*safety.Gate, error) {
	if s.rulesPath == "" {
		logging.Default().Info("Using built-in safety rules")
		return safety.NewDefault(), nil
	}

	gate, err := safety.LoadRules(s.rulesPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load safety rules", goerr.V("path", s.rulesPath))
	}
	logging.Default().Info("Loaded safety rules", "path", s.rulesPath)
	return gate, nil
}
