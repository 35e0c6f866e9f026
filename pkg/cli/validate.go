package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/replykit/replykit/pkg/cli/config"
	"github.com/replykit/replykit/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var tuningCfg config.Tuning
	var safetyCfg config.Safety

	var flags []cli.Flag
	flags = append(flags, tuningCfg.Flags()...)
	flags = append(flags, safetyCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate tuning values and safety rule files",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			tuning, err := tuningCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "tuning validation failed")
			}
			logger.Info("Tuning validation passed",
				"floor_similarity", tuning.FloorSimilarity,
				"top_k", tuning.TopK,
				"auto_execute_floor", tuning.AutoExecuteFloor,
				"suggest_floor", tuning.SuggestFloor,
			)

			if _, err := safetyCfg.Configure(); err != nil {
				return goerr.Wrap(err, "safety rule validation failed")
			}
			if safetyCfg.RulesPath() == "" {
				logger.Info("No safety rule file specified, built-in rules validated")
			} else {
				logger.Info("Safety rule validation passed", "path", safetyCfg.RulesPath())
			}

			return nil
		},
	}
}
