package cli

import (
	"fmt"

	"github.com/oddmeter/oddmeter/pkg/lm"
	"github.com/urfave/cli/v2"
)

var modelsCmd = &cli.Command{
	Name:            "models",
	Aliases:         []string{"m"},
	HideHelpCommand: true,
	Usage:           "List models available from the configured provider",
	Action:          cmdListModels,
}

func cmdListModels(c *cli.Context) error {
	cfg := getConfig(c)

	client := lm.NewClient(cfg.Conf.BaseURL, cfg.Conf.Model, getToken(), cfg.Conf.Timeout())
	models, err := client.ListModels(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if err := encode(models); err != nil {
		return fmt.Errorf("error encoding list: %w", err)
	}

	return nil
}
