package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/oddmeter/oddmeter/pkg/data"
	"github.com/urfave/cli/v2"
)

const historyLimitDefault = 100

var (
	historyLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of runs returned",
		Value: historyLimitDefault,
	}

	historyCmd = &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List history operations",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Usage:   "List scored runs, newest first",
				Aliases: []string{"l"},
				Action:  cmdHistoryList,
				Flags: []cli.Flag{
					historyLimitFlag,
				},
			},
			{
				Name:   "purge",
				Usage:  "Delete all scored runs and start fresh",
				Action: cmdHistoryPurge,
			},
		},
	}
)

func cmdHistoryList(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.ListRuns(cfg.DB, c.Int(historyLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if err := encode(list); err != nil {
		return fmt.Errorf("error encoding list: %w", err)
	}

	return nil
}

func cmdHistoryPurge(c *cli.Context) error {
	cfg := getConfig(c)

	fmt.Printf("This will permanently delete all scored runs in %s\n", cfg.DBPath)
	fmt.Print("Are you sure? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("Aborted.")
		return nil
	}

	n, err := data.PurgeRuns(cfg.DB)
	if err != nil {
		return fmt.Errorf("purging runs: %w", err)
	}

	fmt.Printf("Purged %d runs.\n", n)
	return nil
}
