package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oddmeter/oddmeter/pkg/data"
	"github.com/oddmeter/oddmeter/pkg/lm"
	"github.com/oddmeter/oddmeter/pkg/score"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const concurrencyMax = 16

var (
	sentenceFlag = &cli.StringFlag{
		Name:    "sentence",
		Aliases: []string{"s"},
		Usage:   "Sentence to score",
	}

	fileFlag = &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Path to a file with one sentence per line",
	}

	concurrencyFlag = &cli.IntFlag{
		Name:    "concurrency",
		Aliases: []string{"c"},
		Usage:   "Number of sentences to score in parallel (default from config)",
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Score sentence weirdness using the configured language model",
		UsageText: `oddmeter score --sentence "the cat sat on the mat"    # score one sentence
   oddmeter score --file ./sentences.txt                  # score a file, one sentence per line
   oddmeter score --file ./sentences.txt --concurrency 8  # with parallel scoring`,
		Action: cmdScore,
		Flags: []cli.Flag{
			sentenceFlag,
			fileFlag,
			concurrencyFlag,
			debugFlag,
		},
	}
)

// ScoreReport is the encoded output of a score run.
type ScoreReport struct {
	Model    string          `json:"model" yaml:"model"`
	Results  []*score.Result `json:"results" yaml:"results"`
	Duration string          `json:"duration" yaml:"duration"`
}

func cmdScore(c *cli.Context) error {
	applyFlags(c)
	start := time.Now()
	cfg := getConfig(c)

	sentences, err := resolveSentences(c)
	if err != nil {
		return err
	}
	if len(sentences) == 0 {
		return cli.ShowSubcommandHelp(c)
	}

	provider := lm.NewClient(cfg.Conf.BaseURL, cfg.Conf.Model, getToken(), cfg.Conf.Timeout())
	scorer := score.NewScorer(provider)

	workers := c.Int(concurrencyFlag.Name)
	if workers <= 0 {
		workers = cfg.Conf.MaxConcurrency
	}
	if workers > concurrencyMax {
		workers = concurrencyMax
	}

	slog.Debug("scoring sentences", "count", len(sentences), "workers", workers, "model", provider.Model())

	results := make([]*score.Result, len(sentences))

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(workers)

	for i, s := range sentences {
		g.Go(func() error {
			began := time.Now()
			res := scorer.Score(ctx, s)
			results[i] = res

			if saveErr := data.SaveRun(cfg.DB, data.NewRun(res, provider.Model(), time.Since(began))); saveErr != nil {
				slog.Error("failed to save run", "error", saveErr)
			}
			return nil
		})
	}

	// Score reports failures inside each result, so the group only
	// exists for its worker limit.
	_ = g.Wait()

	report := &ScoreReport{
		Model:    provider.Model(),
		Results:  results,
		Duration: time.Since(start).String(),
	}

	if err := encode(report); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

func resolveSentences(c *cli.Context) ([]string, error) {
	sentence := strings.TrimSpace(c.String(sentenceFlag.Name))
	file := c.String(fileFlag.Name)

	if sentence != "" && file != "" {
		return nil, fmt.Errorf("--%s and --%s are mutually exclusive", sentenceFlag.Name, fileFlag.Name)
	}

	if file != "" {
		return readSentenceFile(file)
	}

	if c.IsSet(sentenceFlag.Name) && sentence == "" {
		return nil, fmt.Errorf("sentence is empty: nothing to score")
	}

	if sentence == "" {
		return nil, nil
	}

	return []string{sentence}, nil
}

// readSentenceFile loads one sentence per line, skipping blanks.
func readSentenceFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sentence file %s: %w", path, err)
	}
	defer f.Close()

	var sentences []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			sentences = append(sentences, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sentence file %s: %w", path, err)
	}

	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences found in %s", path)
	}

	return sentences, nil
}
