package data

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/oddmeter/oddmeter/pkg/score"
)

const (
	listLimitDefault = 100
	listLimitMax     = 1000

	insertRunSQL = `INSERT INTO run (
			id, sentence, word_count, weirdness, perplexity, avg_logprob,
			token_count, model, err_kind, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT id, sentence, word_count, weirdness, perplexity,
			avg_logprob, token_count, model, err_kind, duration_ms, created_at
		FROM run
		ORDER BY created_at DESC, id
		LIMIT ?
	`

	deleteRunsSQL = `DELETE FROM run`
)

// Run is one persisted score run. Perplexity and AvgLogProb are nil for
// failed runs; ErrKind is nil for successful ones.
type Run struct {
	ID         string   `json:"id" yaml:"id"`
	Sentence   string   `json:"sentence" yaml:"sentence"`
	WordCount  int      `json:"word_count" yaml:"wordCount"`
	Weirdness  int      `json:"weirdness" yaml:"weirdness"`
	Perplexity *float64 `json:"perplexity,omitempty" yaml:"perplexity,omitempty"`
	AvgLogProb *float64 `json:"avg_logprob,omitempty" yaml:"avgLogProb,omitempty"`
	TokenCount int      `json:"token_count" yaml:"tokenCount"`
	Model      string   `json:"model" yaml:"model"`
	ErrKind    *string  `json:"err_kind,omitempty" yaml:"errKind,omitempty"`
	DurationMS int64    `json:"duration_ms" yaml:"durationMs"`
	CreatedAt  string   `json:"created_at" yaml:"createdAt"`
}

// NewRun builds a persistable record from a score result. The average
// token log-probability is recovered from the perplexity, which is its
// exact inverse.
func NewRun(res *score.Result, model string, duration time.Duration) *Run {
	r := &Run{
		ID:         uuid.New().String(),
		Sentence:   res.Sentence,
		WordCount:  res.WordCount,
		Weirdness:  res.Weirdness,
		TokenCount: res.TokenCount,
		Model:      model,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  time.Now().UTC().Format(timestampFormat),
	}

	if res.Err != nil {
		k := res.Err.Kind
		r.ErrKind = &k
	} else {
		p := res.Perplexity
		lp := -math.Log(res.Perplexity)
		r.Perplexity = &p
		r.AvgLogProb = &lp
	}

	return r
}

// SaveRun inserts one run.
func SaveRun(db *sql.DB, r *Run) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil {
		return errors.New("run required")
	}

	_, err := db.Exec(insertRunSQL,
		r.ID, r.Sentence, r.WordCount, r.Weirdness, r.Perplexity, r.AvgLogProb,
		r.TokenCount, r.Model, r.ErrKind, r.DurationMS, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.ID, err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	if limit < 1 || limit > listLimitMax {
		limit = listLimitDefault
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r := &Run{}
		var pp, lp sql.NullFloat64
		var errKind sql.NullString

		if err := rows.Scan(&r.ID, &r.Sentence, &r.WordCount, &r.Weirdness,
			&pp, &lp, &r.TokenCount, &r.Model, &errKind, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		if pp.Valid {
			v := pp.Float64
			r.Perplexity = &v
		}
		if lp.Valid {
			v := lp.Float64
			r.AvgLogProb = &v
		}
		if errKind.Valid && errKind.String != "" {
			k := errKind.String
			r.ErrKind = &k
		}

		list = append(list, r)
	}

	return list, nil
}

// PurgeRuns deletes all persisted runs and reports how many were removed.
func PurgeRuns(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	res, err := db.Exec(deleteRunsSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to purge runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged runs: %w", err)
	}

	return n, nil
}
