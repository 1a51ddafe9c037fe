package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	distributionBuckets = 10

	// DailyDaysDefault is the default window for the daily series.
	DailyDaysDefault = 30

	selectSummarySQL = `SELECT
			COUNT(*) AS runs,
			COALESCE(SUM(CASE WHEN err_kind IS NOT NULL THEN 1 ELSE 0 END), 0) AS failures,
			COALESCE(AVG(CASE WHEN err_kind IS NULL THEN weirdness END), 0) AS avg_weirdness,
			COALESCE(MAX(CASE WHEN err_kind IS NULL THEN weirdness END), 0) AS max_weirdness,
			COALESCE(AVG(perplexity), 0) AS avg_perplexity,
			COALESCE(SUM(word_count), 0) AS words
		FROM run
	`

	// Weirdness decades 0-9 .. 90-99, with 100 folded into the last bucket.
	selectDistributionSQL = `SELECT
			MIN(weirdness / 10, 9) AS bucket,
			COUNT(*) AS cnt
		FROM run
		WHERE err_kind IS NULL
		GROUP BY bucket
		ORDER BY bucket
	`

	selectDailySQL = `SELECT
			substr(created_at, 1, 10) AS day,
			COUNT(*) AS runs,
			COALESCE(AVG(CASE WHEN err_kind IS NULL THEN weirdness END), 0) AS avg_weirdness
		FROM run
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day
	`
)

// Summary holds totals across all persisted runs.
type Summary struct {
	Runs          int     `json:"runs"`
	Failures      int     `json:"failures"`
	AvgWeirdness  float64 `json:"avg_weirdness"`
	MaxWeirdness  int     `json:"max_weirdness"`
	AvgPerplexity float64 `json:"avg_perplexity"`
	Words         int     `json:"words"`
}

// DistributionSeries is the weirdness histogram chart data.
type DistributionSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// DailySeries is the per-day runs and average weirdness chart data.
type DailySeries struct {
	Days         []string  `json:"days"`
	Runs         []int     `json:"runs"`
	AvgWeirdness []float64 `json:"avg_weirdness"`
}

// GetSummary returns totals across all persisted runs.
func GetSummary(db *sql.DB) (*Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	s := &Summary{}
	err := db.QueryRow(selectSummarySQL).Scan(&s.Runs, &s.Failures,
		&s.AvgWeirdness, &s.MaxWeirdness, &s.AvgPerplexity, &s.Words)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}

	return s, nil
}

// GetDistribution returns the weirdness histogram across successful runs.
// All ten buckets are always present, empty ones as zero.
func GetDistribution(db *sql.DB) (*DistributionSeries, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectDistributionSQL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query distribution: %w", err)
	}
	defer rows.Close()

	counts := make([]int, distributionBuckets)
	for rows.Next() {
		var bucket, cnt int
		if err := rows.Scan(&bucket, &cnt); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		if bucket >= 0 && bucket < distributionBuckets {
			counts[bucket] = cnt
		}
	}

	s := &DistributionSeries{
		Labels: make([]string, 0, distributionBuckets),
		Data:   make([]int, 0, distributionBuckets),
	}
	for i := 0; i < distributionBuckets; i++ {
		label := fmt.Sprintf("%d-%d", i*10, i*10+9)
		if i == distributionBuckets-1 {
			label = "90-100"
		}
		s.Labels = append(s.Labels, label)
		s.Data = append(s.Data, counts[i])
	}

	return s, nil
}

// GetDaily returns per-day run counts and average weirdness for the last
// N days.
func GetDaily(db *sql.DB, days int) (*DailySeries, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	if days < 1 {
		days = DailyDaysDefault
	}

	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := db.Query(selectDailySQL, since)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query daily series: %w", err)
	}
	defer rows.Close()

	s := &DailySeries{
		Days:         make([]string, 0),
		Runs:         make([]int, 0),
		AvgWeirdness: make([]float64, 0),
	}

	for rows.Next() {
		var day string
		var runs int
		var avg float64
		if err := rows.Scan(&day, &runs, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan daily row: %w", err)
		}
		s.Days = append(s.Days, day)
		s.Runs = append(s.Runs, runs)
		s.AvgWeirdness = append(s.AvgWeirdness, avg)
	}

	return s, nil
}
