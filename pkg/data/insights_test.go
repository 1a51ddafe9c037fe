package data

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddmeter/oddmeter/pkg/score"
)

func seedRun(t *testing.T, db *sql.DB, id string, weirdness int, pp float64, errKind, createdAt string) {
	t.Helper()

	r := &Run{
		ID:        id,
		Sentence:  "seed sentence",
		WordCount: 2,
		Weirdness: weirdness,
		CreatedAt: createdAt,
	}
	if errKind != "" {
		r.ErrKind = &errKind
	} else {
		r.Perplexity = &pp
	}

	require.NoError(t, SaveRun(db, r))
}

func today() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

func TestGetSummary(t *testing.T) {
	db := setupTestDB(t)

	seedRun(t, db, "a", 20, 2.5, "", today())
	seedRun(t, db, "b", 40, 7.5, "", today())
	seedRun(t, db, "c", 0, 0, score.KindProvider, today())

	s, err := GetSummary(db)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Runs)
	assert.Equal(t, 1, s.Failures)
	assert.InDelta(t, 30.0, s.AvgWeirdness, 0.0001)
	assert.Equal(t, 40, s.MaxWeirdness)
	assert.InDelta(t, 5.0, s.AvgPerplexity, 0.0001)
	assert.Equal(t, 6, s.Words)
}

func TestGetSummary_EmptyDB(t *testing.T) {
	db := setupTestDB(t)

	s, err := GetSummary(db)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Runs)
	assert.Equal(t, 0, s.Failures)
	assert.Equal(t, 0.0, s.AvgWeirdness)
}

func TestGetDistribution(t *testing.T) {
	db := setupTestDB(t)

	seedRun(t, db, "a", 5, 1.2, "", today())
	seedRun(t, db, "b", 17, 2.7, "", today())
	seedRun(t, db, "c", 19, 2.9, "", today())
	seedRun(t, db, "d", 95, 900, "", today())
	seedRun(t, db, "e", 100, 22026, "", today())
	// failed runs are excluded from the histogram
	seedRun(t, db, "f", 0, 0, score.KindProvider, today())

	s, err := GetDistribution(db)
	require.NoError(t, err)
	require.Len(t, s.Labels, 10)
	require.Len(t, s.Data, 10)

	assert.Equal(t, "0-9", s.Labels[0])
	assert.Equal(t, "10-19", s.Labels[1])
	assert.Equal(t, "90-100", s.Labels[9])

	assert.Equal(t, 1, s.Data[0])
	assert.Equal(t, 2, s.Data[1])
	assert.Equal(t, 2, s.Data[9])

	total := 0
	for _, n := range s.Data {
		total += n
	}
	assert.Equal(t, 5, total)
}

func TestGetDistribution_EmptyDB(t *testing.T) {
	db := setupTestDB(t)

	s, err := GetDistribution(db)
	require.NoError(t, err)
	require.Len(t, s.Data, 10)
	for _, n := range s.Data {
		assert.Equal(t, 0, n)
	}
}

func TestGetDaily(t *testing.T) {
	db := setupTestDB(t)

	seedRun(t, db, "a", 20, 2.5, "", today())
	seedRun(t, db, "b", 40, 7.5, "", today())

	s, err := GetDaily(db, 7)
	require.NoError(t, err)
	require.Len(t, s.Days, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), s.Days[0])
	assert.Equal(t, 2, s.Runs[0])
	assert.InDelta(t, 30.0, s.AvgWeirdness[0], 0.0001)
}

func TestGetDaily_ExcludesOldRuns(t *testing.T) {
	db := setupTestDB(t)

	seedRun(t, db, "old", 20, 2.5, "", "2020-01-01T10:00:00Z")
	seedRun(t, db, "new", 40, 7.5, "", today())

	s, err := GetDaily(db, 7)
	require.NoError(t, err)
	require.Len(t, s.Days, 1)
	assert.Equal(t, 1, s.Runs[0])
}

func TestInsights_NilDB(t *testing.T) {
	_, err := GetSummary(nil)
	assert.ErrorIs(t, err, errDBNotInitialized)

	_, err = GetDistribution(nil)
	assert.ErrorIs(t, err, errDBNotInitialized)

	_, err = GetDaily(nil, 7)
	assert.ErrorIs(t, err, errDBNotInitialized)
}
