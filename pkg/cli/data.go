package cli

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oddmeter/oddmeter/pkg/data"
	"github.com/oddmeter/oddmeter/pkg/score"
)

const queryParamMax = 1000

type scoreRequest struct {
	Sentence string `json:"sentence"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// scoreAPIHandler scores a sentence and records the run. Empty input is
// rejected here; the scorer itself never sees it. Provider failures
// still return a complete result with the failure detail embedded.
func scoreAPIHandler(db *sql.DB, scorer *score.Scorer, model string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("error binding json", "error", err)
			writeError(w, http.StatusBadRequest, "error binding json")
			return
		}

		sentence := strings.TrimSpace(req.Sentence)
		if sentence == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": &score.ErrorDetail{
					Kind:    score.KindEmptyInput,
					Message: "sentence must not be empty",
				},
			})
			return
		}

		began := time.Now()
		res := scorer.Score(r.Context(), sentence)

		if err := data.SaveRun(db, data.NewRun(res, model, time.Since(began))); err != nil {
			slog.Error("failed to save run", "error", err)
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func historyAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryParamInt(r, "limit", historyLimitDefault)
		list, err := data.ListRuns(db, limit)
		if err != nil {
			slog.Error("failed to list runs", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying run history")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func insightsSummaryAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := data.GetSummary(db)
		if err != nil {
			slog.Error("failed to get insights summary", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying insights summary")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func insightsDistributionAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := data.GetDistribution(db)
		if err != nil {
			slog.Error("failed to get weirdness distribution", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying weirdness distribution")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func insightsDailyAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := queryParamInt(r, "days", data.DailyDaysDefault)
		res, err := data.GetDaily(db, days)
		if err != nil {
			slog.Error("failed to get daily series", "error", err)
			writeError(w, http.StatusInternalServerError, "error querying daily series")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Error("error converting query string to int", "value", v, "error", err)
		return def
	}

	if i < 1 || i > queryParamMax {
		return def
	}

	return i
}
