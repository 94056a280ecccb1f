package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnhrk15/hpb-repeat-analyzer/analysis"
	"github.com/mnhrk15/hpb-repeat-analyzer/models"
	"github.com/mnhrk15/hpb-repeat-analyzer/report"
	"github.com/mnhrk15/hpb-repeat-analyzer/store"
	"github.com/mnhrk15/hpb-repeat-analyzer/utils"
)

// AnalyzeHandlers runs the cohort analysis against the current snapshot and
// serves its aggregates (dashboard, charts, text report, run history).
type AnalyzeHandlers struct {
	Snapshots *store.SnapshotStore
	Runs      *store.RunStore     // nil when Postgres is not configured
	Archive   *store.VisitArchive // nil when ClickHouse is not configured
}

func NewAnalyzeHandlers(snapshots *store.SnapshotStore, runs *store.RunStore, archive *store.VisitArchive) *AnalyzeHandlers {
	return &AnalyzeHandlers{Snapshots: snapshots, Runs: runs, Archive: archive}
}

// Analyze validates the configuration, computes the result and publishes it
// as a superseding snapshot. Unknown request fields are rejected rather than
// ignored.
func (h *AnalyzeHandlers) Analyze(c *gin.Context) {
	run := h.Snapshots.Current()
	if run == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No dataset uploaded yet"})
		return
	}

	var cfg models.AnalysisConfig
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	cfg.Normalize()

	window, err := analysis.ParseWindow(&cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	facts := analysis.BuildCustomerFacts(run.Records, window)
	result := analysis.Aggregate(facts, &cfg, window)

	analyzed := run.WithResult(result)
	if !h.Snapshots.ReplaceIfCurrent(run.RunID, analyzed) {
		// Another upload landed while the analysis ran; its dataset must not
		// be displaced by results computed from the superseded one.
		c.JSON(http.StatusConflict, gin.H{"error": "Dataset changed while the analysis was running; re-run analyze"})
		return
	}
	log.Printf("Analysis complete for run %s: %d new customers, overall repeat rate %.3f",
		analyzed.RunID, result.NewCustomerCount, result.OverallRepeatRate)

	if h.Runs != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.Runs.SaveRun(ctx, analyzed); err != nil {
			log.Printf("Error persisting run history for %s: %v", analyzed.RunID, err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// Dashboard returns the current run's ingestion summary and analysis result.
func (h *AnalyzeHandlers) Dashboard(c *gin.Context) {
	run, ok := h.analyzedRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runId":     run.RunID,
		"createdAt": run.CreatedAt,
		"summary":   run.Summary,
		"result":    run.Result,
	})
}

// Chart serves one chart payload; kind is one of distribution, stylist_rate,
// coupon_rate, funnel.
func (h *AnalyzeHandlers) Chart(c *gin.Context) {
	kind := c.Param("kind")
	if !utils.IsValidChartKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown chart kind %q", kind)})
		return
	}

	run, ok := h.analyzedRun(c)
	if !ok {
		return
	}
	payload, err := report.Chart(kind, run.Result)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// Report streams the plain-text report as a download.
func (h *AnalyzeHandlers) Report(c *gin.Context) {
	run, ok := h.analyzedRun(c)
	if !ok {
		return
	}

	text := report.Render(run.Result)
	filename := fmt.Sprintf("リピート分析レポート_%s.txt", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// RunHistory lists persisted run history.
func (h *AnalyzeHandlers) RunHistory(c *gin.Context) {
	if h.Runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Run history requires a configured PostgreSQL database"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	records, err := h.Runs.ListRuns(ctx, limit)
	if err != nil {
		log.Printf("Error listing run history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// VisitCounts serves monthly visit counts from the archive.
func (h *AnalyzeHandlers) VisitCounts(c *gin.Context) {
	if h.Archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Visit statistics require a configured ClickHouse database"})
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(-1, 0, 0)
	var err error
	if raw := c.Query("start"); raw != "" {
		start, err = time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' date format. Use YYYY-MM-DD"})
			return
		}
	}
	if raw := c.Query("end"); raw != "" {
		end, err = time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' date format. Use YYYY-MM-DD"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Archive.VisitCountsByMonth(ctx, start, end)
	if err != nil {
		log.Printf("Error getting monthly visit counts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visit statistics"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// analyzedRun fetches the current run and ensures analyze has been run,
// replying with the appropriate error itself when not.
func (h *AnalyzeHandlers) analyzedRun(c *gin.Context) (*models.AnalysisRun, bool) {
	run := h.Snapshots.Current()
	if run == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No dataset uploaded yet"})
		return nil, false
	}
	if run.Result == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Analysis has not been run for the current dataset"})
		return nil, false
	}
	return run, true
}
