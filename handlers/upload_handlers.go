package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mnhrk15/hpb-repeat-analyzer/ingest"
	"github.com/mnhrk15/hpb-repeat-analyzer/models"
	"github.com/mnhrk15/hpb-repeat-analyzer/store"
)

// UploadHandlers receives CSV exports and builds a new analysis snapshot.
type UploadHandlers struct {
	Snapshots *store.SnapshotStore
	Archive   *store.VisitArchive // nil when ClickHouse is not configured
}

func NewUploadHandlers(snapshots *store.SnapshotStore, archive *store.VisitArchive) *UploadHandlers {
	return &UploadHandlers{Snapshots: snapshots, Archive: archive}
}

// Upload ingests the multipart "csv_files" field into a fresh AnalysisRun
// and replaces the current snapshot. File-level ingestion failures are
// returned verbatim with the offending file name; they never leave a
// partially-updated snapshot behind.
func (h *UploadHandlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form", "details": err.Error()})
		return
	}

	fileHeaders := form.File["csv_files"]
	var uploads []ingest.UploadedFile
	for _, fh := range fileHeaders {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file " + fh.Filename})
			return
		}
		uploads = append(uploads, ingest.UploadedFile{Name: fh.Filename, Data: data})
	}

	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No CSV files uploaded"})
		return
	}

	records, summary, err := ingest.Files(uploads)
	if err != nil {
		log.Printf("Ingestion failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run := &models.AnalysisRun{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Records:   records,
		Summary:   summary,
	}
	h.Snapshots.Replace(run)

	if h.Archive != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		if err := h.Archive.InsertVisits(ctx, run.RunID, records); err != nil {
			// Archiving is best effort; the snapshot is already live.
			log.Printf("Error archiving visit records for run %s: %v", run.RunID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"runId":   run.RunID,
		"summary": summary,
	})
}
