package store

import (
	"testing"
	"time"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

func TestSnapshotStore_ReplaceAndCurrent(t *testing.T) {
	s := NewSnapshotStore()
	if s.Current() != nil {
		t.Fatal("expected empty store to return nil")
	}

	first := &models.AnalysisRun{RunID: "run-1", CreatedAt: time.Now().UTC()}
	s.Replace(first)
	if got := s.Current(); got != first {
		t.Fatalf("Current() = %v, want first run", got)
	}

	second := &models.AnalysisRun{RunID: "run-2", CreatedAt: time.Now().UTC()}
	s.Replace(second)
	if got := s.Current(); got != second {
		t.Fatalf("Current() = %v, want second run", got)
	}
}

func TestSnapshotStore_OldReadersKeepTheirRun(t *testing.T) {
	s := NewSnapshotStore()
	first := &models.AnalysisRun{RunID: "run-1"}
	s.Replace(first)

	held := s.Current()
	s.Replace(&models.AnalysisRun{RunID: "run-2"})

	if held.RunID != "run-1" {
		t.Fatalf("held run mutated: %q", held.RunID)
	}
}

func TestSnapshotStore_ReplaceIfCurrent(t *testing.T) {
	s := NewSnapshotStore()
	if s.ReplaceIfCurrent("run-1", &models.AnalysisRun{RunID: "run-1"}) {
		t.Fatal("swap against an empty store must be refused")
	}

	first := &models.AnalysisRun{RunID: "run-1"}
	s.Replace(first)

	analyzed := first.WithResult(&models.AnalysisResult{NewCustomerCount: 1})
	if !s.ReplaceIfCurrent("run-1", analyzed) {
		t.Fatal("swap against the unchanged snapshot must succeed")
	}
	if s.Current() != analyzed {
		t.Fatalf("Current() = %v, want the analyzed copy", s.Current())
	}
}

func TestSnapshotStore_StaleAnalysisCannotResurrectOldRun(t *testing.T) {
	s := NewSnapshotStore()

	// An analysis starts against run-1, then a fresh upload installs run-2
	// before the analysis publishes.
	stale := &models.AnalysisRun{RunID: "run-1"}
	s.Replace(stale)
	held := s.Current()
	s.Replace(&models.AnalysisRun{RunID: "run-2"})

	if s.ReplaceIfCurrent(held.RunID, held.WithResult(&models.AnalysisResult{})) {
		t.Fatal("swap keyed to a superseded run must be refused")
	}
	if got := s.Current(); got.RunID != "run-2" {
		t.Fatalf("current run is %q, want the freshly uploaded run-2", got.RunID)
	}
}

func TestAnalysisRun_WithResultDoesNotMutateOriginal(t *testing.T) {
	run := &models.AnalysisRun{
		RunID:   "run-1",
		Records: []models.VisitRecord{{CustomerID: "A"}},
	}
	res := &models.AnalysisResult{NewCustomerCount: 1}

	analyzed := run.WithResult(res)
	if analyzed.Result != res {
		t.Fatal("copy does not carry the result")
	}
	if run.Result != nil {
		t.Fatal("original run gained a result")
	}
	if analyzed.RunID != run.RunID || len(analyzed.Records) != 1 {
		t.Fatalf("copy lost fields: %+v", analyzed)
	}
}
