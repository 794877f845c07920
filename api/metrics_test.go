package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestDocumentRequestMetricsLogFields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	metrics := newDocumentRequestMetrics("GET /api/data/:id", logger)
	metrics.start = metrics.start.Add(-50 * time.Millisecond)
	metrics.ObserveFetch(15 * time.Millisecond)
	metrics.ObserveEncode(5 * time.Millisecond)
	metrics.SetCounts(3, 2)

	metrics.Log(http.StatusOK, nil)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Message != "document.request.metrics" {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if entry.Data["route"] != "GET /api/data/:id" || entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected fields: %#v", entry.Data)
	}
	if entry.Data["tasks"] != 3 || entry.Data["team"] != 2 {
		t.Fatalf("unexpected counts: %#v", entry.Data)
	}
	if _, ok := entry.Data["persist_ms"]; ok {
		t.Fatalf("persist duration must be omitted when not observed")
	}
	if entry.Data["fetch_ms"].(float64) <= 0 {
		t.Fatalf("expected positive fetch duration: %#v", entry.Data["fetch_ms"])
	}
}

func TestDocumentRequestMetricsRecordsError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	metrics := newDocumentRequestMetrics("POST /api/data/:id", logger)
	metrics.SetErrorStage("storage")
	metrics.Log(http.StatusInternalServerError, errors.New("disk full"))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["error_stage"] != "storage" || entry.Data["error"] != "disk full" {
		t.Fatalf("unexpected fields: %#v", entry.Data)
	}
}

func TestObserveIgnoresNonPositiveDurations(t *testing.T) {
	metrics := newDocumentRequestMetrics("GET /api/data/:id", nil)
	metrics.ObserveFetch(-time.Millisecond)
	metrics.ObservePersist(0)

	if metrics.fetchDuration != 0 || metrics.persistDuration != 0 {
		t.Fatalf("non-positive durations must be ignored: %+v", metrics)
	}
}
