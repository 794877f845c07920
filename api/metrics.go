package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type documentRequestMetrics struct {
	logger          *log.Logger
	route           string
	start           time.Time
	fetchDuration   time.Duration
	persistDuration time.Duration
	encodeDuration  time.Duration
	taskCount       int
	teamCount       int
	errorStage      string
}

func newDocumentRequestMetrics(route string, logger *log.Logger) *documentRequestMetrics {
	return &documentRequestMetrics{
		logger: logger,
		route:  route,
		start:  time.Now(),
	}
}

func (m *documentRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *documentRequestMetrics) ObservePersist(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.persistDuration = duration
}

func (m *documentRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *documentRequestMetrics) SetCounts(tasks, team int) {
	if tasks < 0 {
		tasks = 0
	}
	if team < 0 {
		team = 0
	}
	m.taskCount = tasks
	m.teamCount = team
}

func (m *documentRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *documentRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":    m.route,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
		"tasks":    m.taskCount,
		"team":     m.teamCount,
	}

	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.persistDuration > 0 {
		fields["persist_ms"] = durationToMillis(m.persistDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("document.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
