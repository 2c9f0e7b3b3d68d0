package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/diagramquest/engine/internal/events"
	"github.com/diagramquest/engine/internal/version"
)

var metricsState = struct {
	mu        sync.RWMutex
	startTime time.Time
}{}

// readiness tracks external connectivity, set by cmd wiring.
var readiness = struct {
	mu                 sync.RWMutex
	journalConnected   bool
	telemetryConnected bool
}{}

// InitMetrics records the process start time. Call once at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	metricsState.startTime = time.Now()
	metricsState.mu.Unlock()
}

// SetJournalConnected reports journal backend connectivity.
func SetJournalConnected(up bool) {
	readiness.mu.Lock()
	readiness.journalConnected = up
	readiness.mu.Unlock()
}

// SetTelemetryConnected reports MQTT broker connectivity.
func SetTelemetryConnected(up bool) {
	readiness.mu.Lock()
	readiness.telemetryConnected = up
	readiness.mu.Unlock()
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler serves Prometheus text format.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metricsState.mu.RLock()
	startTime := metricsState.startTime
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	journalUp := readiness.journalConnected
	telemetryUp := readiness.telemetryConnected
	readiness.mu.RUnlock()

	s.mu.Lock()
	score := s.sess.Score()
	completedZones := len(s.sess.CompletedZones())
	gameActive := !s.sess.GameComplete()
	s.mu.Unlock()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		if labels != "" {
			fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
		} else {
			fmt.Fprintf(w, "%s %v\n", name, value)
		}
	}

	labels := fmt.Sprintf(`game="%s",instance="%s",version="%s"`, s.gameName, hostname, version.Version)

	writeMetric("diagramquest_uptime_seconds", "gauge",
		"Seconds since the engine started", time.Since(startTime).Seconds(), labels)
	writeMetric("diagramquest_game_active", "gauge",
		"Whether a game session is in progress (1) or finished (0)", boolGauge(gameActive), labels)
	writeMetric("diagramquest_score", "gauge",
		"Current session score", score, labels)
	writeMetric("diagramquest_completed_zones", "gauge",
		"Number of completed zones in the current session", completedZones, labels)
	writeMetric("diagramquest_events_total", "counter",
		"Total events emitted since startup", events.TotalCount(), labels)
	writeMetric("diagramquest_ws_clients", "gauge",
		"Active WebSocket client connections", events.SubscriberCount(), labels)
	writeMetric("diagramquest_journal_connected", "gauge",
		"Whether the event journal backend is connected (1) or not (0)", boolGauge(journalUp), labels)
	writeMetric("diagramquest_mqtt_connected", "gauge",
		"Whether the telemetry broker is connected (1) or not (0)", boolGauge(telemetryUp), labels)
}
