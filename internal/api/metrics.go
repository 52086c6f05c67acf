package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the /metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	MQTT          *MQTTMetrics    `json:"mqtt,omitempty"`
	Intents       *IntentMetrics  `json:"intents,omitempty"`
	Registry      RegistryMetrics `json:"registry"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// IntentMetrics mirrors skill.Stats.
type IntentMetrics struct {
	Received  uint64 `json:"received"`
	Accepted  uint64 `json:"accepted"`
	Filtered  uint64 `json:"filtered"`
	Malformed uint64 `json:"malformed"`
	Refreshes uint64 `json:"refreshes"`
}

// RegistryMetrics describes the current device snapshot.
type RegistryMetrics struct {
	Devices     int            `json:"devices"`
	ByType      map[string]int `json:"by_type"`
	Generation  uint64         `json:"generation"`
	RefreshedAt string         `json:"refreshed_at,omitempty"`
}

const bytesPerMB = 1024 * 1024

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
	}

	if s.mqtt != nil {
		metrics.MQTT = &MQTTMetrics{
			Connected:     s.mqtt.IsConnected(),
			Subscriptions: s.mqtt.SubscriptionCount(),
		}
	}

	if s.runtime != nil {
		st := s.runtime.Stats()
		metrics.Intents = &IntentMetrics{
			Received:  st.Received,
			Accepted:  st.Accepted,
			Filtered:  st.Filtered,
			Malformed: st.Malformed,
			Refreshes: st.Refreshes,
		}
	}

	snap := s.registry.Snapshot()
	metrics.Registry = RegistryMetrics{
		Devices:    len(snap.Devices),
		ByType:     make(map[string]int),
		Generation: snap.Generation,
	}
	for _, d := range snap.Devices {
		metrics.Registry.ByType[d.DeviceType]++
	}
	if snap.Loaded() {
		metrics.Registry.RefreshedAt = snap.RefreshedAt.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, metrics)
}
