package api

import (
	"net/http"
	"strings"

	"github.com/nerrad567/curtain-skill/internal/audit"
	"github.com/nerrad567/curtain-skill/internal/curtain"
	"github.com/nerrad567/curtain-skill/internal/device"
)

// CurtainStatus is one curtain registry entry with its validation result.
type CurtainStatus struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Room  string `json:"room"`
	Topic string `json:"topic,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// handleListDevices returns registry entries from the current snapshot.
//
// Query parameters:
//   - type: device type (e.g. curtain)
//   - room: room name, repeatable
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	devices, err := s.registry.ListDevices(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices":    devices,
		"count":      len(devices),
		"generation": s.registry.Snapshot().Generation,
	})
}

// handleListCurtains validates every curtain entry the way the skill does
// before dispatching, so operators can find entries it silently skips.
func (s *Server) handleListCurtains(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.DeviceType = curtain.DeviceType

	entries, err := s.registry.ListDevices(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing curtains failed", "error", err)
		writeInternalError(w, "failed to list curtains")
		return
	}

	out := make([]CurtainStatus, 0, len(entries))
	invalid := 0
	for _, entry := range entries {
		st := CurtainStatus{ID: entry.ID, Name: entry.Name, Room: entry.RoomName()}
		dev, err := curtain.FromGlobalDevice(entry)
		if err != nil {
			st.Error = err.Error()
			invalid++
		} else {
			st.Valid = true
			st.Topic = dev.Topic()
		}
		out = append(out, st)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"curtains": out,
		"count":    len(out),
		"invalid":  invalid,
	})
}

// handleRefreshDevices reloads the registry snapshot on demand.
func (s *Server) handleRefreshDevices(w http.ResponseWriter, r *http.Request) {
	subject := ""
	if claims, ok := claimsFromContext(r.Context()); ok {
		subject = claims.Subject
	}

	if err := s.registry.Refresh(r.Context()); err != nil {
		s.logger.Error("manual registry refresh failed", "subject", subject, "error", err)
		writeInternalError(w, "registry refresh failed")
		return
	}

	snap := s.registry.Snapshot()
	s.logger.Info("device registry refreshed via API",
		"subject", subject,
		"generation", snap.Generation,
	)
	s.recordAudit(r.Context(), &audit.Entry{
		Action:  audit.ActionRegistryRefresh,
		Subject: subject,
		Source:  audit.SourceAPI,
		Details: map[string]any{"generation": snap.Generation, "devices": len(snap.Devices)},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":    len(snap.Devices),
		"generation": snap.Generation,
	})
}

// parseFilter reads type and room query parameters.
func parseFilter(w http.ResponseWriter, r *http.Request) (device.Filter, bool) {
	q := r.URL.Query()
	filter := device.Filter{DeviceType: strings.TrimSpace(q.Get("type"))}
	for _, room := range q["room"] {
		if room == "" {
			writeBadRequest(w, "room must not be empty")
			return device.Filter{}, false
		}
		filter.Rooms = append(filter.Rooms, room)
	}
	return filter, true
}
