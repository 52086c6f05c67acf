package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/curtain-skill/internal/audit"
)

// handleListAudit returns operator actions, newest first.
//
// Query parameters: action, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{Action: q.Get("action")}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries failed", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// recordAudit stores an audit entry when auditing is enabled. Failures are
// logged only.
func (s *Server) recordAudit(ctx context.Context, entry *audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Error("recording audit entry failed", "action", entry.Action, "error", err)
	}
}
