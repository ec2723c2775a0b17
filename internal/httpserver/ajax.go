package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tagpilot/attribution-insights/internal/report"
	"github.com/tagpilot/attribution-insights/internal/storage"
)

const ajaxReportAction = "attribution_report"

// looseDateLayouts are the formats the dashboard form post may send.
// Parsed values are normalized to calendar dates before querying.
var looseDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func parseLooseDate(value string) (time.Time, bool) {
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s *Server) ajaxSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func (s *Server) ajaxError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"data":    message,
	})
}

// handleAjax is the form-post twin of the REST endpoint: same report,
// nonce-authenticated, loose date parsing.
func (s *Server) handleAjax(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.ajaxError(w, "malformed form data")
		return
	}

	// Security checks run before anything touches storage. Failure is a
	// hard stop, not a structured envelope.
	sessionID := r.PostFormValue("session_id")
	nonce := r.PostFormValue("nonce")
	ok, err := s.nonces.Verify(r.Context(), sessionID, nonce)
	if err != nil {
		s.logger.Error("nonce verification failed", zap.Error(err))
		http.Error(w, "Security check failed", http.StatusForbidden)
		return
	}
	if !ok {
		s.metrics.RecordNonceFailure()
		s.metrics.RecordAuthRejection("nonce")
		http.Error(w, "Security check failed", http.StatusForbidden)
		return
	}

	if r.PostFormValue("action") != ajaxReportAction {
		s.ajaxError(w, "unknown action")
		return
	}

	start, end := s.reports.DefaultRange(time.Now())
	if v := r.PostFormValue("start_date"); v != "" {
		t, ok := parseLooseDate(v)
		if !ok {
			s.ajaxError(w, "Invalid start date")
			return
		}
		start = t
	}
	if v := r.PostFormValue("end_date"); v != "" {
		t, ok := parseLooseDate(v)
		if !ok {
			s.ajaxError(w, "Invalid end date")
			return
		}
		end = t
	}

	breakdown, err := report.ParseBreakdown(r.PostFormValue("breakdown"))
	if err != nil {
		s.ajaxError(w, "Unknown breakdown dimension")
		return
	}
	status, err := storage.ParseStatusFilter(r.PostFormValue("order_status"))
	if err != nil {
		s.ajaxError(w, "Unknown order status")
		return
	}

	rep, err := s.reports.BuildReport(r.Context(), report.Request{
		Start:     start,
		End:       end,
		Breakdown: breakdown,
		Status:    status,
	})
	if err != nil {
		// Includes ErrDataUnavailable; internal detail stays internal.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"data":    "Error loading data",
		})
		return
	}

	// An empty range is a successful response; the client shows its
	// no-data state, distinct from the retry-oriented error state.
	s.ajaxSuccess(w, rep)
}

// handleBootstrap hands the admin client everything it needs before its
// first fetch: endpoints, display settings and a fresh nonce bound to
// the session. The capability check happens here, at nonce issuance.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.restError(w, http.StatusMethodNotAllowed, "rest_no_route", "Method not allowed.")
		return
	}
	if !s.requireCapability(w, r) {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	nonce, err := s.nonces.Issue(r.Context(), sessionID, s.config.Auth.NonceTTL)
	if err != nil {
		s.logger.Error("nonce issuance failed", zap.Error(err))
		s.restError(w, http.StatusInternalServerError, "nonce_error", "Could not issue a session token.")
		return
	}
	s.metrics.RecordNonceIssued()

	payload := s.bootstrapPayload()
	payload.SessionID = sessionID
	payload.Nonce = nonce
	s.jsonResponse(w, payload)
}

// handlePages serves the report page and menu registrations the admin
// host's navigation consumes.
func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.restError(w, http.StatusMethodNotAllowed, "rest_no_route", "Method not allowed.")
		return
	}
	if !s.requireCapability(w, r) {
		return
	}
	s.jsonResponse(w, s.registry)
}
