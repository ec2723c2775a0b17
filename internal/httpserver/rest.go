package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tagpilot/attribution-insights/internal/report"
	"github.com/tagpilot/attribution-insights/internal/storage"
)

// restError writes the structured REST error envelope.
func (s *Server) restError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    map[string]int{"status": status},
	})
}

// parseStrictDate accepts exactly YYYY-MM-DD.
func parseStrictDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// restValidationError maps a field validation failure onto the 400
// envelope.
func (s *Server) restValidationError(w http.ResponseWriter, err *report.ValidationError) {
	s.restError(w, http.StatusBadRequest, err.Code, err.Message)
}

// restRequest validates query parameters into a report request. Returns
// false after writing the 400 response.
func (s *Server) restRequest(w http.ResponseWriter, r *http.Request) (report.Request, bool) {
	q := r.URL.Query()

	start, end := s.reports.DefaultRange(time.Now())
	if v := q.Get("start_date"); v != "" {
		t, err := parseStrictDate(v)
		if err != nil {
			s.restValidationError(w, report.NewValidationError("start_date", "invalid_start_date", "Invalid start date format. Use YYYY-MM-DD."))
			return report.Request{}, false
		}
		start = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseStrictDate(v)
		if err != nil {
			s.restValidationError(w, report.NewValidationError("end_date", "invalid_end_date", "Invalid end date format. Use YYYY-MM-DD."))
			return report.Request{}, false
		}
		end = t
	}

	breakdown, err := report.ParseBreakdown(q.Get("breakdown"))
	if err != nil {
		s.restValidationError(w, report.NewValidationError("breakdown", "invalid_breakdown", "Unknown breakdown dimension."))
		return report.Request{}, false
	}

	status, err := storage.ParseStatusFilter(q.Get("order_status"))
	if err != nil {
		s.restValidationError(w, report.NewValidationError("order_status", "invalid_order_status", "Unknown order status filter."))
		return report.Request{}, false
	}

	return report.Request{
		Start:     start,
		End:       end,
		Breakdown: breakdown,
		Status:    status,
	}, true
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.restError(w, http.StatusMethodNotAllowed, "rest_no_route", "Method not allowed.")
		return
	}
	if !s.requireCapability(w, r) {
		return
	}

	req, ok := s.restRequest(w, r)
	if !ok {
		return
	}

	rep, err := s.reports.BuildReport(r.Context(), req)
	if err != nil {
		if errors.Is(err, report.ErrDataUnavailable) {
			s.restError(w, http.StatusInternalServerError, "analytics_error", "Analytics data is temporarily unavailable.")
			return
		}
		s.logger.Error("report build failed", zap.Error(err))
		s.restError(w, http.StatusInternalServerError, "analytics_error", "Analytics data is temporarily unavailable.")
		return
	}

	s.jsonResponse(w, rep)
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.restError(w, http.StatusMethodNotAllowed, "rest_no_route", "Method not allowed.")
		return
	}
	if !s.requireCapability(w, r) {
		return
	}

	req, ok := s.restRequest(w, r)
	if !ok {
		return
	}

	rep, err := s.reports.BuildReport(r.Context(), req)
	if err != nil {
		s.restError(w, http.StatusInternalServerError, "analytics_error", "Analytics data is temporarily unavailable.")
		return
	}

	s.jsonResponse(w, map[string]interface{}{
		"summary":      rep.Summary,
		"daily_totals": rep.DailyTotals,
		"date_range":   rep.DateRange,
		"no_data":      rep.NoData,
	})
}

// handleAnalyticsSchema serves the machine-readable description of the
// report envelope.
func (s *Server) handleAnalyticsSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.restError(w, http.StatusMethodNotAllowed, "rest_no_route", "Method not allowed.")
		return
	}
	if !s.requireCapability(w, r) {
		return
	}
	s.jsonResponse(w, analyticsSchema)
}

// analyticsSchema is the JSON-Schema for the canonical report envelope.
var analyticsSchema = map[string]interface{}{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"title":   "analytics",
	"type":    "object",
	"properties": map[string]interface{}{
		"summary": map[string]interface{}{
			"description": "Whole-range totals.",
			"type":        "object",
			"properties": map[string]interface{}{
				"total_sales":     map[string]interface{}{"type": "number"},
				"total_orders":    map[string]interface{}{"type": "integer"},
				"avg_order_value": map[string]interface{}{"type": "number"},
			},
		},
		"revenue_trends": map[string]interface{}{
			"description": "Per-day revenue by attribution key; one object per observed date, keys flattened beside the date.",
			"type":        "array",
			"items":       map[string]interface{}{"type": "object"},
		},
		"source_summary": map[string]interface{}{
			"description": "Ranked attribution keys, revenue descending.",
			"type":        "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source":  map[string]interface{}{"type": "string"},
					"orders":  map[string]interface{}{"type": "integer"},
					"revenue": map[string]interface{}{"type": "number"},
				},
			},
		},
		"top_products": map[string]interface{}{
			"description": "Top products by revenue.",
			"type":        "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"product_id":   map[string]interface{}{"type": "integer"},
					"product_name": map[string]interface{}{"type": "string"},
					"quantity":     map[string]interface{}{"type": "integer"},
					"revenue":      map[string]interface{}{"type": "number"},
				},
			},
		},
		"daily_totals": map[string]interface{}{
			"description": "Per-day sales and order counts.",
			"type":        "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date":   map[string]interface{}{"type": "string", "format": "date"},
					"sales":  map[string]interface{}{"type": "number"},
					"orders": map[string]interface{}{"type": "integer"},
				},
			},
		},
		"date_range": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"start": map[string]interface{}{"type": "string", "format": "date"},
				"end":   map[string]interface{}{"type": "string", "format": "date"},
			},
		},
		"truncated": map[string]interface{}{"type": "boolean"},
		"no_data":   map[string]interface{}{"type": "boolean"},
	},
}
