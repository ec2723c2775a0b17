package admin

import "github.com/tagpilot/attribution-insights/internal/config"

// PageRegistration is inert metadata the admin host's navigation system
// consumes to mount the report page.
type PageRegistration struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Parent      string   `json:"parent"`
	Path        string   `json:"path"`
	Breadcrumbs []string `json:"breadcrumbs"`
	Capability  string   `json:"capability"`
}

// MenuItem is the analytics menu entry for the report.
type MenuItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Parent string `json:"parent"`
	Path   string `json:"path"`
}

// Registry exposes the registrations for this service's single report.
type Registry struct {
	Pages []PageRegistration `json:"pages"`
	Menu  []MenuItem         `json:"menu"`
}

// NewRegistry builds the static registration set.
func NewRegistry() *Registry {
	return &Registry{
		Pages: []PageRegistration{
			{
				ID:          "analytics-sources",
				Title:       "Sources",
				Parent:      "analytics",
				Path:        "/analytics/sources",
				Breadcrumbs: []string{"Analytics", "Sources"},
				Capability:  "view_store_reports",
			},
		},
		Menu: []MenuItem{
			{
				ID:     "sources",
				Title:  "Sources",
				Parent: "analytics",
				Path:   "/analytics/sources",
			},
		},
	}
}

// Bootstrap is the payload the admin client loads before its first
// report fetch: endpoints, the anti-forgery nonce and display settings.
type Bootstrap struct {
	AjaxURL    string            `json:"ajax_url"`
	RestURL    string            `json:"rest_url"`
	SessionID  string            `json:"session_id"`
	Nonce      string            `json:"nonce"`
	Currency   string            `json:"currency"`
	DateFormat string            `json:"date_format"`
	Strings    map[string]string `json:"strings"`
}

// NewBootstrap assembles the client payload minus the per-session nonce.
func NewBootstrap(cfg config.ReportConfig) Bootstrap {
	return Bootstrap{
		AjaxURL:    "/admin/ajax",
		RestURL:    "/api/v1/",
		Currency:   cfg.Currency,
		DateFormat: cfg.DateFormat,
		Strings: map[string]string{
			"loading":         "Loading...",
			"error":           "Error loading data",
			"no_data":         "No data available",
			"total_sales":     "Total Sales",
			"total_orders":    "Total Orders",
			"avg_order_value": "Average Order Value",
		},
	}
}
