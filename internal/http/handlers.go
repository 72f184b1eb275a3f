package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"moneybook/internal/locale"
	"moneybook/internal/presenter"
	"moneybook/internal/services"
)

// Template data. Every fragment carries the catalog so partials render
// the same text whether they come with the page or on their own.
type (
	// summaryData is one panel. Only the top panel asks for a refresh; the
	// answer carries both panels, the bottom one swapped out of band.
	summaryData struct {
		Name    string
		C       locale.Catalog
		Panel   presenter.Panel
		Refresh bool
		OOB     bool
	}

	summariesData struct {
		Top    summaryData
		Bottom summaryData
	}

	formData struct {
		C     locale.Catalog
		Form  services.FormState
		Error string
	}

	listData struct {
		C    locale.Catalog
		List presenter.ListView
	}

	confirmData struct {
		C   locale.Catalog
		Row presenter.Row
	}

	indexData struct {
		Lang             string
		C                locale.Catalog
		NotifyDurationMs int64
		Top              summaryData
		Bottom           summaryData
		Form             formData
		List             listData
	}
)

const (
	panelTop    = "top"
	panelBottom = "bottom"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and how the server's
// in-process helpers are doing.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]interface{}{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	checks["ledger"] = map[string]interface{}{
		"transactions": s.store.Len(),
		"revision":     s.store.Revision(),
	}
	lists, summaries := s.listCache.Stats(), s.summaryCache.Stats()
	checks["cache"] = map[string]interface{}{
		"list_entries":    lists.Size,
		"list_hits":       lists.Hits,
		"summary_entries": summaries.Size,
		"summary_hits":    summaries.Hits,
	}
	limits := s.limiter.GetMetrics()
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": limits.ClientCount,
		"limited":        limits.TotalHits,
	}
	screened := s.detector.GetMetrics()
	traced := s.tracer.GetMetrics()
	checks["requests"] = map[string]interface{}{
		"total":           traced.TotalRequests,
		"server_errors":   traced.ServerErrors,
		"avg_response_us": traced.AverageResponseTime,
		"suspicious":      screened.SuspiciousRequests,
		"blocked":         screened.BlockedRequests,
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	panels := s.panels(s.summaryView(), false)
	data := indexData{
		Lang:             s.catalog.Tag.String(),
		C:                s.catalog,
		NotifyDurationMs: s.notifyDuration.Milliseconds(),
		Top:              panels.Top,
		Bottom:           panels.Bottom,
		Form:             formData{C: s.catalog, Form: s.svc.Defaults()},
		List:             listData{C: s.catalog, List: s.listView()},
	}
	s.writeTemplate(w, r, http.StatusOK, "index.html", data)
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, http.StatusOK, "transactions", listData{C: s.catalog, List: s.listView()})
}

// handleSummaryPartial renders both panels from one SummaryView, so a
// refresh can never leave them showing different revisions.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, http.StatusOK, "summaries", s.panels(s.summaryView(), true))
}

func (s *Server) panels(view presenter.SummaryView, oob bool) summariesData {
	return summariesData{
		Top:    summaryData{Name: panelTop, C: s.catalog, Panel: view.Top, Refresh: true},
		Bottom: summaryData{Name: panelBottom, C: s.catalog, Panel: view.Bottom, OOB: oob},
	}
}

func (s *Server) handleFormPartial(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, http.StatusOK, "form", formData{C: s.catalog, Form: s.svc.Defaults()})
}

// writeTemplate renders name and writes it with status, or a 500 when the
// template fails.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.render(r.Context(), name, data)
	if err != nil {
		InternalServerError("render failed").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondTemplate is writeTemplate for builder-based responses that also
// carry triggers.
func (s *Server) respondTemplate(ctx context.Context, b *HTMXResponseBuilder, name string, data any) *HTMXResponseBuilder {
	body, err := s.render(ctx, name, data)
	if err != nil {
		return InternalServerError("render failed")
	}
	return b.BodyHTML(string(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
