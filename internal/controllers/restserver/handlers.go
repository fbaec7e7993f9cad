package restserver

import (
	"bytes"
	"errors"
	htmltemplate "html/template"
	"net/http"
	"strings"
	"text/template"

	"github.com/gorilla/mux"
	"github.com/railstats/nsdisruptions/internal/charts"
	"github.com/railstats/nsdisruptions/internal/constants"
	"github.com/railstats/nsdisruptions/internal/dashboard"
	"github.com/railstats/nsdisruptions/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// tileLayers maps tile names accepted in config to Leaflet URL templates
var tileLayers = map[string]string{
	"cartodb dark_matter": "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
	"cartodb positron":    "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
	"openstreetmap":       "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
}

func tileURL(name string) string {
	if url, ok := tileLayers[strings.ToLower(name)]; ok {
		return url
	}
	if strings.HasPrefix(name, "http") {
		return name
	}
	return tileLayers["cartodb dark_matter"]
}

// resolveSelection reads the control values from the query string
func (h *Handlers) resolveSelection(req *http.Request) (dashboard.Selection, error) {
	q := req.URL.Query()
	return h.controller.pipeline.Resolve(q.Get("cause"), q.Get("year"), q.Get("width"), q.Get("height"))
}

func (h *Handlers) writeSelectionError(w http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, dashboard.ErrUnknownCause) || errors.Is(err, dashboard.ErrInvalidSelection) {
		status = http.StatusBadRequest
	}
	h.formatter.WriteError(w, req, status, err.Error())
}

// GetControls returns the selector options for the dashboard controls
func (h *Handlers) GetControls(w http.ResponseWriter, req *http.Request) {
	if err := h.formatter.WriteResponse(w, req, h.controller.pipeline.Controls(), nil); err != nil {
		h.controller.logger.Errorf("error encoding controls: %v", err)
	}
}

// GetDashboard runs the pipeline for the requested selection
func (h *Handlers) GetDashboard(w http.ResponseWriter, req *http.Request) {
	sel, err := h.resolveSelection(req)
	if err != nil {
		h.writeSelectionError(w, req, err)
		return
	}

	view := h.controller.pipeline.Render(req.Context(), sel)

	headers := map[string]string{"Cache-Control": "no-store"}
	if err := h.formatter.WriteResponse(w, req, view, headers); err != nil {
		h.controller.logger.Errorf("error encoding dashboard view: %v", err)
	}
}

// GetChart renders the monthly bar chart as PNG or SVG
func (h *Handlers) GetChart(w http.ResponseWriter, req *http.Request) {
	format, err := charts.ParseFormat(mux.Vars(req)["format"])
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
		return
	}

	sel, err := h.resolveSelection(req)
	if err != nil {
		h.writeSelectionError(w, req, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, h.controller.pipeline.Chart(sel), format, sel.Width, sel.Height); err != nil {
		h.controller.logger.Errorf("error rendering chart: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "unable to render chart")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// Healthz reports that the server is up and how much data it holds
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	body := struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Records int    `json:"records"`
	}{
		Status:  "ok",
		Version: constants.Version,
		Records: h.controller.pipeline.Dataset().Len(),
	}
	h.formatter.WriteResponse(w, req, body, nil)
}

// NotFound answers unknown paths with a JSON error
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteError(w, req, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers non-GET requests with a JSON error
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	h.formatter.WriteError(w, req, http.StatusMethodNotAllowed, "method not allowed")
}

// ServeIndexTemplate serves the dashboard page
func (h *Handlers) ServeIndexTemplate(w http.ResponseWriter, req *http.Request) {
	view, err := htmltemplate.New("index.html.tmpl").ParseFS(h.controller.FS, "index.html.tmpl")
	if err != nil {
		h.controller.logger.Errorf("error parsing index template: %v", err)
		http.Error(w, "dashboard template unavailable", http.StatusInternalServerError)
		return
	}

	templateData := struct {
		PageTitle string
		Version   string
		Controls  dashboard.Controls
	}{
		PageTitle: h.controller.restConfig.PageTitle,
		Version:   constants.Version,
		Controls:  h.controller.pipeline.Controls(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Execute(w, templateData); err != nil {
		h.controller.logger.Errorf("error executing index template: %v", err)
	}
}

// ServeJS serves the dashboard JavaScript template
func (h *Handlers) ServeJS(w http.ResponseWriter, req *http.Request) {
	view, err := template.New("dashboard.js.tmpl").ParseFS(h.controller.FS, "js/dashboard.js.tmpl")
	if err != nil {
		h.controller.logger.Errorf("error parsing dashboard JavaScript template: %v", err)
		http.Error(w, "dashboard script unavailable", http.StatusInternalServerError)
		return
	}

	jsTemplateData := struct {
		TileURL string
	}{
		TileURL: tileURL(h.controller.pipeline.MapTiles()),
	}

	w.Header().Set("Content-Type", "text/javascript")
	if err := view.Execute(w, jsTemplateData); err != nil {
		h.controller.logger.Errorf("error executing dashboard JavaScript template: %v", err)
	}
}
