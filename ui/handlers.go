package ui

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"sleepsense/adapters/report"
	"sleepsense/domain/core"
	"sleepsense/domain/series"
	"sleepsense/internal/hypothesis"
)

// addConditionRequest attaches a sample batch to a condition label.
type addConditionRequest struct {
	Name              string          `json:"name"`
	PhoneUsageMinutes *float64        `json:"phone_usage_minutes,omitempty"`
	Samples           []series.Sample `json:"samples"`
}

type conditionSummary struct {
	Name              core.ConditionName `json:"name"`
	PhoneUsageMinutes *float64           `json:"phone_usage_minutes,omitempty"`
	TotalSamples      int                `json:"total_samples"`
	NoiseRatioPct     float64            `json:"noise_ratio_pct"`
	MeanDB            float64            `json:"mean_db"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	var req addConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name, err := core.ParseConditionName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.mu.Lock()
	cond, err := a.registry.Add(name, series.New(req.Samples), req.PhoneUsageMinutes)
	a.mu.Unlock()
	if err != nil {
		if errors.Is(err, core.ErrEmptySeries) {
			writeError(w, http.StatusUnprocessableEntity, "series has no samples")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if a.repo != nil {
		if err := a.repo.Save(r.Context(), name, req.PhoneUsageMinutes, cond.Metrics); err != nil {
			a.log.Error("failed to persist condition %s: %v", name, err)
		}
	}

	writeJSON(w, http.StatusCreated, cond)
}

func (a *App) handleListConditions(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	summaries := make([]conditionSummary, 0, a.registry.Len())
	for _, name := range a.registry.Names() {
		cond, err := a.registry.Get(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, conditionSummary{
			Name:              cond.Name,
			PhoneUsageMinutes: cond.PhoneUsageMinutes,
			TotalSamples:      cond.Metrics.TotalSamples,
			NoiseRatioPct:     cond.Metrics.NoiseRatioPct,
			MeanDB:            cond.Metrics.MeanDB,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (a *App) handleGetCondition(w http.ResponseWriter, r *http.Request) {
	name := core.ConditionName(chi.URLParam(r, "name"))

	a.mu.Lock()
	cond, err := a.registry.Get(name)
	a.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cond)
}

func (a *App) handleConditionReport(w http.ResponseWriter, r *http.Request) {
	name := core.ConditionName(chi.URLParam(r, "name"))

	a.mu.Lock()
	cond, err := a.registry.Get(name)
	a.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	md := report.Condition(name.String(), cond.Metrics)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(renderMarkdown(md))
}

func (a *App) handleCompare(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	table, err := a.registry.Compare()
	a.mu.Unlock()
	if err != nil {
		if errors.Is(err, core.ErrInsufficientConditions) {
			writeError(w, http.StatusConflict, "at least 2 conditions are required for comparison")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (a *App) handleHypotheses(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	engine := hypothesis.NewEngine(a.registry)

	noise, err := engine.TestNoiseHypothesis()
	if err != nil {
		writeError(w, http.StatusConflict, "no conditions registered")
		return
	}

	response := map[string]interface{}{"h1": noise}
	usage, err := engine.TestUsageHypothesis(a.registry.Config().SignificanceThreshold)
	if err == nil {
		response["h2"] = usage
	} else if errors.Is(err, core.ErrInsufficientUsageData) {
		response["h2_unavailable"] = "fewer than 2 conditions carry phone-usage data"
	} else {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// renderMarkdown converts a markdown report to HTML.
func renderMarkdown(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
