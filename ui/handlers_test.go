package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepsense/domain/metrics"
	"sleepsense/internal/hypothesis"
)

func newTestApp() *App {
	return NewApp(hypothesis.NewRegistry(metrics.DefaultConfig()), nil)
}

// conditionBody builds a POST /conditions payload with the given noise
// share at 5s cadence.
func conditionBody(t *testing.T, name string, n, noisy int, usageMin *float64) *bytes.Buffer {
	t.Helper()
	samples := make([]map[string]float64, n)
	for i := range samples {
		level := 30.0
		if i < noisy {
			level = 45.0
		}
		samples[i] = map[string]float64{"offset_seconds": float64(i) * 5, "level_db": level}
	}
	payload := map[string]interface{}{"name": name, "samples": samples}
	if usageMin != nil {
		payload["phone_usage_minutes"] = *usageMin
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func postCondition(t *testing.T, app *App, name string, n, noisy int, usageMin *float64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/conditions", conditionBody(t, name, n, noisy, usageMin))
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func get(app *App, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(newTestApp(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAddCondition(t *testing.T) {
	app := newTestApp()
	usage := 135.0

	rec := postCondition(t, app, "B", 200, 17, &usage)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cond struct {
		Name    string `json:"name"`
		Metrics struct {
			TotalSamples  int     `json:"total_samples"`
			NoiseRatioPct float64 `json:"noise_ratio_pct"`
		} `json:"metrics"`
		PhoneUsageMinutes *float64 `json:"phone_usage_minutes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cond))

	assert.Equal(t, "B", cond.Name)
	assert.Equal(t, 200, cond.Metrics.TotalSamples)
	assert.Equal(t, 8.5, cond.Metrics.NoiseRatioPct)
	require.NotNil(t, cond.PhoneUsageMinutes)
	assert.Equal(t, 135.0, *cond.PhoneUsageMinutes)
}

func TestAddCondition_BadRequests(t *testing.T) {
	app := newTestApp()

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/conditions", strings.NewReader("{nope"))
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blank name", func(t *testing.T) {
		rec := postCondition(t, app, "  ", 10, 0, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty series", func(t *testing.T) {
		rec := postCondition(t, app, "A", 0, 0, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestGetCondition(t *testing.T) {
	app := newTestApp()
	require.Equal(t, http.StatusCreated, postCondition(t, app, "A", 100, 2, nil).Code)

	rec := get(app, "/conditions/A")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"noise_ratio_pct":2`)

	rec = get(app, "/conditions/Z")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListConditions(t *testing.T) {
	app := newTestApp()
	require.Equal(t, http.StatusCreated, postCondition(t, app, "A", 100, 2, nil).Code)
	require.Equal(t, http.StatusCreated, postCondition(t, app, "B", 100, 8, nil).Code)

	rec := get(app, "/conditions")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []conditionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "A", string(summaries[0].Name))
	assert.Equal(t, 8.0, summaries[1].NoiseRatioPct)
}

func TestCompare(t *testing.T) {
	app := newTestApp()
	require.Equal(t, http.StatusCreated, postCondition(t, app, "A", 100, 2, nil).Code)

	// One condition is not enough.
	rec := get(app, "/compare")
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusCreated, postCondition(t, app, "B", 100, 8, nil).Code)

	rec = get(app, "/compare")
	require.Equal(t, http.StatusOK, rec.Code)

	var table map[string]metrics.ComparisonRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table, 2)
	assert.Equal(t, 2.0, table["A"].NoiseRatioPct)
	assert.Equal(t, 8.0, table["B"].NoiseRatioPct)
}

func TestHypotheses(t *testing.T) {
	app := newTestApp()

	rec := get(app, "/hypotheses")
	assert.Equal(t, http.StatusConflict, rec.Code)

	a, b := 0.0, 135.0
	require.Equal(t, http.StatusCreated, postCondition(t, app, "A", 100, 2, &a).Code)
	require.Equal(t, http.StatusCreated, postCondition(t, app, "B", 200, 17, &b).Code)

	rec = get(app, "/hypotheses")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		H1 hypothesis.NoiseResult `json:"h1"`
		H2 hypothesis.UsageResult `json:"h2"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 5.25, resp.H1.MeanNoiseRatioPct, 1e-9)
	require.NotNil(t, resp.H2.DifferencePctPoints)
	assert.InDelta(t, 6.5, *resp.H2.DifferencePctPoints, 1e-9)
	assert.Equal(t, hypothesis.DecisionSupported, resp.H2.Decision)
}

func TestHypotheses_NoUsageData(t *testing.T) {
	app := newTestApp()
	require.Equal(t, http.StatusCreated, postCondition(t, app, "C", 100, 2, nil).Code)

	rec := get(app, "/hypotheses")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "h1")
	assert.Contains(t, resp, "h2_unavailable")
	assert.NotContains(t, resp, "h2")
}

func TestConditionReport(t *testing.T) {
	app := newTestApp()
	require.Equal(t, http.StatusCreated, postCondition(t, app, "A", 120, 6, nil).Code)

	rec := get(app, "/conditions/A/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "Sleep Pattern Report - Condition A")
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = get(app, "/conditions/Z/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderMarkdownTables(t *testing.T) {
	out := string(renderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
}
