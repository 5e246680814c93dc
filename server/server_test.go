package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/logger"
	"github.com/spektr-org/sfhousing/report"
)

func fixture() *dataset.Context {
	return dataset.NewContext([]dataset.Observation{
		{Year: 2010, Neighborhood: "Bayview", SalePrice: 200, HousingUnits: 100, GrossRent: 1200},
		{Year: 2011, Neighborhood: "Bayview", SalePrice: 250, HousingUnits: 150, GrossRent: 1500},
		{Year: 2010, Neighborhood: "Alamo Square", SalePrice: 300, HousingUnits: 100, GrossRent: 1200},
		{Year: 2011, Neighborhood: "Alamo Square", SalePrice: 350, HousingUnits: 150, GrossRent: 1500},
	}, []dataset.Coordinate{
		{Neighborhood: "Bayview", Lat: 37.73, Lon: -122.40},
		{Neighborhood: "Alamo Square", Lat: 37.79, Lon: -122.43},
	}, nil)
}

func newServer(t *testing.T) *Server {
	t.Helper()
	return New(fixture(), Config{
		AllowedOrigins: []string{"https://example.org"},
		Report:         []report.Option{report.WithNeighborhoods("Bayview")},
	}, logger.Test(t))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	rec := get(t, newServer(t).Handler(), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<section id="price-bayview">`)
	assert.Contains(t, body, `<option value="Alamo Square">`)
	assert.Contains(t, body, `<a href="/charts/housing-units.png">PNG</a>`)
}

func TestCharts_Selection(t *testing.T) {
	h := newServer(t).Handler()

	rec := get(t, h, "/api/charts?neighborhood=Alamo+Square&neighborhood=+")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChartsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Alamo Square"}, resp.Neighborhoods)
	ids := make([]string, len(resp.Charts))
	for i, c := range resp.Charts {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{
		"housing-units", "gross-rent", "sale-price", "price-alamo-square", "top-10",
		"rent-vs-sale-alamo-square", "neighborhood-map", "sunburst",
	}, ids)
	assert.Equal(t, "bar", resp.Charts[0].Kind)
	assert.False(t, resp.Charts[0].Empty)
}

func TestCharts_CachedPerSelection(t *testing.T) {
	h := newServer(t).Handler()

	runID := func(target string) string {
		var resp ChartsResponse
		require.NoError(t, json.Unmarshal(get(t, h, target).Body.Bytes(), &resp))
		return resp.RunID
	}

	first := runID("/api/charts")
	assert.Equal(t, first, runID("/api/charts"), "same selection is served from cache")
	assert.NotEqual(t, first, runID("/api/charts?neighborhood=Alamo+Square"))
}

func TestCharts_CacheKeyKeepsNamesApart(t *testing.T) {
	h := newServer(t).Handler()

	charts := func(target string) ChartsResponse {
		var resp ChartsResponse
		require.NoError(t, json.Unmarshal(get(t, h, target).Body.Bytes(), &resp))
		return resp
	}

	pair := charts("/api/charts?neighborhood=Bayview&neighborhood=Alamo+Square")
	joined := charts("/api/charts?neighborhood=Bayview%7CAlamo+Square")
	assert.NotEqual(t, pair.RunID, joined.RunID)
	assert.Equal(t, []string{"Bayview", "Alamo Square"}, pair.Neighborhoods)
	assert.Equal(t, []string{"Bayview|Alamo Square"}, joined.Neighborhoods)

	repeated := charts("/api/charts?neighborhood=Bayview&neighborhood=Alamo+Square&neighborhood=Bayview")
	assert.Equal(t, pair.RunID, repeated.RunID, "repeated names share the cached dashboard")
}

func TestCharts_UnknownSelectionNotCached(t *testing.T) {
	s := newServer(t)
	h := s.Handler()

	runID := func(target string) string {
		var resp ChartsResponse
		require.NoError(t, json.Unmarshal(get(t, h, target).Body.Bytes(), &resp))
		return resp.RunID
	}

	first := runID("/api/charts?neighborhood=Atlantis")
	assert.NotEqual(t, first, runID("/api/charts?neighborhood=Atlantis"))
	assert.Zero(t, s.cache.ItemCount())

	runID("/api/charts?neighborhood=Bayview")
	assert.Equal(t, 1, s.cache.ItemCount())
}

func TestChart(t *testing.T) {
	h := newServer(t).Handler()

	rec := get(t, h, "/api/charts/housing-units")
	require.Equal(t, http.StatusOK, rec.Code)
	var c struct {
		ID     string `json:"id"`
		Config struct {
			ChartType string `json:"chartType"`
			YRange    struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"yRange"`
		} `json:"config"`
		Table struct {
			Rows [][]string `json:"rows"`
		} `json:"table"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "housing-units", c.ID)
	assert.Equal(t, "bar", c.Config.ChartType)
	assert.Len(t, c.Table.Rows, 2)
	assert.Less(t, c.Config.YRange.Min, 100.0)

	rec = get(t, h, "/api/charts/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"unknown chart nope","code":404}`, rec.Body.String())
}

func TestImage(t *testing.T) {
	h := newServer(t).Handler()

	rec := get(t, h, "/charts/top-10.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = get(t, h, "/charts/neighborhood-map.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = get(t, h, "/charts/price-atlantis.png?neighborhood=Atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "has no data")

	rec = get(t, h, "/charts/top-10.gif")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := get(t, newServer(t).Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","observations":4,"neighborhoods":2,"years":[2010,2011]}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := newServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryAndLogging(t *testing.T) {
	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	s := New(fixture(), Config{CacheTTL: time.Minute}, lggr)

	panicky := s.logging(s.recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := get(t, panicky, "/explode")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":500}`, rec.Body.String())
	assert.Len(t, logs.FilterMessage("Panic recovered").All(), 1)

	entries := logs.FilterMessage("Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(500), entries[0].ContextMap()["status"])
}

func TestNotFound(t *testing.T) {
	rec := get(t, newServer(t).Handler(), "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","code":404}`, rec.Body.String())
}
