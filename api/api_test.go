package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/metrics"
	"github.com/sartorproj/autoforecast/models"
)

type downBackend struct{}

func (downBackend) Capabilities() (models.Capabilities, error) {
	return models.Capabilities{}, errors.New("backend not installed")
}

func (downBackend) Build(name string, _ models.Params) (models.Candidate, error) {
	return models.Candidate{}, models.ErrUnknownModel
}

type panicHandler struct{}

func (panicHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/panic", func(echo.Context) error { panic("boom") })
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func points(n int) []map[string]any {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"ds": start.AddDate(0, 0, i).Format(time.RFC3339),
			"y":  100 + 0.3*float64(i) + 2*math.Sin(2*math.Pi*float64(i)/7),
		}
	}
	return out
}

func newTestServer(opts ...autoselect.Option) *Server {
	opts = append([]autoselect.Option{autoselect.WithConsole(console.New(io.Discard, false))}, opts...)
	return NewServer(NewForecastHandler(autoselect.New(opts...), zerolog.Nop()))
}

func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestAutoselect(t *testing.T) {
	s := newTestServer()

	rec, env := do(t, s, http.MethodPost, "/v1/forecast/autoselect", map[string]any{
		"target_column": "close",
		"n_predict":     3,
		"points":        points(60),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, env.Status)

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.NotEmpty(t, resp.BestModel)
	require.NotNil(t, resp.BestPrecision)
	assert.GreaterOrEqual(t, *resp.BestPrecision, 0.0)
	assert.Equal(t, "D", resp.Freq)
	assert.Len(t, resp.Precision, 7)
	assert.Equal(t, resp.BestModel, resp.Precision[0].Model)
	assert.Len(t, resp.Forecast, 3)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), resp.Forecast[0].DS.UTC())
	assert.Len(t, resp.Historical, 10)
}

func TestAutoselectValidation(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{name: "missing points", body: map[string]any{}, code: "ERR_REQUIRED"},
		{name: "one point", body: map[string]any{"points": points(1)}, code: "ERR_MIN"},
		{name: "start window", body: map[string]any{"start_window": 1.5, "points": points(60)}, code: "ERR_LT"},
		{name: "missing value", body: map[string]any{"points": []map[string]any{
			{"ds": "2024-01-01T00:00:00Z", "y": 1},
			{"ds": "2024-01-02T00:00:00Z"},
		}}, code: "ERR_REQUIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, s, http.MethodPost, "/v1/forecast/autoselect", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var errs []ValidationError
			require.NoError(t, json.Unmarshal(env.Data, &errs))
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

func TestAutoselectInputErrors(t *testing.T) {
	s := newTestServer()

	unordered := points(30)
	unordered[3], unordered[4] = unordered[4], unordered[3]

	irregular := points(30)
	irregular[10]["ds"] = "2024-01-11T06:00:00Z"

	for name, pts := range map[string][]map[string]any{
		"unordered": unordered,
		"irregular": irregular,
		"too short": points(20),
	} {
		t.Run(name, func(t *testing.T) {
			rec, env := do(t, s, http.MethodPost, "/v1/forecast/autoselect", map[string]any{"points": pts})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var errs []ValidationError
			require.NoError(t, json.Unmarshal(env.Data, &errs))
			assert.Equal(t, "ERR_INPUT", errs[0].Code)
		})
	}
}

func TestAutoselectBackendUnavailable(t *testing.T) {
	s := newTestServer(autoselect.WithBackend(downBackend{}))

	rec, env := do(t, s, http.MethodPost, "/v1/forecast/autoselect", map[string]any{"points": points(60)})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var errs []ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BACKEND_UNAVAILABLE", errs[0].Code)
	assert.Equal(t, "Please update statsforecast to version 1.2.0 or higher.", errs[0].Message)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg, "autoforecast")
	selector := autoselect.New(
		autoselect.WithConsole(console.New(io.Discard, false)),
		autoselect.WithRecorder(recorder),
	)
	s := NewServer(NewForecastHandler(selector, zerolog.Nop()), WithMetrics("/metrics", reg))

	rec, env := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"ok"`, string(env.Data))

	rec, _ = do(t, s, http.MethodPost, "/v1/forecast/autoselect", map[string]any{"points": points(40)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `autoforecast_selections_total{status="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "autoforecast_model_mape_percent")
}

func TestMetricsDisabled(t *testing.T) {
	s := NewServer(nil, WithMetrics("", nil))
	rec, _ := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecover(t *testing.T) {
	s := NewServer(panicHandler{})
	rec, env := do(t, s, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusInternalServerError, env.Status)
}

func TestServerOptions(t *testing.T) {
	s := NewServer(nil, WithHost("127.0.0.1"), WithPort(9091), WithTimeouts(time.Second, 2*time.Second, 3*time.Second))
	assert.Equal(t, "127.0.0.1:9091", s.Addr())
	assert.Equal(t, time.Second, s.Echo().Server.ReadTimeout)
	assert.Equal(t, 2*time.Second, s.Echo().Server.WriteTimeout)
}
