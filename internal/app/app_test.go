package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datainsights/internal/config"
	"datainsights/internal/services"
	"datainsights/internal/session"
	apiv1 "datainsights/pkg/contracts/api/v1"
)

const testCSV = `MonthA,ValA,MonthB,ValB
0,10,0,20
1,12,1,18
2,14,2,16
`

// newTestApplication wires the application without telemetry or a
// listening socket.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	app := &Application{
		Config: config.Default(),
		Logger: slog.Default(),
	}
	require.NoError(t, app.initializeServices())
	t.Cleanup(app.Store.Close)

	app.setupRouter()
	app.createServer()

	return app
}

func uploadCSV(t *testing.T, app *Application) string {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "wells.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp apiv1.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)

	return resp.SessionID
}

func TestApplicationWiring(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.DataService)
	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Implements(t, (*services.DataPipeline)(nil), app.DataService)
}

func TestUploadPreviewExportFlow(t *testing.T) {
	app := newTestApplication(t)

	sessionID := uploadCSV(t, app)

	// Preview returns the default line chart for both series.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chart/preview/"+sessionID, nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"ValA"`)
	assert.Contains(t, rec.Body.String(), `"statistics_colors"`)

	// Toggling a percentile overlay adds its trace.
	body := strings.NewReader(`{"session_id": "` + sessionID + `", "chart_type": "line", "show_p50": true}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/chart/generate", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "P50 (Median)")

	// CSV export reconstructs the aligned data.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/export/csv/"+sessionID, nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "# Data Insights Export")
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	app := newTestApplication(t)

	sessionID := uploadCSV(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/"+sessionID+"/status", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/session/"+sessionID, nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Deleted sessions are indistinguishable from ones that never
	// existed.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/data/"+sessionID, nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthRoutes(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/version", nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersApplied(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/missing", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

// The session store backs both the data service and the status
// endpoint; make sure the wiring points both at the same instance.
func TestStoreShared(t *testing.T) {
	app := newTestApplication(t)

	sessionID := uploadCSV(t, app)

	status, err := app.Store.Status(sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, status.SessionID)

	_, err = app.Store.Get("unknown")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
