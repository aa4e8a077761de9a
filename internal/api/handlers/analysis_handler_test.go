package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsight/backend/internal/catalog"
	"github.com/shelfsight/backend/internal/detection"
	"github.com/shelfsight/backend/internal/runs"
	"github.com/shelfsight/backend/internal/session"
	"github.com/shelfsight/backend/internal/storage/models"
)

type fakeVision struct {
	response string
}

func (f *fakeVision) Analyze(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	return f.response, nil
}

type fakeStore struct {
	inserted []*models.AnalysisRun
}

func (f *fakeStore) InsertRun(run *models.AnalysisRun) error {
	f.inserted = append(f.inserted, run)
	return nil
}

func (f *fakeStore) GetRuns(date, displayID string, limit int) ([]models.AnalysisRun, error) {
	return nil, nil
}

func newAnalyzeApp(t *testing.T, feedURL string) *fiber.App {
	t.Helper()

	feed := catalog.NewFeedClient(feedURL, "", time.Second)
	detector := detection.NewDetector(&fakeVision{response: `{"sku_names":[]}`})
	service := runs.NewService(&fakeStore{}, nil, detector)

	handler := NewAnalysisHandler(service, feed, session.NewRegistry())

	app := fiber.New()
	app.Post("/api/v1/analyze", handler.HandleAnalyze)
	return app
}

func analyzeRequest(t *testing.T, displayID, date, inlineCatalog string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	require.NoError(t, writer.WriteField("display_id", displayID))
	require.NoError(t, writer.WriteField("date", date))
	if inlineCatalog != "" {
		require.NoError(t, writer.WriteField("catalog", inlineCatalog))
	}

	part, err := writer.CreateFormFile("image", "shelf.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("img"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Session-ID", "s1")
	return req
}

func groundTruthFrom(t *testing.T, resp *http.Response) []string {
	t.Helper()

	var payload struct {
		GroundTruthSKUs []string `json:"ground_truth_skus"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	return payload.GroundTruthSKUs
}

// Each display is scored against its own catalog: a catalog cached on the
// session for one display must not leak into an analysis of another.
func TestAnalyzeCatalogScopedToDisplay(t *testing.T) {
	feedCalls := make(map[string]int)
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("display_id")
		feedCalls[id]++
		w.Header().Set("Content-Type", "application/json")
		if id == "D-2" {
			w.Write([]byte(`{"items":[{"name":"Bravo","include":true}]}`))
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer feedSrv.Close()

	app := newAnalyzeApp(t, feedSrv.URL)

	resp, err := app.Test(analyzeRequest(t, "D-1", "2025-03-01", `[{"name":"Alpha","include":true}]`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Alpha"}, groundTruthFrom(t, resp))

	resp, err = app.Test(analyzeRequest(t, "D-2", "2025-03-01", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Bravo"}, groundTruthFrom(t, resp))
	assert.Equal(t, 1, feedCalls["D-2"], "second display must fetch its own feed")
}

func TestAnalyzeReusesCatalogForSameDisplay(t *testing.T) {
	feedCalls := 0
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feedCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"name":"Alpha","include":true}]}`))
	}))
	defer feedSrv.Close()

	app := newAnalyzeApp(t, feedSrv.URL)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(analyzeRequest(t, "D-1", "2025-03-01", ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"Alpha"}, groundTruthFrom(t, resp))
	}

	assert.Equal(t, 1, feedCalls, "same display and date reuses the session catalog")
}

func TestAnalyzeDifferentDateRefetches(t *testing.T) {
	feedCalls := 0
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feedCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"name":"Alpha","include":true}]}`))
	}))
	defer feedSrv.Close()

	app := newAnalyzeApp(t, feedSrv.URL)

	resp, err := app.Test(analyzeRequest(t, "D-1", "2025-03-01", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(analyzeRequest(t, "D-1", "2025-03-02", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 2, feedCalls, "a new date invalidates the cached catalog")
}
