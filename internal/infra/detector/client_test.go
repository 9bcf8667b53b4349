package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFrame(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not-really-a-png"), 0o644))
	return path
}

func TestClient_Detect_NormalizesPredictions(t *testing.T) {
	var gotContentType string
	var gotBody int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody = r.ContentLength
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[
			{"label":"bear","score":0.92,"box":[10,20,100,80]},
			{"label":"bench","score":0.41,"box":[0,0,50,25]}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	detections, err := client.Detect(context.Background(), writeFrame(t, "frame.png"))
	require.NoError(t, err)

	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, int64(len("not-really-a-png")), gotBody)

	require.Len(t, detections, 2)
	assert.Equal(t, entity.Detection{
		Label:      "bear",
		Confidence: 0.92,
		Box:        entity.BoundingBox{X: 10, Y: 20, Width: 100, Height: 80},
		Category:   entity.CategoryDynamic,
	}, detections[0])

	// Low scores pass through untouched: filtering belongs to the
	// aggregation boundary, not the adapter.
	assert.Equal(t, 0.41, detections[1].Confidence)
	assert.Equal(t, entity.CategoryStatic, detections[1].Category)
}

func TestClient_Detect_EmptyPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	detections, err := client.Detect(context.Background(), writeFrame(t, "frame.jpg"))
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestClient_Detect_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	_, err := client.Detect(context.Background(), writeFrame(t, "frame.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClient_Detect_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions": "nope"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	_, err := client.Detect(context.Background(), writeFrame(t, "frame.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode detector response")
}

func TestClient_Detect_MissingImage(t *testing.T) {
	client := NewClient("http://localhost:1", time.Second, zap.NewNop())
	_, err := client.Detect(context.Background(), filepath.Join(t.TempDir(), "absent.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read frame image")
}
