// Package detector adapts the external object-detection capability: an
// HTTP inference service that accepts an image and returns label/score/
// box predictions. The service's inference mechanics are opaque here.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/natureobs/natureobs-analysis-service/internal/analysis"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
	"github.com/natureobs/natureobs-analysis-service/internal/infra/metrics"
	"go.uber.org/zap"
)

// prediction is the wire shape of one detector output. Box is
// [x, y, width, height] in the pixel space of the submitted image.
type prediction struct {
	Label string     `json:"label"`
	Score float64    `json:"score"`
	Box   [4]float64 `json:"box"`
}

type detectResponse struct {
	Predictions []prediction `json:"predictions"`
}

type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Detect posts the image to the inference service and normalizes its
// predictions into Detection records, adding the static/dynamic category
// classification. No confidence filtering happens here: that is the
// aggregation boundary's job, so display paths that want raw output can
// consume the adapter directly.
func (c *Client) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read frame image: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.DetectionLatency.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build detect request: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(imagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detector returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}

	detections := make([]entity.Detection, 0, len(parsed.Predictions))
	for _, p := range parsed.Predictions {
		detections = append(detections, entity.Detection{
			Label:      p.Label,
			Confidence: p.Score,
			Box: entity.BoundingBox{
				X:      p.Box[0],
				Y:      p.Box[1],
				Width:  p.Box[2],
				Height: p.Box[3],
			},
			Category: analysis.Categorize(p.Label),
		})
	}

	c.logger.Debug("frame analyzed",
		zap.String("image", filepath.Base(imagePath)),
		zap.Int("predictions", len(detections)),
	)
	return detections, nil
}

var _ port.Detector = (*Client)(nil)
