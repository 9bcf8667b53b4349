package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/natureobs/natureobs-analysis-service/internal/analysis"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
	"github.com/natureobs/natureobs-analysis-service/internal/infra/metrics"
	"github.com/natureobs/natureobs-analysis-service/internal/queue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AnalyzeVideoUseCase struct {
	repo       port.JobRepository
	storage    port.VideoStorage
	prober     port.VideoProber
	extractor  port.FrameExtractor
	thumbs     port.ThumbnailExtractor
	downscaler port.Downscaler
	detector   port.Detector
	archiver   port.ThumbnailArchiver
	publisher  port.StatusPublisher
	dlq        port.DLQPublisher
	notifier   port.FailureNotifier
	engine     *analysis.Engine
	logger     *zap.Logger

	tempDir      string
	maxRetry     int
	analysisFPS  float64
	thumbnailFPS float64
	frameFormat  string
}

type AnalyzeVideoConfig struct {
	TempDir      string
	MaxRetries   int
	AnalysisFPS  float64
	ThumbnailFPS float64
	FrameFormat  string
}

func NewAnalyzeVideoUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	prober port.VideoProber,
	extractor port.FrameExtractor,
	thumbs port.ThumbnailExtractor,
	downscaler port.Downscaler,
	detector port.Detector,
	archiver port.ThumbnailArchiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	uc := &AnalyzeVideoUseCase{
		repo:         repo,
		storage:      storage,
		prober:       prober,
		extractor:    extractor,
		thumbs:       thumbs,
		downscaler:   downscaler,
		detector:     detector,
		archiver:     archiver,
		publisher:    publisher,
		dlq:          dlq,
		notifier:     notifier,
		engine:       analysis.NewEngine(analysis.ConfidenceThreshold),
		logger:       logger,
		tempDir:      cfg.TempDir,
		maxRetry:     cfg.MaxRetries,
		analysisFPS:  cfg.AnalysisFPS,
		thumbnailFPS: cfg.ThumbnailFPS,
		frameFormat:  cfg.FrameFormat,
	}
	if uc.analysisFPS <= 0 {
		uc.analysisFPS = analysis.DefaultAnalysisFPS
	}
	if uc.thumbnailFPS <= 0 {
		uc.thumbnailFPS = analysis.DefaultThumbnailFPS
	}
	if uc.frameFormat == "" {
		uc.frameFormat = "png"
	}
	return uc
}

func (uc *AnalyzeVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.VideoAnalysisMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewAnalysisJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.analyzeVideoPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *AnalyzeVideoUseCase) analyzeVideoPipeline(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from object storage
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctxDl, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Probe duration and source resolution
	meta, err := uc.prober.Probe(ctx, videoPath)
	if err != nil {
		log.Error("failed to probe video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "probe_video: "+err.Error(), log)
	}
	log.Info("video probed",
		zap.Float64("duration", meta.Duration),
		zap.Int("width", meta.Resolution.Width),
		zap.Int("height", meta.Resolution.Height),
	)

	// Preview filmstrip (low-rate thumbnails)
	thStart := time.Now()
	ctxTh, spanTh := tracer.Start(ctx, "extract_thumbnails")
	thumbsDir := filepath.Join(workDir, "thumbs")
	if err := os.MkdirAll(thumbsDir, 0755); err != nil {
		spanTh.End()
		return fmt.Errorf("create thumbs dir: %w", err)
	}
	thumbs, err := uc.thumbs.ExtractThumbnails(ctxTh, videoPath, thumbsDir, uc.thumbnailFPS)
	if err != nil {
		spanTh.End()
		log.Error("thumbnail extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_thumbnails: "+err.Error(), log)
	}
	spanTh.End()
	metrics.JobProcessingDuration.WithLabelValues("thumbnails").Observe(time.Since(thStart).Seconds())

	previewTimestamps := analysis.Sample(meta.Duration, uc.thumbnailFPS)

	// Analysis frame extraction at the higher sampling rate
	exStart := time.Now()
	ctxEx, spanEx := tracer.Start(ctx, "extract_frames")
	data, items, err := uc.extractAnalysisFrames(ctxEx, videoPath, workDir, meta, previewTimestamps, thumbs.Paths, log)
	spanEx.End()
	if err != nil {
		log.Error("frame extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_frames: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())

	// Detection over the processing queue
	detStart := time.Now()
	ctxDet, spanDet := tracer.Start(ctx, "detect_frames")
	inventory, err := uc.runDetection(ctxDet, data, items, log)
	spanDet.End()
	if err != nil {
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "detect_frames: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("detect").Observe(time.Since(detStart).Seconds())

	// Build and upload the export report
	upStart := time.Now()
	ctxUp, spanUp := tracer.Start(ctx, "upload_report")
	export, err := analysis.BuildExport(data, inventory, time.Now())
	if err != nil {
		spanUp.End()
		log.Error("export serialization failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "build_export: "+err.Error(), log)
	}
	reportJSON, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "marshal_export: "+err.Error(), log)
	}
	reportKey := analysis.ReportObjectKey(msg.UserID, job.ID.String(), time.Now())
	if err := uc.storage.UploadReport(ctxUp, reportKey, bytes.NewReader(reportJSON), int64(len(reportJSON))); err != nil {
		spanUp.End()
		log.Error("report upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_report: "+err.Error(), log)
	}
	spanUp.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Thumbnail archive rides along with the report
	if err := uc.uploadThumbnailArchive(ctx, job, msg, workDir, thumbs.Paths, log); err != nil {
		log.Warn("thumbnail archive upload failed", zap.Error(err))
	}

	job.MarkCompleted(reportKey, len(data.Frames), len(export.Metadata.DetectedObjects), meta.Duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", len(data.Frames)),
		zap.Int("object_count", len(export.Metadata.DetectedObjects)),
		zap.Float64("duration_secs", meta.Duration),
		zap.String("report_key", reportKey),
	)

	return nil
}

// workItem is one extracted frame ready for detection.
type workItem struct {
	frameID   string
	timestamp float64
	imagePath string
}

// extractAnalysisFrames samples the video at the analysis rate and
// captures each timestamp through a single video handle, downscaling to
// the processing resolution for detection. A frame that fails to extract
// is skipped: its FrameData keeps an empty segmentation and the batch
// continues.
func (uc *AnalyzeVideoUseCase) extractAnalysisFrames(
	ctx context.Context,
	videoPath, workDir string,
	meta *port.VideoMetadata,
	previewTimestamps []float64,
	thumbnailPaths []string,
	log *zap.Logger,
) (*entity.ProcessedVideoData, []workItem, error) {
	timestamps := analysis.Sample(meta.Duration, uc.analysisFPS)
	if len(timestamps) == 0 {
		return nil, nil, fmt.Errorf("video has no sampleable duration")
	}

	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create frames dir: %w", err)
	}

	handle, err := uc.extractor.Open(videoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open video handle: %w", err)
	}
	defer handle.Close()

	proc := analysis.ProcessingResolution(meta.Resolution)

	data := &entity.ProcessedVideoData{
		Frames:     make([]entity.FrameData, 0, len(timestamps)),
		Duration:   meta.Duration,
		Resolution: meta.Resolution,
	}
	items := make([]workItem, 0, len(timestamps))

	for i, ts := range timestamps {
		frameID := fmt.Sprintf("frame-%d", i)
		frame := entity.FrameData{ID: frameID, Timestamp: ts}
		if idx := analysis.NearestFrameIndex(previewTimestamps, ts, uc.thumbnailFPS); idx >= 0 && idx < len(thumbnailPaths) {
			frame.Thumbnail = filepath.Base(thumbnailPaths[idx])
		}
		data.Frames = append(data.Frames, frame)

		nativePath := filepath.Join(framesDir, fmt.Sprintf("%s_native.%s", frameID, uc.frameFormat))
		if err := handle.ExtractFrame(ctx, ts, nativePath); err != nil {
			log.Warn("frame extraction failed, skipping",
				zap.String("frame_id", frameID),
				zap.Float64("timestamp", ts),
				zap.Error(err),
			)
			metrics.FrameFailuresTotal.WithLabelValues("extraction").Inc()
			continue
		}

		procPath := nativePath
		if proc != meta.Resolution {
			procPath = filepath.Join(framesDir, fmt.Sprintf("%s.%s", frameID, uc.frameFormat))
			if err := uc.downscaler.Downscale(ctx, nativePath, procPath, proc); err != nil {
				log.Warn("frame downscale failed, skipping",
					zap.String("frame_id", frameID),
					zap.Error(err),
				)
				metrics.FrameFailuresTotal.WithLabelValues("downscale").Inc()
				continue
			}
		}

		items = append(items, workItem{frameID: frameID, timestamp: ts, imagePath: procPath})
	}

	if len(items) == 0 && len(timestamps) > 0 {
		return nil, nil, fmt.Errorf("no frames extracted from video")
	}
	return data, items, nil
}

// runDetection feeds the extracted frames through the processing queue
// and folds completion events into the frame state and the persistent
// inventory. This goroutine is the single writer for both; the queue
// only hands over immutable result events.
func (uc *AnalyzeVideoUseCase) runDetection(
	ctx context.Context,
	data *entity.ProcessedVideoData,
	items []workItem,
	log *zap.Logger,
) (entity.Inventory, error) {
	q := queue.New(uc.detector, len(items), log)
	defer q.Close()

	go func() {
		for _, it := range items {
			q.Submit(it.frameID, it.timestamp, it.imagePath)
		}
	}()

	inventory := make(entity.Inventory)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-q.Events():
			if !ok {
				return inventory, nil
			}
			switch ev.Type {
			case queue.EventStarted:
				log.Debug("frame analysis started",
					zap.String("frame_id", ev.FrameID),
					zap.Float64("timestamp", ev.Timestamp),
				)
			case queue.EventCompleted:
				frame := data.FrameByID(ev.FrameID)
				if frame == nil {
					continue
				}
				*frame = uc.engine.ApplyDetections(*frame, ev.Detections)
				inventory = uc.engine.UpdateInventory(inventory, ev.Detections)
				for _, m := range frame.Segmentation.Masks {
					metrics.DetectionsTotal.WithLabelValues(string(m.Category)).Inc()
				}
				metrics.FramesAnalyzedTotal.Inc()
				log.Debug("frame analyzed",
					zap.String("frame_id", ev.FrameID),
					zap.Int("masks", len(frame.Segmentation.Masks)),
					zap.Float64("progress", ev.Progress),
				)
			case queue.EventError:
				// Per-frame detector failure: the frame keeps its empty
				// segmentation and the batch continues.
				metrics.FrameFailuresTotal.WithLabelValues("detection").Inc()
				metrics.FramesAnalyzedTotal.Inc()
			}
		}
	}
}

func (uc *AnalyzeVideoUseCase) uploadThumbnailArchive(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.VideoAnalysisMessage,
	workDir string,
	thumbnailPaths []string,
	log *zap.Logger,
) error {
	archivePath := filepath.Join(workDir, "thumbs.zip")
	if err := uc.archiver.Archive(ctx, thumbnailPaths, archivePath); err != nil {
		return fmt.Errorf("archive thumbnails: %w", err)
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	key := fmt.Sprintf("%s/thumbs_%s.zip", msg.UserID, job.ID.String())
	if err := uc.storage.UploadArchive(ctx, key, f, stat.Size()); err != nil {
		return err
	}
	log.Info("thumbnail archive uploaded", zap.String("archive_key", key))
	return nil
}

func (uc *AnalyzeVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *AnalyzeVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *AnalyzeVideoUseCase) publishStatus(ctx context.Context, job *entity.AnalysisJob, log *zap.Logger) {
	statusMsg := entity.VideoStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		ReportKey:    job.ReportKey,
		FrameCount:   job.FrameCount,
		ObjectCount:  job.ObjectCount,
		Duration:     job.VideoDuration,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
