// Package job implements job submission and status resolution. Both are
// stateless: the only records of a job are the dispatch message on the
// queue and, eventually, the output artifact in storage.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/video-overlay/internal/model"
)

// ErrInvalidInput marks requests missing required fields.
var ErrInvalidInput = errors.New("invalid input")

// MissingImageError reports which referenced image is absent from storage
// at admission time.
type MissingImageError struct {
	Key string
}

func (e *MissingImageError) Error() string {
	return fmt.Sprintf("image not found in storage: %s", e.Key)
}

// objectStore defines the storage operations the service needs.
type objectStore interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
}

// producer defines the interface for enqueueing dispatch messages.
type producer interface {
	Enqueue(ctx context.Context, msg model.DispatchMessage) error
}

// Config carries the storage-layout conventions the service depends on.
type Config struct {
	InputBucket          string
	OutputBucket         string
	DefaultBackgroundKey string
	UploadURLTTL         time.Duration
	DownloadURLTTL       time.Duration
}

// Service admits new jobs, issues upload targets and resolves job status.
type Service struct {
	store    objectStore
	producer producer
	cfg      Config
}

// NewService creates a new Service with the given store and producer.
func NewService(store objectStore, p producer, cfg Config) *Service {
	return &Service{store: store, producer: p, cfg: cfg}
}

// OutputBucket reports where output artifacts land, for building s3://
// style references in API responses.
func (s *Service) OutputBucket() string {
	return s.cfg.OutputBucket
}

// IssueUploadTargets generates two unique image keys and time-limited
// write URLs for them. Nothing validates that the client uploads anything;
// the keys become real only when AdmitJob later finds objects behind them.
func (s *Service) IssueUploadTargets(ctx context.Context, jobID, image1Type, image2Type string) (model.UploadTargets, error) {
	if jobID == "" {
		jobID = model.NewJobID()
	}
	if image1Type == "" {
		image1Type = "image/png"
	}
	if image2Type == "" {
		image2Type = "image/png"
	}

	image1Key := model.ImageKey(model.NewImageID(), model.ExtForContentType(image1Type))
	image2Key := model.ImageKey(model.NewImageID(), model.ExtForContentType(image2Type))

	image1URL, err := s.store.PresignPut(ctx, s.cfg.InputBucket, image1Key, s.cfg.UploadURLTTL)
	if err != nil {
		return model.UploadTargets{}, fmt.Errorf("presign image1: %w", err)
	}
	image2URL, err := s.store.PresignPut(ctx, s.cfg.InputBucket, image2Key, s.cfg.UploadURLTTL)
	if err != nil {
		return model.UploadTargets{}, fmt.Errorf("presign image2: %w", err)
	}

	return model.UploadTargets{
		JobID:     jobID,
		Image1Key: image1Key,
		Image1URL: image1URL,
		Image2Key: image2Key,
		Image2URL: image2URL,
	}, nil
}

// AdmitRequest is a validated job submission.
type AdmitRequest struct {
	JobID           string
	Image1Key       string
	Image2Key       string
	BackgroundKey   string
	IncludeAudio    bool
	DurationSeconds float64
}

// AdmitJob verifies both referenced images exist, then enqueues a
// self-contained dispatch message. It returns the canonical output key
// the client should poll for.
func (s *Service) AdmitJob(ctx context.Context, req AdmitRequest) (string, error) {
	if req.JobID == "" || req.Image1Key == "" || req.Image2Key == "" {
		return "", fmt.Errorf("%w: job_id, image1_key and image2_key are required", ErrInvalidInput)
	}

	backgroundKey := req.BackgroundKey
	if backgroundKey == "" {
		backgroundKey = s.cfg.DefaultBackgroundKey
	}

	// Existence checks only; content is validated by the worker when it
	// actually decodes the files.
	for _, key := range []string{req.Image1Key, req.Image2Key} {
		exists, err := s.store.Exists(ctx, s.cfg.InputBucket, key)
		if err != nil {
			return "", fmt.Errorf("check image %s: %w", key, err)
		}
		if !exists {
			return "", &MissingImageError{Key: key}
		}
	}

	outputKey := model.OutputKey(req.JobID)

	msg := model.DispatchMessage{
		BackgroundBucket: s.cfg.InputBucket,
		BackgroundKey:    backgroundKey,
		Image1Bucket:     s.cfg.InputBucket,
		Image1Key:        req.Image1Key,
		Image2Bucket:     s.cfg.InputBucket,
		Image2Key:        req.Image2Key,
		OutputBucket:     s.cfg.OutputBucket,
		OutputKey:        outputKey,
		IncludeAudio:     req.IncludeAudio,
		DurationSeconds:  req.DurationSeconds,
	}

	if err := s.producer.Enqueue(ctx, msg); err != nil {
		return "", fmt.Errorf("enqueue dispatch message: %w", err)
	}

	zlog.Logger.Info().
		Str("job_id", req.JobID).
		Str("output_key", outputKey).
		Msg("job admitted")

	return outputKey, nil
}

// ResolveStatus answers whether a job finished by probing storage for the
// output artifact. The artifact wins over everything; a failure marker
// turns into a failed status; any probe error is reported as processing,
// because a transient storage error is indistinguishable from
// eventual-consistency delay and must never surface as a hard failure.
func (s *Service) ResolveStatus(ctx context.Context, jobID string) model.JobStatus {
	outputKey := model.OutputKey(jobID)

	status := model.JobStatus{
		Status:    model.StatusProcessing,
		JobID:     jobID,
		OutputKey: outputKey,
	}

	exists, err := s.store.Exists(ctx, s.cfg.OutputBucket, outputKey)
	if err != nil {
		zlog.Logger.Warn().Err(err).
			Str("job_id", jobID).
			Msg("status probe failed, reporting processing")
		status.Message = "Checking status..."
		return status
	}

	if exists {
		status.Status = model.StatusCompleted
		status.OutputURL = fmt.Sprintf("s3://%s/%s", s.cfg.OutputBucket, outputKey)

		url, err := s.store.PresignGet(ctx, s.cfg.OutputBucket, outputKey, s.cfg.DownloadURLTTL)
		if err != nil {
			zlog.Logger.Err(err).Str("job_id", jobID).Msg("failed to presign download url")
		} else {
			status.DownloadURL = url
		}

		return status
	}

	if marker, ok := s.readErrorMarker(ctx, jobID); ok {
		status.Status = model.StatusFailed
		status.Error = marker.Error
		return status
	}

	return status
}

// readErrorMarker fetches the worker's failure record, if any. Marker
// problems are swallowed: worst case the job just looks like it is still
// processing.
func (s *Service) readErrorMarker(ctx context.Context, jobID string) (model.ErrorMarker, bool) {
	markerKey := model.ErrorMarkerKey(jobID)

	exists, err := s.store.Exists(ctx, s.cfg.OutputBucket, markerKey)
	if err != nil || !exists {
		return model.ErrorMarker{}, false
	}

	marker := model.ErrorMarker{JobID: jobID, Error: "job failed during processing"}

	data, err := s.store.GetBytes(ctx, s.cfg.OutputBucket, markerKey)
	if err == nil {
		_ = json.Unmarshal(data, &marker)
	}

	return marker, true
}
