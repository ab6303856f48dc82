package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/video-overlay/internal/api/respond"
	"github.com/aliskhannn/video-overlay/internal/model"
	jobsvc "github.com/aliskhannn/video-overlay/internal/service/job"
)

// service defines the interface for job-related operations.
type service interface {
	IssueUploadTargets(ctx context.Context, jobID, image1Type, image2Type string) (model.UploadTargets, error)
	AdmitJob(ctx context.Context, req jobsvc.AdmitRequest) (string, error)
	ResolveStatus(ctx context.Context, jobID string) model.JobStatus
	OutputBucket() string
}

// Handler provides the HTTP surface for the job pipeline: presign, submit
// and status, all on one endpoint the way the clients expect.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// SubmitRequest is the POST body. include_audio and duration_seconds stay
// raw because clients send them as bools, numbers or strings
// interchangeably.
type SubmitRequest struct {
	JobID           string          `json:"job_id"`
	Image1Key       string          `json:"image1_key"`
	Image2Key       string          `json:"image2_key"`
	BackgroundKey   string          `json:"background_key"`
	IncludeAudio    json.RawMessage `json:"include_audio"`
	DurationSeconds json.RawMessage `json:"duration_seconds"`
}

// Process is the single entry point for the pipeline API. GET requests
// select an action via query parameter, POST submits a job, OPTIONS is
// answered by the CORS middleware.
func (h *Handler) Process(c *ginext.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		switch action := c.Query("action"); action {
		case "presign":
			h.presign(c)
		case "status":
			h.status(c)
		default:
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("unknown action: %q", action))
		}
	case http.MethodPost:
		h.submit(c)
	case http.MethodOptions:
		c.Status(http.StatusOK)
	default:
		respond.Fail(c, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

// presign issues two upload targets for a new or existing job id.
func (h *Handler) presign(c *ginext.Context) {
	targets, err := h.service.IssueUploadTargets(
		c.Request.Context(),
		c.Query("job_id"),
		c.Query("image1_type"),
		c.Query("image2_type"),
	)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to issue upload targets")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to issue upload targets"))
		return
	}

	respond.OK(c, targets)
}

// status reports whether the job's output artifact exists yet.
func (h *Handler) status(c *ginext.Context) {
	jobID := c.Query("job_id")
	if jobID == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("job_id is required"))
		return
	}

	respond.OK(c, h.service.ResolveStatus(c.Request.Context(), jobID))
}

// submit validates the request body and admits the job.
func (h *Handler) submit(c *ginext.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read request body"))
		return
	}

	var req SubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid JSON body"))
		return
	}

	outputKey, err := h.service.AdmitJob(c.Request.Context(), jobsvc.AdmitRequest{
		JobID:           req.JobID,
		Image1Key:       req.Image1Key,
		Image2Key:       req.Image2Key,
		BackgroundKey:   req.BackgroundKey,
		IncludeAudio:    model.CoerceBool(req.IncludeAudio, true),
		DurationSeconds: model.CoerceDuration(req.DurationSeconds),
	})
	if err != nil {
		var missing *jobsvc.MissingImageError
		switch {
		case errors.As(err, &missing):
			zlog.Logger.Warn().Str("key", missing.Key).Msg("referenced image not uploaded")
			respond.Fail(c, http.StatusNotFound, err)
		case errors.Is(err, jobsvc.ErrInvalidInput):
			respond.Fail(c, http.StatusBadRequest, err)
		default:
			zlog.Logger.Err(err).Msg("failed to admit job")
			respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to queue job"))
		}
		return
	}

	respond.OK(c, map[string]interface{}{
		"message":    "Video processing queued",
		"job_id":     req.JobID,
		"image1_key": req.Image1Key,
		"image2_key": req.Image2Key,
		"output_key": outputKey,
		"output_url": fmt.Sprintf("s3://%s/%s", h.service.OutputBucket(), outputKey),
	})
}
