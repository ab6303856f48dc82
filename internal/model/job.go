package model

import (
	"strings"

	"github.com/google/uuid"
)

// Duration bounds applied to every job before composition. Values outside
// the range are clamped, never rejected.
const (
	DefaultDurationSeconds = 6.0
	MinDurationSeconds     = 0.1
	MaxDurationSeconds     = 12.0
)

// NewJobID generates a short job identifier. The full UUID is overkill for
// a key suffix the client has to carry around, so only the first segment
// is used.
func NewJobID() string {
	return uuid.NewString()[:8]
}

// NewImageID generates a unique identifier for one uploaded image slot.
func NewImageID() string {
	return uuid.NewString()[:12]
}

// ImageKey returns the storage key for an uploaded image.
func ImageKey(imageID, ext string) string {
	return "images/" + imageID + "." + ext
}

// OutputKey returns the canonical output location for a job. Status lookup
// relies on this mapping being deterministic: there is no job ledger, the
// artifact at this key is the completion record.
func OutputKey(jobID string) string {
	return "outputs/" + jobID + ".mp4"
}

// ErrorMarkerKey returns the location of the failure marker the worker
// writes when a job cannot be completed.
func ErrorMarkerKey(jobID string) string {
	return "outputs/" + jobID + ".error.json"
}

// ExtForContentType maps a declared image content type to a file
// extension. Unknown types fall back to png.
func ExtForContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"):
		return "jpg"
	case strings.Contains(ct, "heic"):
		return "heic"
	default:
		return "png"
	}
}

// ClampDuration forces a requested duration into the allowed range.
func ClampDuration(seconds float64) float64 {
	if seconds < MinDurationSeconds {
		return MinDurationSeconds
	}
	if seconds > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return seconds
}

// UploadTargets is the result of a presign request: one time-limited
// write URL per image slot.
type UploadTargets struct {
	JobID     string `json:"job_id"`
	Image1Key string `json:"image1_key"`
	Image1URL string `json:"image1_url"`
	Image2Key string `json:"image2_key"`
	Image2URL string `json:"image2_url"`
}

// Job statuses reported by the status resolver.
const (
	StatusCompleted  = "completed"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
)

// JobStatus is the answer to "is job J done".
type JobStatus struct {
	Status      string `json:"status"`
	JobID       string `json:"job_id"`
	OutputKey   string `json:"output_key"`
	DownloadURL string `json:"download_url,omitempty"`
	OutputURL   string `json:"output_url,omitempty"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
}
