package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DispatchMessage is the queue payload describing one job. It must be
// self-contained: a worker needs nothing beyond this record to process it.
type DispatchMessage struct {
	BackgroundBucket string  `json:"background_bucket"`
	BackgroundKey    string  `json:"background_key"`
	Image1Bucket     string  `json:"image1_bucket"`
	Image1Key        string  `json:"image1_key"`
	Image2Bucket     string  `json:"image2_bucket"`
	Image2Key        string  `json:"image2_key"`
	OutputBucket     string  `json:"output_bucket"`
	OutputKey        string  `json:"output_key"`
	IncludeAudio     bool    `json:"include_audio"`
	DurationSeconds  float64 `json:"duration_seconds"`
}

// ErrorMarker is the failure record the worker writes next to the missing
// output artifact when a job cannot be completed.
type ErrorMarker struct {
	JobID    string    `json:"job_id"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// CoerceBool interprets a loosely-typed JSON value as a boolean.
// Clients send include_audio as a bool, a string ("false", "0", "no",
// "off", "") or not at all; absent and unparseable values fall back to
// def. Any string form other than the false-like ones is treated as true.
func CoerceBool(raw json.RawMessage, def bool) bool {
	if len(raw) == 0 {
		return def
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "false", "0", "no", "off", "":
			return false
		default:
			return true
		}
	}

	// Numbers: zero is false, anything else true.
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}

	return def
}

// CoerceDuration interprets a loosely-typed JSON value as a duration in
// seconds. Parse failures fall back to the default instead of failing the
// request; clamping happens later, in the composition step.
func CoerceDuration(raw json.RawMessage) float64 {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultDurationSeconds
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}

	return DefaultDurationSeconds
}
