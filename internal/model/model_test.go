package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestExtForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", "jpg"},
		{"IMAGE/JPEG", "jpg"},
		{"image/heic", "heic"},
		{"image/png", "png"},
		{"image/webp", "png"},
		{"", "png"},
	}

	for _, tt := range tests {
		if got := ExtForContentType(tt.contentType); got != tt.want {
			t.Errorf("ExtForContentType(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}

func TestKeyConventions(t *testing.T) {
	if got := OutputKey("abc123"); got != "outputs/abc123.mp4" {
		t.Errorf("OutputKey = %q", got)
	}
	if got := ErrorMarkerKey("abc123"); got != "outputs/abc123.error.json" {
		t.Errorf("ErrorMarkerKey = %q", got)
	}
	if got := ImageKey("deadbeef0123", "jpg"); got != "images/deadbeef0123.jpg" {
		t.Errorf("ImageKey = %q", got)
	}
}

func TestIDLengths(t *testing.T) {
	if id := NewJobID(); len(id) != 8 {
		t.Errorf("job id %q has length %d, want 8", id, len(id))
	}
	if id := NewImageID(); len(id) != 12 {
		t.Errorf("image id %q has length %d, want 12", id, len(id))
	}
	if NewJobID() == NewJobID() {
		t.Error("job ids are not unique")
	}
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0.1},
		{0, 0.1},
		{0.05, 0.1},
		{6, 6},
		{12, 12},
		{50, 12},
	}

	for _, tt := range tests {
		if got := ClampDuration(tt.in); got != tt.want {
			t.Errorf("ClampDuration(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"false", true, false},
		{`"false"`, true, false},
		{`"0"`, true, false},
		{`"no"`, true, false},
		{`"off"`, true, false},
		{`""`, true, false},
		{`" FALSE "`, true, false},
		{`"yes"`, false, true},
		{`"anything"`, false, true},
		{"0", true, false},
		{"1", false, true},
	}

	for _, tt := range tests {
		if got := CoerceBool(json.RawMessage(tt.raw), tt.def); got != tt.want {
			t.Errorf("CoerceBool(%q, %v) = %v, want %v", tt.raw, tt.def, got, tt.want)
		}
	}
}

func TestCoerceDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", DefaultDurationSeconds},
		{"null", DefaultDurationSeconds},
		{"3.5", 3.5},
		{"50", 50},
		{`"4.2"`, 4.2},
		{`"not a number"`, DefaultDurationSeconds},
		{"{}", DefaultDurationSeconds},
	}

	for _, tt := range tests {
		if got := CoerceDuration(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("CoerceDuration(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDispatchMessageRoundTrip(t *testing.T) {
	msg := DispatchMessage{
		BackgroundBucket: "in",
		BackgroundKey:    "backgrounds/background.mp4",
		Image1Bucket:     "in",
		Image1Key:        "images/a.jpg",
		Image2Bucket:     "in",
		Image2Key:        "images/b.png",
		OutputBucket:     "out",
		OutputKey:        "outputs/j1.mp4",
		IncludeAudio:     true,
		DurationSeconds:  6,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// The wire format is shared with external consumers; field names are
	// part of the contract.
	for _, field := range []string{
		"background_bucket", "background_key", "image1_bucket", "image1_key",
		"image2_bucket", "image2_key", "output_bucket", "output_key",
		"include_audio", "duration_seconds",
	} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("serialized message missing field %q: %s", field, data)
		}
	}
}
