// Package worker consumes dispatch messages and runs them to completion:
// verify inputs, download, compose, publish the output artifact.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/video-overlay/internal/composer"
	"github.com/aliskhannn/video-overlay/internal/model"
)

// objectStore defines the storage operations the worker needs.
type objectStore interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Download(ctx context.Context, bucket, key, path string) error
	Upload(ctx context.Context, bucket, key, path, contentType string) error
	PutBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error
	Remove(ctx context.Context, bucket, key string) error
}

// videoComposer renders the output file from downloaded inputs.
type videoComposer interface {
	Compose(ctx context.Context, in composer.Input) error
}

// Worker processes one dispatch message at a time. Horizontal scaling
// comes from running more worker processes; because the queue is
// at-least-once, two workers may process the same message concurrently,
// and both will overwrite the same canonical output key with equivalent
// bytes.
type Worker struct {
	store    objectStore
	composer videoComposer
	workDir  string
}

// New creates a Worker. workDir is the base directory for transient job
// files; empty means the OS temp dir.
func New(store objectStore, c videoComposer, workDir string) *Worker {
	return &Worker{store: store, composer: c, workDir: workDir}
}

// Process runs one job end to end. The message is only committed by the
// consumer after Process returns nil, so every step before the final
// publish is safe to repeat. Unrecoverable failures leave a marker object
// next to the would-be output so status polls can distinguish a dead job
// from a slow one.
func (w *Worker) Process(ctx context.Context, msg model.DispatchMessage) error {
	log := zlog.Logger.With().Str("output_key", msg.OutputKey).Logger()
	log.Info().Msg("job received")

	if err := w.verifyInputs(ctx, msg); err != nil {
		// Only a confirmed-absent object is terminal. A failed stat is
		// indistinguishable from a storage blip: leave no marker and let
		// redelivery retry.
		var missing *missingInputError
		if errors.As(err, &missing) {
			w.writeErrorMarker(ctx, msg, err)
		}
		return err
	}
	log.Info().Msg("inputs verified")

	dir, err := os.MkdirTemp(w.workDir, "overlay-job-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	// Transient copies live only for the duration of the job; removal
	// failures are logged and never escalate.
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Msg("failed to remove work dir")
		}
	}()

	backgroundPath := filepath.Join(dir, "background.mp4")
	image1Path := filepath.Join(dir, "image1"+keyExt(msg.Image1Key))
	image2Path := filepath.Join(dir, "image2"+keyExt(msg.Image2Key))
	outputPath := filepath.Join(dir, "output.mp4")

	downloads := []struct {
		bucket, key, path string
	}{
		{msg.BackgroundBucket, msg.BackgroundKey, backgroundPath},
		{msg.Image1Bucket, msg.Image1Key, image1Path},
		{msg.Image2Bucket, msg.Image2Key, image2Path},
	}
	for _, d := range downloads {
		if err := w.store.Download(ctx, d.bucket, d.key, d.path); err != nil {
			return fmt.Errorf("download %s/%s: %w", d.bucket, d.key, err)
		}
	}
	log.Info().Msg("inputs downloaded")

	err = w.composer.Compose(ctx, composer.Input{
		BackgroundPath:  backgroundPath,
		Image1Path:      image1Path,
		Image2Path:      image2Path,
		OutputPath:      outputPath,
		IncludeAudio:    msg.IncludeAudio,
		DurationSeconds: msg.DurationSeconds,
	})
	if err != nil {
		// Bad media will fail the same way on every redelivery; record
		// it so the job stops looking like it is still processing.
		w.writeErrorMarker(ctx, msg, err)
		return fmt.Errorf("compose: %w", err)
	}
	log.Info().Msg("composed")

	if err := w.publish(ctx, msg, outputPath); err != nil {
		return err
	}
	log.Info().Msg("output uploaded")

	return nil
}

// missingInputError marks a source object that storage confirmed absent.
// Unlike a failed stat, this cannot be fixed by redelivery.
type missingInputError struct {
	bucket, key string
}

func (e *missingInputError) Error() string {
	return fmt.Sprintf("input object missing: %s/%s", e.bucket, e.key)
}

// verifyInputs stats all three source objects before any download, so a
// missing object fails the job fast instead of after a wasted transfer.
func (w *Worker) verifyInputs(ctx context.Context, msg model.DispatchMessage) error {
	inputs := []struct {
		bucket, key string
	}{
		{msg.BackgroundBucket, msg.BackgroundKey},
		{msg.Image1Bucket, msg.Image1Key},
		{msg.Image2Bucket, msg.Image2Key},
	}

	for _, in := range inputs {
		exists, err := w.store.Exists(ctx, in.bucket, in.key)
		if err != nil {
			return fmt.Errorf("stat %s/%s: %w", in.bucket, in.key, err)
		}
		if !exists {
			return &missingInputError{bucket: in.bucket, key: in.key}
		}
	}

	return nil
}

// publish uploads the rendered file under a staging key, then server-side
// copies it to the canonical output key and removes the staging object.
// The final key never holds partial bytes, which keeps duplicate
// processing idempotent: the commit point is the copy.
func (w *Worker) publish(ctx context.Context, msg model.DispatchMessage, outputPath string) error {
	stagingKey := "tmp/" + strings.TrimPrefix(msg.OutputKey, "outputs/") + "." + uuid.NewString()[:8]

	if err := w.store.Upload(ctx, msg.OutputBucket, stagingKey, outputPath, "video/mp4"); err != nil {
		return fmt.Errorf("upload staging object: %w", err)
	}

	if err := w.store.Copy(ctx, msg.OutputBucket, stagingKey, msg.OutputKey); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}

	if err := w.store.Remove(ctx, msg.OutputBucket, stagingKey); err != nil {
		zlog.Logger.Warn().Err(err).
			Str("key", stagingKey).
			Msg("failed to remove staging object")
	}

	return nil
}

// writeErrorMarker records an unrecoverable failure next to the would-be
// output artifact. Best effort: if the marker cannot be written the job
// simply stays in processing from the client's point of view.
func (w *Worker) writeErrorMarker(ctx context.Context, msg model.DispatchMessage, cause error) {
	jobID := jobIDFromOutputKey(msg.OutputKey)
	if jobID == "" {
		return
	}

	marker := model.ErrorMarker{
		JobID:    jobID,
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return
	}

	markerKey := model.ErrorMarkerKey(jobID)
	if err := w.store.PutBytes(ctx, msg.OutputBucket, markerKey, data, "application/json"); err != nil {
		zlog.Logger.Warn().Err(err).
			Str("key", markerKey).
			Msg("failed to write error marker")
	}
}

// jobIDFromOutputKey inverts the outputs/{job_id}.mp4 convention.
func jobIDFromOutputKey(outputKey string) string {
	name := strings.TrimPrefix(outputKey, "outputs/")
	return strings.TrimSuffix(name, ".mp4")
}

// keyExt keeps the original image extension so decoders see the format
// they expect; unknown keys fall back to .png.
func keyExt(key string) string {
	if ext := filepath.Ext(key); ext != "" {
		return ext
	}
	return ".png"
}
