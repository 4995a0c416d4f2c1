package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/infra/metrics"
	"tryon/internal/providers/tryon"
	"tryon/internal/storage"
	"tryon/internal/store"
)

// DocumentStore is the slice of the document store the runner needs.
type DocumentStore interface {
	GetTryOn(ctx context.Context, id string) (*domain.TryOnJob, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateTryOn(ctx context.Context, id string, patch store.TryOnPatch) error
}

// BlobStore uploads one generated image and returns its stored file.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, ext string) (storage.File, error)
}

// Options wires the runner's collaborators.
type Options struct {
	Store        DocumentStore
	Blob         BlobStore
	Provider     tryon.Generator
	ProviderName string
	Logger       infra.Logger
}

// Runner executes one try-on generation end to end: it owns every status
// transition of the job record for the duration of a Run call.
type Runner struct {
	store        DocumentStore
	blob         BlobStore
	provider     tryon.Generator
	providerName string
	logger       infra.Logger
}

// Result is returned to the invoker on success.
type Result struct {
	ResultImageURLs []string
}

// RunError classifies a failed run for the invocation response: 400-class
// for unusable input, 404 for an unknown job, 502 when every result upload
// failed, 500 otherwise.
type RunError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RunError) Error() string { return e.Message }

func (e *RunError) Unwrap() error { return e.Err }

// NewRunner constructs a runner from explicit collaborators; there is no
// package-level client state.
func NewRunner(opts Options) *Runner {
	return &Runner{
		store:        opts.Store,
		blob:         opts.Blob,
		provider:     opts.Provider,
		providerName: opts.ProviderName,
		logger:       opts.Logger,
	}
}

// Run drives a single job from whatever status it is in to a terminal one.
// Invoking Run again for a job that already completed re-runs the whole
// pipeline and overwrites its results; nothing guards against duplicate
// invocation.
func (r *Runner) Run(ctx context.Context, jobID string) (*Result, error) {
	started := time.Now()
	metrics.JobsStarted.Inc()
	log := r.logger.With().Str("job_id", jobID).Logger()

	job, err := r.store.GetTryOn(ctx, jobID)
	if err != nil {
		// No job record means there is nothing to transition; the error
		// only goes back to the caller.
		metrics.JobsFailed.WithLabelValues("input").Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &RunError{StatusCode: http.StatusNotFound, Message: "try-on not found", Err: err}
		}
		return nil, &RunError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}

	sourceImageURL := job.SourceImageURL()
	if sourceImageURL == "" {
		return nil, r.failJob(ctx, log, jobID, http.StatusBadRequest, "input", domain.ErrNoSourceImage)
	}
	if job.ProductID == "" {
		return nil, r.failJob(ctx, log, jobID, http.StatusBadRequest, "input", domain.ErrNoProduct)
	}

	product, err := r.store.GetProduct(ctx, job.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, r.failJob(ctx, log, jobID, http.StatusBadRequest, "input", fmt.Errorf("product %s: %w", job.ProductID, err))
		}
		return nil, r.failJob(ctx, log, jobID, http.StatusInternalServerError, "store", err)
	}

	garmentImageURL := product.GarmentImageURL()
	if garmentImageURL == "" {
		return nil, r.failJob(ctx, log, jobID, http.StatusBadRequest, "input", domain.ErrNoGarmentImage)
	}

	// Informational transition; a failed write must not stop the pipeline.
	if err := r.store.UpdateTryOn(ctx, jobID, store.TryOnPatch{Status: domain.StatusProcessing}); err != nil {
		log.Warn().Err(err).Msg("runner: failed to mark job processing")
	}

	log.Info().Str("provider", r.providerName).Str("source", sourceImageURL).Str("garment", garmentImageURL).Msg("runner: invoking provider")
	providerStarted := time.Now()
	images, err := r.provider.Generate(ctx, sourceImageURL, garmentImageURL)
	metrics.ProviderDurationSeconds.WithLabelValues(r.providerName).Observe(time.Since(providerStarted).Seconds())
	if err != nil {
		return nil, r.failJob(ctx, log, jobID, http.StatusInternalServerError, "provider", err)
	}
	if len(images) == 0 {
		return nil, r.failJob(ctx, log, jobID, http.StatusInternalServerError, "provider", fmt.Errorf("%s: returned no images", r.providerName))
	}
	log.Info().Int("images", len(images)).Msg("runner: provider returned image buffers")

	// Each upload stands on its own; survivors keep their original order.
	var resultURLs []string
	for idx, data := range images {
		file, err := r.blob.Upload(ctx, data, "png")
		if err != nil {
			metrics.UploadFailures.Inc()
			log.Error().Err(err).Int("index", idx+1).Int("total", len(images)).Msg("runner: result upload failed")
			continue
		}
		log.Debug().Int("index", idx+1).Str("file_id", file.ID).Msg("runner: result uploaded")
		resultURLs = append(resultURLs, file.ViewURL)
	}

	if len(resultURLs) == 0 {
		return nil, r.failJob(ctx, log, jobID, http.StatusBadGateway, "upload", domain.ErrUploadFailure)
	}

	if err := r.store.UpdateTryOn(ctx, jobID, store.TryOnPatch{
		Status:          domain.StatusCompleted,
		ResultImageURLs: resultURLs,
	}); err != nil {
		return nil, r.failJob(ctx, log, jobID, http.StatusInternalServerError, "store", fmt.Errorf("record completion: %w", err))
	}

	metrics.JobsCompleted.Inc()
	metrics.JobDurationSeconds.Observe(time.Since(started).Seconds())
	log.Info().Int("results", len(resultURLs)).Dur("took", time.Since(started)).Msg("runner: job completed")
	return &Result{ResultImageURLs: resultURLs}, nil
}

// failJob forces the job into the error status and wraps the cause for the
// invoker. The status write is best-effort: its own failure is logged and
// explicitly discarded so it can never mask the real error.
func (r *Runner) failJob(ctx context.Context, log infra.Logger, jobID string, statusCode int, reason string, cause error) error {
	metrics.JobsFailed.WithLabelValues(reason).Inc()
	log.Error().Err(cause).Str("reason", reason).Msg("runner: job failed")

	if err := r.store.UpdateTryOn(ctx, jobID, store.TryOnPatch{
		Status:       domain.StatusError,
		ErrorMessage: cause.Error(),
	}); err != nil {
		log.Error().Err(err).Msg("runner: failed to record error status")
	}

	return &RunError{StatusCode: statusCode, Message: cause.Error(), Err: cause}
}
