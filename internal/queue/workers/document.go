// Package workers holds the asynq task handlers run by the worker process.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/jobs"
	"github.com/formflowhq/backend/internal/queue"
	"github.com/formflowhq/backend/internal/storage"
)

// DocumentWorker drives one extraction job: it loads the stored bytes, runs
// the extraction pipeline, and records the outcome on the job row.
type DocumentWorker struct {
	jobs      *jobs.Service
	blobs     storage.BlobStore
	extractor *extraction.Service
}

func NewDocumentWorker(js *jobs.Service, blobs storage.BlobStore, extractor *extraction.Service) *DocumentWorker {
	return &DocumentWorker{
		jobs:      js,
		blobs:     blobs,
		extractor: extractor,
	}
}

func (w *DocumentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("parse job ID: %w", err)
	}

	slog.Info("processing extraction job", "job_id", jobID)

	if err := w.jobs.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}

	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return fmt.Errorf("job %s vanished: %w", jobID, asynq.SkipRetry)
		}
		return fmt.Errorf("get job: %w", err)
	}

	data, err := w.blobs.Get(ctx, job.BlobKey)
	if err != nil {
		w.jobs.Fail(ctx, jobID, "stored document unavailable")
		return fmt.Errorf("load blob: %w", err)
	}

	res, err := w.extractor.Extract(ctx, job.Name, job.DeclaredType, data)
	if err != nil {
		// Input problems are permanent; retrying cannot fix the bytes.
		w.jobs.Fail(ctx, jobID, err.Error())
		var inputErr *extraction.InputError
		if errors.As(err, &inputErr) {
			return fmt.Errorf("reject document: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("extract text: %w", err)
	}

	if res.Text == "" {
		if err := w.jobs.Fail(ctx, jobID, "no text could be extracted"); err != nil {
			return fmt.Errorf("mark job failed: %w", err)
		}
		slog.Warn("extraction job yielded no text", "job_id", jobID, "name", job.Name)
		return nil
	}

	text := extraction.Sanitize(res.Text, 0)
	if err := w.jobs.Complete(ctx, jobID, string(res.Method), text); err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	slog.Info("extraction job completed",
		"job_id", jobID, "method", res.Method, "pages", res.Pages, "chars", len(text))
	return nil
}
