package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/DataTransformer/internal/config"
	"github.com/JonMunkholm/DataTransformer/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Observer is notified once per processed file and once per batch.
// FileProcessed is called from worker goroutines, so implementations must
// be safe for concurrent use.
type Observer interface {
	FileProcessed(result *FileResult)

	// BatchProcessed receives the finished batch, or a nil batch and the
	// error that rejected it.
	BatchProcessed(batch *BatchResult, err error)
}

// Service runs upload batches through the transformation pipeline.
type Service struct {
	cfg      *config.Config
	limiter  *UploadLimiter
	observer Observer
}

// NewService creates a Service. observer may be nil.
func NewService(cfg *config.Config, observer Observer) *Service {
	return &Service{
		cfg:      cfg,
		limiter:  NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		observer: observer,
	}
}

// ProcessBatch runs every job through the pipeline and returns one result
// per job, in the same order.
//
// Files are processed concurrently, at most Pipeline.Workers at a time. A
// failing file never affects the others: its error is recorded in its
// FileResult. The returned error is reserved for failures of the batch as a
// whole, such as an empty or oversized batch or no free upload slot.
func (s *Service) ProcessBatch(ctx context.Context, jobs []Job) (batch *BatchResult, err error) {
	if s.observer != nil {
		defer func() { s.observer.BatchProcessed(batch, err) }()
	}

	if len(jobs) == 0 {
		return nil, ErrNoFiles
	}
	if limit := s.cfg.Upload.MaxFiles; len(jobs) > limit {
		return nil, fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(jobs), limit)
	}

	if err = s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	start := time.Now()
	batch = &BatchResult{
		ID:    uuid.New().String(),
		Files: make([]FileResult, len(jobs)),
	}
	logger := logging.WithFields(ctx,
		"batch_id", batch.ID,
		"client_ip", ClientIPFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)
	logger.Info("batch started", "files", len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Pipeline.Workers)
	for i := range jobs {
		g.Go(func() error {
			batch.Files[i] = s.ProcessFile(gctx, jobs[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in each FileResult

	for i := range batch.Files {
		res := &batch.Files[i]
		if res.OK() {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
		attrs := []any{
			"file", res.FileName,
			"rows", res.Rows(),
			"warnings", len(res.Warnings),
			"duration_ms", res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			logger.Warn("file failed", append(attrs, "error", res.Err, "code", MapError(res.Err).Code)...)
		} else {
			logger.Info("file processed", attrs...)
		}
	}

	batch.Duration = time.Since(start)
	logger.Info("batch finished",
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"duration_ms", batch.Duration.Milliseconds(),
	)
	return batch, nil
}

// ProcessFile runs one file through load, clean, project, chart and export,
// in that order. It never panics on bad input; every failure is reported
// through the returned FileResult.
func (s *Service) ProcessFile(ctx context.Context, job Job) FileResult {
	start := time.Now()
	res := FileResult{
		FileName:  job.File.Name,
		SizeBytes: job.File.Size,
	}
	defer func() {
		res.Duration = time.Since(start)
		if s.observer != nil {
			s.observer.FileProcessed(&res)
		}
	}()

	choices := job.Choices
	if err := choices.Validate(); err != nil {
		res.Err = err
		return res
	}

	if limit := s.cfg.Upload.MaxFileSize; job.File.Size > limit || int64(len(job.File.Data)) > limit {
		res.Err = fmt.Errorf("%w: %s is %s, limit is %s",
			ErrFileTooLarge, job.File.Name, FormatKB(job.File.Size), FormatKB(limit))
		return res
	}

	t, err := Load(job.File.Name, job.File.Data)
	if err != nil {
		res.Err = err
		return res
	}
	res.SourceColumns = t.ColumnNames()

	if choices.CleanDuplicates {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		var removed int
		t, removed = RemoveDuplicates(t)
		res.DuplicatesRemoved = removed
		res.Notices = append(res.Notices, fmt.Sprintf("Duplicates removed: %d row(s)", removed))
	}

	if choices.FillMissing {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		var report FillReport
		t, report = FillMissingNumeric(t)
		res.CellsFilled = report.FilledCells
		res.Notices = append(res.Notices, fmt.Sprintf("Missing values filled: %d cell(s)", report.FilledCells))
		for _, name := range report.EmptyColumns {
			res.Warnings = append(res.Warnings, &ColumnError{Err: ErrEmptyColumnMean, Columns: []string{name}})
		}
	}

	if len(choices.SelectedColumns) > 0 {
		selected, err := SelectColumns(t, choices.SelectedColumns)
		if err != nil {
			// Keep every column and tell the user why.
			res.Warnings = append(res.Warnings, err)
		} else {
			t = selected
		}
	}

	res.Table = t
	res.Preview = Head(t, s.cfg.Pipeline.PreviewRows)

	if choices.ChartRequested {
		chart := Chart(t, s.cfg.Pipeline.ChartMaxRows)
		res.Chart = &chart
	}

	if choices.Export {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		artifact, err := Export(t, job.File.Name, choices.ExportFormat)
		if err != nil {
			res.Err = err
			return res
		}
		res.Artifact = artifact
	}

	return res
}

// UploadLimiterStatus reports how many batches are running.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until running batches finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
