package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/entity"
)

type ExtractJobRepository interface {
	Start(ctx context.Context, sourcePath string, docType constants.DocType, model string) (*entity.ExtractJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, pages int) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Recent(ctx context.Context, limit int) ([]entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	return &extractJobRepo{db: db, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, sourcePath string, docType constants.DocType, model string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		DocType:    docType,
		Model:      model,
		Status:     constants.JobStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extract_job (id, source_path, doc_type, model, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		job.ID.String(), job.SourcePath, string(job.DocType), job.Model, string(job.Status), job.StartedAt,
	)
	if err != nil {
		r.log.Error("extract_job start failed", "source", sourcePath, "err", err)
		return nil, err
	}
	r.log.Info("extract_job started", "job_id", job.ID, "source", sourcePath, "doc_type", docType)
	return job, nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, pages int) error {
	if err := r.finish(ctx, jobID, status, &pages, nil); err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished", "job_id", jobID, "status", status, "pages", pages)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	if err := r.finish(ctx, jobID, constants.JobStatusFailed, nil, &message); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) finish(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, pages *int, message *string) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_job SET status = ?, pages = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(status), pages, message, time.Now().UTC(), jobID.String(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("extract_job %s: %w", jobID, sql.ErrNoRows)
	}
	return nil
}

// Recent lists the latest jobs, newest first.
func (r *extractJobRepo) Recent(ctx context.Context, limit int) ([]entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT id, source_path, doc_type, model, status, pages, error_message, started_at, finished_at
		 FROM extract_job ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []entity.ExtractJob
	for rows.Next() {
		var (
			j          entity.ExtractJob
			id         string
			docType    string
			status     string
			pages      sql.NullInt64
			message    sql.NullString
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&id, &j.SourcePath, &docType, &j.Model, &status, &pages, &message, &j.StartedAt, &finishedAt); err != nil {
			return nil, err
		}
		if j.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("extract_job id %q: %w", id, err)
		}
		j.DocType = constants.DocType(docType)
		j.Status = constants.JobStatus(status)
		if pages.Valid {
			n := int(pages.Int64)
			j.Pages = &n
		}
		if message.Valid {
			j.ErrorMessage = &message.String
		}
		if finishedAt.Valid {
			j.FinishedAt = &finishedAt.Time
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// noopExtractJobRepo is used when no journal DSN is configured.
type noopExtractJobRepo struct{}

func NewNoopExtractJobRepository() ExtractJobRepository {
	return noopExtractJobRepo{}
}

func (noopExtractJobRepo) Start(_ context.Context, sourcePath string, docType constants.DocType, model string) (*entity.ExtractJob, error) {
	return &entity.ExtractJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		DocType:    docType,
		Model:      model,
		Status:     constants.JobStatusRunning,
		StartedAt:  time.Now().UTC(),
	}, nil
}

func (noopExtractJobRepo) FinishSuccess(context.Context, uuid.UUID, constants.JobStatus, int) error {
	return nil
}

func (noopExtractJobRepo) FinishFailure(context.Context, uuid.UUID, string) error { return nil }

func (noopExtractJobRepo) Recent(context.Context, int) ([]entity.ExtractJob, error) { return nil, nil }
