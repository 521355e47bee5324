package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finhub-tools/invoice-qc/internal/common"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// createdAtLayout is fixed-width so that string ordering in the store
// matches chronological ordering on both drivers.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ValidationRun is one persisted validation pass: when it ran, where the
// batch came from, the summary counters and the full report.
type ValidationRun struct {
	ID            uuid.UUID          `json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	Source        string             `json:"source"`
	TotalInvoices int                `json:"total_invoices"`
	ValidCount    int                `json:"valid_count"`
	InvalidCount  int                `json:"invalid_count"`
	Report        entity.BatchReport `json:"report"`
}

type RunRepository interface {
	SaveRun(ctx context.Context, source string, report *entity.BatchReport) (*ValidationRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*ValidationRun, error)
	ListRuns(ctx context.Context, limit int) ([]*ValidationRun, error)
}

type runRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepository{db: db, logger: logger}
}

func (r *runRepository) SaveRun(ctx context.Context, source string, report *entity.BatchReport) (*ValidationRun, error) {
	run := &ValidationRun{
		ID:            uuid.New(),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		TotalInvoices: report.Summary.TotalInvoices,
		ValidCount:    report.Summary.ValidCount,
		InvalidCount:  report.Summary.InvalidCount,
		Report:        *report,
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	query := r.db.Rebind(`
INSERT INTO validation_runs (id, created_at, source, total_invoices, valid_count, invalid_count, report)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		run.ID.String(),
		run.CreatedAt.Format(createdAtLayout),
		run.Source,
		run.TotalInvoices,
		run.ValidCount,
		run.InvalidCount,
		string(payload),
	)
	if err != nil {
		r.logger.Error("failed to save validation run", "run_id", run.ID, "error", err)
		return nil, common.NewAppError("DB_ERROR", "save validation run", common.ErrDatabase)
	}

	r.logger.Info("validation run saved",
		"run_id", run.ID,
		"source", source,
		"total_invoices", run.TotalInvoices,
		"invalid_count", run.InvalidCount,
	)
	return run, nil
}

func (r *runRepository) GetRun(ctx context.Context, id uuid.UUID) (*ValidationRun, error) {
	query := r.db.Rebind(`
SELECT id, created_at, source, total_invoices, valid_count, invalid_count, report
FROM validation_runs WHERE id = ?`)
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("RUN_NOT_FOUND", fmt.Sprintf("validation run %s", id), common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to load validation run", "run_id", id, "error", err)
		return nil, common.NewAppError("DB_ERROR", "load validation run", common.ErrDatabase)
	}
	return run, nil
}

func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]*ValidationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.Rebind(`
SELECT id, created_at, source, total_invoices, valid_count, invalid_count, report
FROM validation_runs ORDER BY created_at DESC LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("failed to list validation runs", "error", err)
		return nil, common.NewAppError("DB_ERROR", "list validation runs", common.ErrDatabase)
	}
	defer rows.Close()

	var runs []*ValidationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, common.NewAppError("DB_ERROR", "scan validation run", common.ErrDatabase)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_ERROR", "iterate validation runs", common.ErrDatabase)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*ValidationRun, error) {
	var (
		run       ValidationRun
		id        string
		createdAt string
		report    string
	)
	if err := row.Scan(&id, &createdAt, &run.Source, &run.TotalInvoices, &run.ValidCount, &run.InvalidCount, &report); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", id, err)
	}
	run.ID = parsedID

	ts, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp %q: %w", createdAt, err)
	}
	run.CreatedAt = ts

	if err := json.Unmarshal([]byte(report), &run.Report); err != nil {
		return nil, fmt.Errorf("decode stored report: %w", err)
	}
	return &run, nil
}
