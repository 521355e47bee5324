package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finhub-tools/invoice-qc/constants"
	"github.com/finhub-tools/invoice-qc/internal/common"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func sampleReport() *entity.BatchReport {
	field := "gross_total"
	return &entity.BatchReport{
		Invoices: []entity.InvoiceReport{
			{ID: "INV-1", IsValid: true, Findings: []entity.Finding{}},
			{
				ID:      "#2",
				IsValid: false,
				Findings: []entity.Finding{{
					RuleID:   constants.RuleTotalsMismatch,
					Severity: constants.SeverityError,
					Message:  "net_total + tax_amount deviates from gross_total by more than 0.5",
					Field:    &field,
				}},
			},
		},
		Summary: entity.BatchSummary{
			TotalInvoices: 2,
			ValidCount:    1,
			InvalidCount:  1,
			TopErrorCategories: []entity.RuleCount{
				{RuleID: constants.RuleTotalsMismatch, Count: 1},
			},
		},
	}
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewRunRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	saved, err := repo.SaveRun(ctx, "api", sampleReport())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, 2, saved.TotalInvoices)
	assert.Equal(t, 1, saved.InvalidCount)

	got, err := repo.GetRun(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "api", got.Source)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Report.Invoices, 2)
	assert.Equal(t, "INV-1", got.Report.Invoices[0].ID)
	require.Len(t, got.Report.Invoices[1].Findings, 1)
	assert.Equal(t, constants.RuleTotalsMismatch, got.Report.Invoices[1].Findings[0].RuleID)
	require.NotNil(t, got.Report.Invoices[1].Findings[0].Field)
	assert.Equal(t, "gross_total", *got.Report.Invoices[1].Findings[0].Field)
}

func TestGetRunNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewRunRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := repo.GetRun(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := testDB(t)
	repo := NewRunRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	first, err := repo.SaveRun(ctx, "cli", sampleReport())
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := repo.SaveRun(ctx, "api", sampleReport())
	require.NoError(t, err)

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// created_at is fixed-width, so lexical DESC order is chronological.
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	limited, err := repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: DriverSQLite}
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b = ?", sqlite.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
}
