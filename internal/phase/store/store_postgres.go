package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"paperview/internal/phase/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
	txcontext "paperview/pkg/platform/tx"
)

// PostgresStore persists phases in PostgreSQL. Statements join an ambient
// transaction when one is carried in context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the phases table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS extraction_phases (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL UNIQUE,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			start_date TIMESTAMPTZ,
			end_date TIMESTAMPTZ,
			auto_close BOOLEAN NOT NULL,
			allow_late_submissions BOOLEAN NOT NULL,
			min_quotes_required INT NOT NULL,
			max_quotes_per_extraction INT NOT NULL,
			requires_approval BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure extraction_phases schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, phase *models.ExtractionPhase) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO extraction_phases (
			id, project_id, mode, status, start_date, end_date, auto_close,
			allow_late_submissions, min_quotes_required, max_quotes_per_extraction,
			requires_approval, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			mode = EXCLUDED.mode,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			auto_close = EXCLUDED.auto_close,
			allow_late_submissions = EXCLUDED.allow_late_submissions,
			min_quotes_required = EXCLUDED.min_quotes_required,
			max_quotes_per_extraction = EXCLUDED.max_quotes_per_extraction,
			requires_approval = EXCLUDED.requires_approval,
			updated_at = EXCLUDED.updated_at
	`,
		phase.ID.String(), phase.ProjectID.String(), string(phase.Mode), string(phase.Status),
		phase.StartDate, phase.EndDate, phase.AutoClose, phase.AllowLateSubmissions,
		phase.MinQuotesRequired, phase.MaxQuotesPerExtraction, phase.RequiresApproval,
		phase.CreatedAt, phase.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save phase: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByProject(ctx context.Context, projectID id.ProjectID) (*models.ExtractionPhase, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, project_id, mode, status, start_date, end_date, auto_close,
			allow_late_submissions, min_quotes_required, max_quotes_per_extraction,
			requires_approval, created_at, updated_at
		FROM extraction_phases WHERE project_id = $1`, projectID.String())
	return scanPhase(row)
}

func (s *PostgresStore) ListAutoClosable(ctx context.Context) ([]*models.ExtractionPhase, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, project_id, mode, status, start_date, end_date, auto_close,
			allow_late_submissions, min_quotes_required, max_quotes_per_extraction,
			requires_approval, created_at, updated_at
		FROM extraction_phases
		WHERE status = $1 AND auto_close AND end_date IS NOT NULL`, string(models.PhaseActive))
	if err != nil {
		return nil, fmt.Errorf("list auto-closable phases: %w", err)
	}
	defer rows.Close()

	var out []*models.ExtractionPhase
	for rows.Next() {
		phase, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, phase)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhase(row rowScanner) (*models.ExtractionPhase, error) {
	var (
		phase            models.ExtractionPhase
		rawID, rawProj   string
		rawMode, rawStat string
	)
	err := row.Scan(&rawID, &rawProj, &rawMode, &rawStat, &phase.StartDate, &phase.EndDate,
		&phase.AutoClose, &phase.AllowLateSubmissions, &phase.MinQuotesRequired,
		&phase.MaxQuotesPerExtraction, &phase.RequiresApproval, &phase.CreatedAt, &phase.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan phase: %w", err)
	}
	if phase.ID, err = id.ParsePhaseID(rawID); err != nil {
		return nil, err
	}
	if phase.ProjectID, err = id.ParseProjectID(rawProj); err != nil {
		return nil, err
	}
	phase.Mode = models.ExtractionMode(rawMode)
	phase.Status = models.PhaseStatus(rawStat)
	return &phase, nil
}
