package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"paperview/internal/extraction/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
	txcontext "paperview/pkg/platform/tx"
)

// PostgresStore persists extractions in PostgreSQL. Statements join an
// ambient transaction when one is carried in context.
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

// EnsureSchema creates the extractions, quotes and quote_tags tables if they
// do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS extractions (
			id UUID PRIMARY KEY,
			study_id UUID NOT NULL,
			assigned_to UUID NOT NULL,
			status TEXT NOT NULL,
			extraction_order INT NOT NULL,
			max_quotes INT NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (study_id, assigned_to)
		);
		CREATE TABLE IF NOT EXISTS quotes (
			id UUID PRIMARY KEY,
			extraction_id UUID NOT NULL REFERENCES extractions (id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			location JSONB,
			researcher_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS quote_tags (
			quote_id UUID NOT NULL REFERENCES quotes (id) ON DELETE CASCADE,
			tag_id UUID NOT NULL,
			PRIMARY KEY (quote_id, tag_id)
		);
		CREATE INDEX IF NOT EXISTS quote_tags_tag_idx ON quote_tags (tag_id)`)
	if err != nil {
		return fmt.Errorf("ensure extractions schema: %w", err)
	}
	return nil
}

// Save upserts the aggregate and rewrites its quote rows. Callers mutating
// quotes should run inside a transaction so the rewrite stays atomic.
func (s *PostgresStore) Save(ctx context.Context, extraction *models.Extraction) error {
	q := s.execer(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO extractions (
			id, study_id, assigned_to, status, extraction_order, max_quotes,
			started_at, completed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`,
		extraction.ID.String(), extraction.StudyID.String(), extraction.AssignedTo.String(),
		string(extraction.Status), extraction.Order, extraction.MaxQuotes,
		extraction.StartedAt, extraction.CompletedAt, extraction.CreatedAt, extraction.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save extraction: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM quotes WHERE extraction_id = $1`, extraction.ID.String()); err != nil {
		return fmt.Errorf("rewrite quotes: %w", err)
	}
	for _, quote := range extraction.Quotes {
		location, err := json.Marshal(quote.Location)
		if err != nil {
			return fmt.Errorf("encode quote location: %w", err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO quotes (id, extraction_id, text, location, researcher_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			quote.ID.String(), extraction.ID.String(), quote.Text, location,
			quote.ResearcherID.String(), quote.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("save quote: %w", err)
		}
		for _, tagID := range quote.TagIDs {
			_, err = q.ExecContext(ctx,
				`INSERT INTO quote_tags (quote_id, tag_id) VALUES ($1,$2)`,
				quote.ID.String(), tagID.String())
			if err != nil {
				return fmt.Errorf("save quote tag: %w", err)
			}
		}
	}
	return nil
}

const extractionColumns = `id, study_id, assigned_to, status, extraction_order,
	max_quotes, started_at, completed_at, created_at, updated_at`

func (s *PostgresStore) GetByID(ctx context.Context, extractionID id.ExtractionID) (*models.Extraction, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE id = $1`, extractionID.String())
	extraction, err := scanExtraction(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadQuotes(ctx, extraction); err != nil {
		return nil, err
	}
	return extraction, nil
}

func (s *PostgresStore) GetByStudyAndUser(ctx context.Context, studyID id.StudyID, userID id.UserID) (*models.Extraction, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE study_id = $1 AND assigned_to = $2`,
		studyID.String(), userID.String())
	extraction, err := scanExtraction(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadQuotes(ctx, extraction); err != nil {
		return nil, err
	}
	return extraction, nil
}

func (s *PostgresStore) CountByStudy(ctx context.Context, studyID id.StudyID) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM extractions WHERE study_id = $1`, studyID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count extractions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Extraction, error) {
	return s.list(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE assigned_to = $1 ORDER BY created_at`,
		userID.String())
}

func (s *PostgresStore) ListWithTag(ctx context.Context, tagID id.TagID) ([]*models.Extraction, error) {
	return s.list(ctx, `
		SELECT DISTINCT e.id, e.study_id, e.assigned_to, e.status, e.extraction_order,
			e.max_quotes, e.started_at, e.completed_at, e.created_at, e.updated_at
		FROM extractions e
		JOIN quotes q ON q.extraction_id = e.id
		JOIN quote_tags qt ON qt.quote_id = q.id
		WHERE qt.tag_id = $1`, tagID.String())
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Extraction, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var out []*models.Extraction
	for rows.Next() {
		extraction, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, extraction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, extraction := range out {
		if err := s.loadQuotes(ctx, extraction); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) loadQuotes(ctx context.Context, extraction *models.Extraction) error {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, text, location, researcher_id, created_at
		FROM quotes WHERE extraction_id = $1 ORDER BY created_at`, extraction.ID.String())
	if err != nil {
		return fmt.Errorf("load quotes: %w", err)
	}
	defer rows.Close()

	byID := make(map[id.QuoteID]*models.Quote)
	for rows.Next() {
		var (
			quote        models.Quote
			rawID, rawBy string
			location     []byte
		)
		if err := rows.Scan(&rawID, &quote.Text, &location, &rawBy, &quote.CreatedAt); err != nil {
			return fmt.Errorf("scan quote: %w", err)
		}
		if quote.ID, err = id.ParseQuoteID(rawID); err != nil {
			return err
		}
		if quote.ResearcherID, err = id.ParseUserID(rawBy); err != nil {
			return err
		}
		if len(location) > 0 {
			if err := json.Unmarshal(location, &quote.Location); err != nil {
				return fmt.Errorf("decode quote location: %w", err)
			}
		}
		quote.ExtractionID = extraction.ID
		byID[quote.ID] = &quote
		extraction.Quotes = append(extraction.Quotes, &quote)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT qt.quote_id, qt.tag_id
		FROM quote_tags qt
		JOIN quotes q ON q.id = qt.quote_id
		WHERE q.extraction_id = $1`, extraction.ID.String())
	if err != nil {
		return fmt.Errorf("load quote tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var rawQuote, rawTag string
		if err := tagRows.Scan(&rawQuote, &rawTag); err != nil {
			return fmt.Errorf("scan quote tag: %w", err)
		}
		quoteID, err := id.ParseQuoteID(rawQuote)
		if err != nil {
			return err
		}
		tagID, err := id.ParseTagID(rawTag)
		if err != nil {
			return err
		}
		if quote, ok := byID[quoteID]; ok {
			quote.AddTag(tagID)
		}
	}
	return tagRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row rowScanner) (*models.Extraction, error) {
	var (
		extraction             models.Extraction
		rawID, rawStudy, rawBy string
		rawStatus              string
	)
	err := row.Scan(&rawID, &rawStudy, &rawBy, &rawStatus, &extraction.Order,
		&extraction.MaxQuotes, &extraction.StartedAt, &extraction.CompletedAt,
		&extraction.CreatedAt, &extraction.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan extraction: %w", err)
	}
	if extraction.ID, err = id.ParseExtractionID(rawID); err != nil {
		return nil, err
	}
	if extraction.StudyID, err = id.ParseStudyID(rawStudy); err != nil {
		return nil, err
	}
	if extraction.AssignedTo, err = id.ParseUserID(rawBy); err != nil {
		return nil, err
	}
	extraction.Status = models.ExtractionStatus(rawStatus)
	return &extraction, nil
}
