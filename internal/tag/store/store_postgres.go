package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paperview/internal/tag/models"
	id "paperview/pkg/domain"
	"paperview/pkg/platform/sentinel"
	txcontext "paperview/pkg/platform/tx"
)

// PostgresStore persists tags in PostgreSQL. Statements join an ambient
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

// EnsureSchema creates the tags table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tags (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			project_id UUID NOT NULL,
			question_id UUID,
			is_mandatory BOOLEAN NOT NULL,
			created_by UUID NOT NULL,
			status TEXT NOT NULL,
			visibility TEXT NOT NULL,
			type TEXT NOT NULL,
			merged_into UUID,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS tags_project_idx ON tags (project_id) WHERE merged_into IS NULL`)
	if err != nil {
		return fmt.Errorf("ensure tags schema: %w", err)
	}
	return nil
}

const tagColumns = `id, name, project_id, question_id, is_mandatory, created_by,
	status, visibility, type, merged_into, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, tag *models.Tag) error {
	var questionID, mergedInto *string
	if tag.QuestionID != nil {
		q := tag.QuestionID.String()
		questionID = &q
	}
	if tag.MergedInto != nil {
		m := tag.MergedInto.String()
		mergedInto = &m
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO tags (`+tagColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_mandatory = EXCLUDED.is_mandatory,
			status = EXCLUDED.status,
			visibility = EXCLUDED.visibility,
			merged_into = EXCLUDED.merged_into,
			updated_at = EXCLUDED.updated_at
	`,
		tag.ID.String(), tag.Name, tag.ProjectID.String(), questionID, tag.IsMandatory,
		tag.CreatedBy.String(), string(tag.Status), string(tag.Visibility), string(tag.Type),
		mergedInto, tag.CreatedAt, tag.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, tagID id.TagID) (*models.Tag, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = $1 AND merged_into IS NULL`, tagID.String())
	return scanTag(row)
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Tag, error) {
	return s.list(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE project_id = $1 AND merged_into IS NULL`,
		projectID.String())
}

func (s *PostgresStore) ListMandatoryByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Tag, error) {
	return s.list(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE project_id = $1 AND is_mandatory AND merged_into IS NULL`,
		projectID.String())
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Tag, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTag(row rowScanner) (*models.Tag, error) {
	var (
		tag                    models.Tag
		rawID, rawProj, rawBy  string
		rawStatus, rawVis      string
		rawType                string
		questionID, mergedInto *string
	)
	err := row.Scan(&rawID, &tag.Name, &rawProj, &questionID, &tag.IsMandatory, &rawBy,
		&rawStatus, &rawVis, &rawType, &mergedInto, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	if tag.ID, err = id.ParseTagID(rawID); err != nil {
		return nil, err
	}
	if tag.ProjectID, err = id.ParseProjectID(rawProj); err != nil {
		return nil, err
	}
	if tag.CreatedBy, err = id.ParseUserID(rawBy); err != nil {
		return nil, err
	}
	if questionID != nil {
		q, err := id.ParseQuestionID(*questionID)
		if err != nil {
			return nil, err
		}
		tag.QuestionID = &q
	}
	if mergedInto != nil {
		m, err := id.ParseTagID(*mergedInto)
		if err != nil {
			return nil, err
		}
		tag.MergedInto = &m
	}
	tag.Status = models.TagStatus(rawStatus)
	tag.Visibility = models.TagVisibility(rawVis)
	tag.Type = models.TagType(rawType)
	return &tag, nil
}
