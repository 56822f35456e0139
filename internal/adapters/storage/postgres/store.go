package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pill-tracker/internal/ports/docstore"
)

// Store implementa docstore.Store sobre una tabla JSONB.
// Filtros y precondiciones se resuelven con containment (data @> {...}).
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return docstore.Document{}, docstore.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, data
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	return doc, nil
}

func (s *Store) Find(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT id, data
		FROM documents
		WHERE collection = $1
	`)
	args := []any{collection}

	if len(filters) > 0 {
		match := make(map[string]any, len(filters))
		for _, f := range filters {
			match[f.Field] = f.Value
		}
		b, err := json.Marshal(match)
		if err != nil {
			return nil, fmt.Errorf("postgres: encode filters: %w", err)
		}
		sb.WriteString(" AND data @> $2::jsonb")
		args = append(args, string(b))
	}
	sb.WriteString(" ORDER BY id ASC")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]docstore.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, collection, id string, data map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document id required")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("postgres: encode document: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, string(b))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return docstore.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document id required")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("postgres: encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, collection, id, string(b))
	return err
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, conds ...docstore.Precondition) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("postgres: encode fields: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`
	args := []any{collection, id, string(b)}

	if len(conds) > 0 {
		match := make(map[string]any, len(conds))
		for _, c := range conds {
			match[c.Field] = c.Equals
		}
		mb, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("postgres: encode preconditions: %w", err)
		}
		query += " AND data @> $4::jsonb"
		args = append(args, string(mb))
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// 0 filas: o no existe, o no se cumplió la precondición.
	if _, err := s.Get(ctx, collection, id); err != nil {
		return err
	}
	return docstore.ErrPreconditionFailed
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (docstore.Document, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		return docstore.Document{}, err
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return docstore.Document{}, fmt.Errorf("postgres: decode document %s: %w", id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}
