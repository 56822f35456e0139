package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pill-tracker/internal/ports/docstore"
)

type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:128"`
	Data       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// Store implementa docstore.Store sobre SQLite. Los filtros se evalúan en Go
// sobre el JSON decodificado; las colecciones del dominio son chicas.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	return toDocument(row)
}

func (s *Store) Find(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return nil, err
		}
		if docstore.Matches(doc.Data, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, data map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("document id required")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sqlite: encode document: %w", err)
	}

	row := documentRow{Collection: collection, ID: id, Data: string(b)}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
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
		return fmt.Errorf("sqlite: encode document: %w", err)
	}

	row := documentRow{Collection: collection, ID: id, Data: string(b)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, conds ...docstore.Precondition) error {
	norm, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Where("collection = ? AND id = ?", collection, id).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return docstore.ErrNotFound
			}
			return err
		}

		current, err := toDocument(row)
		if err != nil {
			return err
		}
		if !docstore.Satisfies(current.Data, conds) {
			return docstore.ErrPreconditionFailed
		}

		b, err := json.Marshal(docstore.Merge(current.Data, norm))
		if err != nil {
			return fmt.Errorf("sqlite: encode document: %w", err)
		}

		// El WHERE sobre data cierra la ventana entre lectura y escritura.
		res := tx.Model(&documentRow{}).
			Where("collection = ? AND id = ? AND data = ?", collection, id, row.Data).
			Updates(map[string]any{"data": string(b), "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return docstore.ErrPreconditionFailed
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toDocument(row documentRow) (docstore.Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
		return docstore.Document{}, fmt.Errorf("sqlite: decode document %s: %w", row.ID, err)
	}
	return docstore.Document{ID: row.ID, Data: data}, nil
}
