package documents

import (
	"context"
	"time"

	"pill-tracker/internal/domain/scans"
	"pill-tracker/internal/ports/docstore"
)

type scanDoc struct {
	ScanID      string    `json:"scanId"`
	Username    string    `json:"username"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	PillID      string    `json:"pillId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ScansRepo struct {
	store docstore.Store
}

func NewScansRepo(store docstore.Store) *ScansRepo {
	return &ScansRepo{store: store}
}

func (r *ScansRepo) Create(ctx context.Context, s scans.Scan) error {
	data, err := docstore.Encode(scanDoc{
		ScanID:      s.ID,
		Username:    s.Username,
		Label:       s.Label,
		Confidence:  s.Confidence,
		PillID:      s.PillID,
		FileName:    s.FileName,
		ContentType: s.ContentType,
		Size:        s.Size,
		CreatedAt:   s.CreatedAt,
	})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, colScans, s.ID, data)
}

func (r *ScansRepo) ListByUsername(ctx context.Context, username string) ([]scans.Scan, error) {
	return r.find(ctx, docstore.Filter{Field: "username", Value: username})
}

func (r *ScansRepo) DeleteByUsername(ctx context.Context, username string) (int, error) {
	return deleteWhere(ctx, r.store, colScans, docstore.Filter{Field: "username", Value: username})
}

// DeleteOlderThan recorre la colección: el port sólo ofrece filtros de igualdad.
func (r *ScansRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	items, err := r.find(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range items {
		if !s.CreatedAt.Before(cutoff) {
			continue
		}
		if err := r.store.Delete(ctx, colScans, s.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *ScansRepo) find(ctx context.Context, filters ...docstore.Filter) ([]scans.Scan, error) {
	docs, err := r.store.Find(ctx, colScans, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]scans.Scan, 0, len(docs))
	for _, doc := range docs {
		var d scanDoc
		if err := docstore.Decode(doc, &d); err != nil {
			return nil, err
		}
		out = append(out, scans.Scan{
			ID:          doc.ID,
			Username:    d.Username,
			Label:       d.Label,
			Confidence:  d.Confidence,
			PillID:      d.PillID,
			FileName:    d.FileName,
			ContentType: d.ContentType,
			Size:        d.Size,
			CreatedAt:   d.CreatedAt,
		})
	}
	return out, nil
}
