package documents

import (
	"context"
	"errors"

	"pill-tracker/internal/domain/pills"
	"pill-tracker/internal/ports/docstore"
)

// PillsRepo cubre pills y categories. pills.Pill ya trae sus tags json.
type PillsRepo struct {
	store docstore.Store
}

func NewPillsRepo(store docstore.Store) *PillsRepo {
	return &PillsRepo{store: store}
}

func (r *PillsRepo) ListPills(ctx context.Context) ([]pills.Pill, error) {
	docs, err := r.store.Find(ctx, colPills)
	if err != nil {
		return nil, err
	}
	out := make([]pills.Pill, 0, len(docs))
	for _, doc := range docs {
		var p pills.Pill
		if err := docstore.Decode(doc, &p); err != nil {
			return nil, err
		}
		p.ID = doc.ID
		out = append(out, p)
	}
	return out, nil
}

func (r *PillsRepo) GetPill(ctx context.Context, id string) (pills.Pill, error) {
	doc, err := r.store.Get(ctx, colPills, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return pills.Pill{}, pills.ErrNotFound
		}
		return pills.Pill{}, err
	}
	var p pills.Pill
	if err := docstore.Decode(doc, &p); err != nil {
		return pills.Pill{}, err
	}
	p.ID = doc.ID
	return p, nil
}

func (r *PillsRepo) SavePill(ctx context.Context, p pills.Pill) error {
	data, err := docstore.Encode(p)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, colPills, p.ID, data)
}

func (r *PillsRepo) ListCategories(ctx context.Context) ([]pills.Category, error) {
	docs, err := r.store.Find(ctx, colCategories)
	if err != nil {
		return nil, err
	}
	out := make([]pills.Category, 0, len(docs))
	for _, doc := range docs {
		var c pills.Category
		if err := docstore.Decode(doc, &c); err != nil {
			return nil, err
		}
		c.ID = doc.ID
		out = append(out, c)
	}
	return out, nil
}

func (r *PillsRepo) SaveCategory(ctx context.Context, c pills.Category) error {
	data, err := docstore.Encode(c)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, colCategories, c.ID, data)
}
