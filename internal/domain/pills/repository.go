package pills

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("pill not found")

type Repository interface {
	ListPills(ctx context.Context) ([]Pill, error)
	GetPill(ctx context.Context, id string) (Pill, error)
	SavePill(ctx context.Context, p Pill) error

	ListCategories(ctx context.Context) ([]Category, error)
	SaveCategory(ctx context.Context, c Category) error
}
