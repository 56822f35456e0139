package scans

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s Scan) error
	ListByUsername(ctx context.Context, username string) ([]Scan, error)
	DeleteByUsername(ctx context.Context, username string) (int, error)
	// DeleteOlderThan borra los scans creados antes de cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
