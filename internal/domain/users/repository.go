package users

import "context"

type Repository interface {
	// Create es atómico: falla con ErrUsernameTaken si el username ya tiene
	// dueño y con ErrAlreadyProvisioned si el uid ya tiene perfil.
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}
