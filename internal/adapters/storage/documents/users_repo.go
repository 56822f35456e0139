package documents

import (
	"context"
	"errors"
	"time"

	"pill-tracker/internal/domain/users"
	"pill-tracker/internal/ports/docstore"
)

type userDoc struct {
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	FullName      string    `json:"fullName"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	Gender        string    `json:"gender"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UsersRepo guarda perfiles con id = uid del identity provider.
type UsersRepo struct {
	store docstore.Store
}

func NewUsersRepo(store docstore.Store) *UsersRepo {
	return &UsersRepo{store: store}
}

// Create reserva el username y después crea el perfil. Las dos escrituras son
// create-if-absent, así dos altas simultáneas no comparten username.
func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	data, err := docstore.Encode(toUserDoc(u))
	if err != nil {
		return err
	}

	if err := r.store.Create(ctx, colUsernames, u.Username, map[string]any{"userId": u.ID}); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return users.ErrUsernameTaken
		}
		return err
	}

	if err := r.store.Create(ctx, colUsers, u.ID, data); err != nil {
		// el uid ya tenía perfil: se libera la reserva recién tomada
		if derr := r.store.Delete(ctx, colUsernames, u.Username); derr != nil && !errors.Is(derr, docstore.ErrNotFound) {
			err = errors.Join(err, derr)
		}
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return users.ErrAlreadyProvisioned
		}
		return err
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	doc, err := r.store.Get(ctx, colUsers, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return fromUserDoc(doc)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	doc, err := r.store.Get(ctx, colUsernames, username)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	uid, _ := doc.Data["userId"].(string)
	if uid == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.GetByID(ctx, uid)
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	data, err := docstore.Encode(toUserDoc(u))
	if err != nil {
		return err
	}
	if err := r.store.Update(ctx, colUsers, u.ID, data); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return users.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, colUsers, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return users.ErrNotFound
		}
		return err
	}
	if err := r.store.Delete(ctx, colUsernames, u.Username); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	return nil
}

func toUserDoc(u users.User) userDoc {
	return userDoc{
		UserID:        u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Address:       u.Address,
		Gender:        string(u.Gender),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func fromUserDoc(doc docstore.Document) (users.User, error) {
	var d userDoc
	if err := docstore.Decode(doc, &d); err != nil {
		return users.User{}, err
	}
	return users.User{
		ID:            doc.ID,
		Username:      d.Username,
		Email:         d.Email,
		EmailVerified: d.EmailVerified,
		FullName:      d.FullName,
		Phone:         d.Phone,
		Address:       d.Address,
		Gender:        users.Gender(d.Gender),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}
