package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pill-tracker/internal/ports/identity"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
	// ErrForbidden: el username existe pero pertenece a otro uid.
	ErrForbidden = errors.New("not allowed")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrAlreadyProvisioned = errors.New("profile already exists")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,29}$`)

// DataOwner es cualquier módulo con datos colgados de un username
// (schedules, scans). Se borran junto con el perfil.
type DataOwner interface {
	DeleteByUsername(ctx context.Context, username string) error
}

type Service struct {
	repo      Repository
	directory identity.Directory
	owners    []DataOwner
	now       func() time.Time
}

func NewService(repo Repository, directory identity.Directory) *Service {
	if directory == nil {
		directory = identity.NopDirectory{}
	}
	return &Service{
		repo:      repo,
		directory: directory,
		now:       time.Now,
	}
}

// AddDataOwner registra un módulo para el borrado en cascada. Se llama al
// armar el router, después de crear los servicios que dependen de Resolve.
func (s *Service) AddDataOwner(o DataOwner) {
	if o != nil {
		s.owners = append(s.owners, o)
	}
}

// Resolve busca el usuario de la ruta y verifica que sea el autenticado.
// El username se compara en minúsculas, igual que en Provision; el User
// devuelto trae la forma canónica.
func (s *Service) Resolve(ctx context.Context, username, userID string) (User, error) {
	username = canonicalUsername(username)
	if username == "" {
		return User{}, ErrNotFound
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if strings.TrimSpace(userID) == "" || u.ID != userID {
		return User{}, ErrForbidden
	}
	return u, nil
}

// Authorize es Resolve sin el perfil; lo usan los chequeos que corren antes de leer el cuerpo.
func (s *Service) Authorize(ctx context.Context, username, userID string) error {
	_, err := s.Resolve(ctx, username, userID)
	return err
}

func canonicalUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

type ProvisionInput struct {
	Username string
	FullName string
	Phone    string
	Address  string
	Gender   string
}

// Provision crea el perfil del uid autenticado. El email viene del token.
func (s *Service) Provision(ctx context.Context, userID, email string, in ProvisionInput) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrInvalidInput
	}

	username := canonicalUsername(in.Username)
	if !usernamePattern.MatchString(username) {
		return User{}, fmt.Errorf("%w: username must be 3-30 chars of a-z, 0-9, '.', '_' or '-'", ErrInvalidInput)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return User{}, fmt.Errorf("%w: fullName is required", ErrInvalidInput)
	}
	gender := Gender(strings.ToLower(strings.TrimSpace(in.Gender)))
	if gender != "" && !gender.Valid() {
		return User{}, fmt.Errorf("%w: gender must be male or female", ErrInvalidInput)
	}

	if _, err := s.repo.GetByID(ctx, userID); err == nil {
		return User{}, ErrAlreadyProvisioned
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	// Los chequeos de arriba dan el error temprano; la unicidad la garantiza
	// repo.Create, que falla con ErrUsernameTaken o ErrAlreadyProvisioned.
	now := s.now().UTC()
	u := User{
		ID:        userID,
		Username:  username,
		Email:     strings.TrimSpace(email),
		FullName:  fullName,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Gender:    gender,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID, username string) (User, error) {
	return s.Resolve(ctx, username, userID)
}

// UpdateInput: string vacío = no tocar.
type UpdateInput struct {
	FullName string
	Address  string
	Phone    string
	Gender   string
	Email    string
}

type UpdateResult struct {
	Changed      bool
	EmailChanged bool
}

// UpdateProfile aplica un update parcial. Un email nuevo se guarda primero en
// el perfil (sin verificar) y después se propaga al identity provider; si el
// provider rechaza el cambio, el perfil vuelve al estado anterior.
func (s *Service) UpdateProfile(ctx context.Context, userID, username string, in UpdateInput) (User, UpdateResult, error) {
	u, err := s.Resolve(ctx, username, userID)
	if err != nil {
		return User{}, UpdateResult{}, err
	}
	prev := u

	var res UpdateResult
	set := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && v != *dst {
			*dst = v
			res.Changed = true
		}
	}
	set(&u.FullName, in.FullName)
	set(&u.Address, in.Address)
	set(&u.Phone, in.Phone)

	if g := Gender(strings.ToLower(strings.TrimSpace(in.Gender))); g != "" {
		if !g.Valid() {
			return User{}, UpdateResult{}, fmt.Errorf("%w: gender must be male or female", ErrInvalidInput)
		}
		if g != u.Gender {
			u.Gender = g
			res.Changed = true
		}
	}

	email := strings.TrimSpace(in.Email)
	if email != "" && !strings.EqualFold(email, u.Email) {
		if !strings.Contains(email, "@") {
			return User{}, UpdateResult{}, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
		}
		u.Email = email
		u.EmailVerified = false
		res.Changed = true
		res.EmailChanged = true
	}

	if !res.Changed {
		return u, res, nil
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, UpdateResult{}, err
	}

	if res.EmailChanged {
		if err := s.directory.UpdateEmail(ctx, u.ID, u.Email); err != nil {
			err = fmt.Errorf("update email: %w", err)
			if rerr := s.repo.Update(ctx, prev); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restore profile: %w", rerr))
			}
			return User{}, UpdateResult{}, err
		}
		// Perfil y provider ya coinciden; un fallo acá solo deja el email sin verificar.
		if err := s.directory.SendEmailVerification(ctx, u.ID); err != nil {
			return User{}, UpdateResult{}, fmt.Errorf("send email verification: %w", err)
		}
	}

	updated, err := s.repo.GetByID(ctx, u.ID)
	if err != nil {
		return User{}, UpdateResult{}, err
	}
	return updated, res, nil
}

// Delete borra el perfil y todo lo que cuelga del username.
func (s *Service) Delete(ctx context.Context, userID, username string) error {
	u, err := s.Resolve(ctx, username, userID)
	if err != nil {
		return err
	}

	for _, o := range s.owners {
		if err := o.DeleteByUsername(ctx, u.Username); err != nil {
			return fmt.Errorf("delete user data: %w", err)
		}
	}
	return s.repo.Delete(ctx, u.ID)
}
